package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/replydesk/internal/config"
)

const testKBID = "5b0f7f5e-2f47-4c1b-9a57-1a7f0c2d9e11"

// startBackend points the CLI at an httptest server for the test's lifetime.
func startBackend(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv(config.EnvAPIBase, srv.URL+"/api")
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestKBListPrintsRows(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/kbs", r.URL.Path)
		writeJSON(w, []map[string]any{{"id": testKBID, "slug": "default", "name": "Default", "published_version": 2}})
	})

	out, err := run(t, KBCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, testKBID)
	assert.Contains(t, out, "Default (default)  v2")
}

func TestKBListEmpty(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	out, err := run(t, KBCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no knowledge bases found")
}

func TestKBPublishSurfacesRemoteError(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"kb_not_found"}`))
	})

	_, err := run(t, KBCmd(), "publish", testKBID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `publish: 404 {"detail":"kb_not_found"}`)
}

func TestKBSearchJoinsQueryWords(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "dry skin cream", body["query"])
		assert.Equal(t, float64(3), body["top_k"])
		writeJSON(w, map[string]any{
			"kb_id": testKBID, "kb_version": 1, "query": "dry skin cream", "latency_ms": 4,
			"hits": []map[string]any{{"chunk_id": "c1", "revision_id": "r1", "score": 0.5, "content": "use\nthe   cream"}},
		})
	})

	out, err := run(t, KBCmd(), "search", testKBID, "dry", "skin", "cream", "--top-k", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "1 hits (v1, 4ms)")
	assert.Contains(t, out, "[0.500] use the cream")
}

func TestKBCreateValidatesBeforeRequest(t *testing.T) {
	called := false
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := run(t, KBCmd(), "create", "slug", " ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid name")
	assert.False(t, called)
}

func TestNotesCommentsPassesPageFlags(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "20", q.Get("offset"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "time", q.Get("sort"))
		writeJSON(w, map[string]any{
			"note_id": "n1", "total": 45, "offset": 20, "limit": 10, "sort": "time",
			"comments": []map[string]any{{"comment_id": "c21", "note_id": "n1", "content": "price?", "nickname": "amy", "like_count": "2"}},
		})
	})

	out, err := run(t, NotesCmd(), "comments", "n1", "--offset", "20", "--limit", "10", "--sort", "time")
	require.NoError(t, err)
	assert.Contains(t, out, "comments 21-30 / 45 (sort time)")
	assert.Contains(t, out, "c21  amy  likes 2")
}

func TestNotesShowFetchesAnalysisAndPage(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/api/xhs/notes/n1/analyze":
			writeJSON(w, map[string]any{"note_id": "n1", "total_comments": 3, "intent_counts": map[string]int{"usage": 1, "purchase": 2}})
		case "/api/xhs/notes/n1/comments":
			writeJSON(w, map[string]any{"note_id": "n1", "total": 0, "offset": 0, "limit": 50, "sort": "like", "comments": []any{}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	out, err := run(t, NotesCmd(), "show", "n1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/api/xhs/notes/n1/analyze", "/api/xhs/notes/n1/comments"}, paths)
	assert.Less(t, strings.Index(out, "purchase"), strings.Index(out, "usage"))
	assert.Contains(t, out, "no comments")
}

func TestNotesShowFailsWhenEitherFetchFails(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/analyze") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"note_id": "n1", "total": 0, "comments": []any{}})
	})

	_, err := run(t, NotesCmd(), "show", "n1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyze: 500")
}

func TestReplyRequiresKnowledgeBase(t *testing.T) {
	called := false
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := run(t, ReplyCmd(), "how much is it")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precondition: no knowledge base selected")
	assert.False(t, called)
}

func TestReplyPrintsSuggestion(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["inject_sales"])
		comment := body["comment"].(map[string]any)
		assert.Equal(t, "how much is it", comment["content"])
		assert.True(t, strings.HasPrefix(comment["comment_id"].(string), "cli-"))
		writeJSON(w, map[string]any{
			"kb_id": testKBID, "kb_version": 3, "intent": "price", "intent_confidence": 0.9,
			"reply": "DM me for the price", "lead_score": 60, "lead_level": "medium",
		})
	})

	out, err := run(t, ReplyCmd(), "how", "much", "is", "it", "--kb", testKBID, "--no-sales")
	require.NoError(t, err)
	assert.Contains(t, out, "intent: price (0.90)")
	assert.Contains(t, out, "lead: medium (60)")
	assert.Contains(t, out, "DM me for the price")
}

func TestBulkRunsSequentiallyAndReportsFailures(t *testing.T) {
	var mu sync.Mutex
	var order []string
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/xhs/notes/n1/analyze":
			writeJSON(w, map[string]any{"note_id": "n1"})
		case "/api/xhs/notes/n1/comments":
			writeJSON(w, map[string]any{
				"note_id": "n1", "total": 3, "offset": 0, "limit": 50, "sort": "like",
				"comments": []map[string]any{
					{"comment_id": "c1", "note_id": "n1", "content": "a"},
					{"comment_id": "c2", "note_id": "n1", "content": "b"},
					{"comment_id": "c3", "note_id": "n1", "content": "c"},
				},
			})
		case "/api/reply/suggest":
			var body struct {
				Comment struct {
					CommentID string `json:"comment_id"`
				} `json:"comment"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			mu.Lock()
			order = append(order, body.Comment.CommentID)
			mu.Unlock()
			if body.Comment.CommentID == "c2" {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("llm down"))
				return
			}
			writeJSON(w, map[string]any{"reply": "thanks " + body.Comment.CommentID, "intent": "usage", "lead_level": "low"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	out, err := run(t, BulkCmd(), "n1", "--kb", testKBID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, order)
	assert.Contains(t, out, "[1/3] c1  usage/low  thanks c1")
	assert.Contains(t, out, "[2/3] c2  failed: 502 llm down")
	assert.Contains(t, out, "[3/3] c3")
	assert.Contains(t, out, "done: 2 succeeded, 1 failed")
}

func TestBulkEmptyPage(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/comments") {
			writeJSON(w, map[string]any{"note_id": "n1", "total": 0, "comments": []any{}})
			return
		}
		writeJSON(w, map[string]any{"note_id": "n1"})
	})

	out, err := run(t, BulkCmd(), "n1", "--kb", testKBID)
	require.NoError(t, err)
	assert.Contains(t, out, "no comments on this page")
}

func TestBulkPageOutOfRange(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/comments") {
			writeJSON(w, map[string]any{"note_id": "n1", "total": 10, "offset": 0, "limit": 50, "comments": []any{}})
			return
		}
		writeJSON(w, map[string]any{"note_id": "n1"})
	})

	_, err := run(t, BulkCmd(), "n1", "--kb", testKBID, "--page", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 3 out of range")
}

func TestBulkRejectsBadSort(t *testing.T) {
	cases := []struct {
		name  string
		args  []string
		field string
	}{
		{"unknown sort", []string{"--sort", "bogus"}, "invalid sort"},
		{"zero limit", []string{"--limit", "0"}, "invalid limit"},
		{"limit above max", []string{"--limit", "1000"}, "invalid limit"},
		{"page zero", []string{"--page", "0"}, "page must be at least 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var mu sync.Mutex
			var hits []string
			startBackend(t, func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				hits = append(hits, r.URL.Path)
				mu.Unlock()
				writeJSON(w, map[string]any{"note_id": "n1"})
			})

			args := append([]string{"n1", "--kb", testKBID}, tc.args...)
			out, err := run(t, BulkCmd(), args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.field)
			assert.NotContains(t, out, "done:")
			assert.Empty(t, hits)
		})
	}
}

func TestMonitorOverviewParsesWindow(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "since")
		assert.NotContains(t, body, "until")
		writeJSON(w, map[string]any{
			"total_replies": 12, "avg_latency_ms": 250, "llm_rate": 0.25,
			"lead_high": 1, "lead_medium": 2, "lead_low": 9, "intent_counts": map[string]int{"usage": 5},
		})
	})

	out, err := run(t, MonitorCmd(), "overview", "--since", "2026-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "replies: 12  avg latency: 250ms  llm rate: 25%")
	assert.Contains(t, out, "leads: high 1  medium 2  low 9")
}

func TestMonitorOverviewRejectsBadDate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := run(t, MonitorCmd(), "overview", "--until", "tomorrow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --until")
}

func TestMonitorTopLeads(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"note_id": "n1",
			"rows":    []map[string]any{{"comment_id": "c9", "intent": "purchase", "lead_score": 88, "lead_level": "high"}},
		})
	})

	out, err := run(t, MonitorCmd(), "top-leads", "n1", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, " 88  high    purchase    c9")
}

func TestLeadsScore(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"score": 75, "level": "high", "signals": []string{"price", "contact"}})
	})

	out, err := run(t, LeadsCmd(), "score", "how", "to", "buy")
	require.NoError(t, err)
	assert.Contains(t, out, "lead: high (75)")
	assert.Contains(t, out, "signals: price, contact")
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	startBackend(t, func(w http.ResponseWriter, r *http.Request) {})

	out, err := run(t, ConfigCmd(), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_url: http://127.0.0.1")
	assert.Contains(t, out, "page_size: 50")
}

func TestUnknownSubcommandDeterministicError(t *testing.T) {
	_, err := run(t, KBCmd(), "nope")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestFormatMillis(t *testing.T) {
	assert.Equal(t, "", FormatMillis(nil))
	zero := int64(0)
	assert.Equal(t, "", FormatMillis(&zero))
	ms := int64(1700000000000)
	assert.Len(t, FormatMillis(&ms), len(tsLayout))
}
