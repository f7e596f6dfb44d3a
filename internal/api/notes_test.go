package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListNotes(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/xhs/notes", r.URL.Path)
		assert.Equal(t, "面霜", r.URL.Query().Get("q"))
		writeJSON(w, map[string]any{
			"total":        1,
			"source_files": map[string]string{"contents": "a.json", "comments": "b.json"},
			"notes": []map[string]any{
				{"note_id": "n1", "title": "cream", "liked_count": "1.2万", "time": 1700000000000},
			},
		})
	})

	list, err := client.ListNotes("面霜")
	require.NoError(t, err)
	require.Len(t, list.Notes, 1)
	assert.Equal(t, "1.2万", list.Notes[0].LikedCount)
	require.NotNil(t, list.Notes[0].Time)
	assert.Equal(t, int64(1700000000000), *list.Notes[0].Time)
	assert.Equal(t, "a.json", list.SourceFiles["contents"])
}

func TestListNotesNullTime(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"total":1,"source_files":{},"notes":[{"note_id":"n1","time":null}]}`))
	})

	list, err := client.ListNotes("")
	require.NoError(t, err)
	assert.Nil(t, list.Notes[0].Time)
}

func TestListComments(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/xhs/notes/n%2F1/comments", r.URL.EscapedPath())
		q := r.URL.Query()
		assert.Equal(t, "50", q.Get("offset"))
		assert.Equal(t, "50", q.Get("limit"))
		assert.Equal(t, "time", q.Get("sort"))
		assert.Equal(t, "buy", q.Get("q"))
		writeJSON(w, map[string]any{
			"note_id": "n/1", "total": 120, "offset": 50, "limit": 50, "sort": "time", "q": "buy",
			"comments": []map[string]any{
				{"comment_id": "c1", "note_id": "n/1", "content": "where to buy", "like_count": "3", "create_time": nil},
			},
		})
	})

	page, err := client.ListComments("n/1", CommentQuery{Offset: 50, Limit: 50, Sort: SortTime, Q: "buy"})
	require.NoError(t, err)
	assert.Equal(t, 120, page.Total)
	require.Len(t, page.Comments, 1)
	assert.Nil(t, page.Comments[0].CreateTime)
}

func TestListCommentsValidation(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/api")
	cases := []struct {
		name  string
		note  string
		query CommentQuery
		field string
	}{
		{"missing note", "", CommentQuery{Limit: 10, Sort: SortLike}, "note_id"},
		{"negative offset", "n1", CommentQuery{Offset: -1, Limit: 10, Sort: SortLike}, "offset"},
		{"zero limit", "n1", CommentQuery{Limit: 0, Sort: SortLike}, "limit"},
		{"limit too large", "n1", CommentQuery{Limit: 501, Sort: SortLike}, "limit"},
		{"bad sort", "n1", CommentQuery{Limit: 10, Sort: "hot"}, "sort"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.ListComments(tc.note, tc.query)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestAnalyzeNote(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/xhs/notes/n1/analyze", r.URL.Path)
		assert.Equal(t, "500", r.URL.Query().Get("max_samples"))
		writeJSON(w, map[string]any{
			"note_id": "n1", "total_comments": 42, "top_comments": []any{},
			"intent_counts": map[string]int{"purchase": 5, "usage": 2},
			"generated_at":  "2026-03-04T05:06:07.000001",
		})
	})

	res, err := client.AnalyzeNote("n1", 500)
	require.NoError(t, err)
	assert.Equal(t, 42, res.TotalComments)
	assert.Equal(t, 5, res.IntentCounts["purchase"])
	assert.False(t, res.GeneratedAt.IsZero())
}

func TestAnalyzeNoteRejectsSampleSize(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/api")
	_, err := client.AnalyzeNote("n1", 10)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "max_samples", verr.Field)
}
