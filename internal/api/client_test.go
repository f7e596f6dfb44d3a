package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKBID = "5b0f7f5e-2f47-4c1b-9a57-1a7f0c2d9e11"

func testServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL + "/api")
	return srv, client
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func TestListKnowledgeBases(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/kbs", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(w, []map[string]any{
			{"id": testKBID, "slug": "default", "name": "Default", "description": "", "published_version": 3},
		})
	})

	kbs, err := client.ListKnowledgeBases()
	require.NoError(t, err)
	require.Len(t, kbs, 1)
	assert.Equal(t, testKBID, kbs[0].ID)
	assert.Equal(t, 3, kbs[0].PublishedVersion)
}

func TestRemoteErrorCarriesStatusAndBody(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"kb_not_found"}`))
	})

	_, err := client.PublishKnowledgeBase(testKBID)
	require.Error(t, err)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusNotFound, remote.StatusCode)
	assert.Equal(t, `{"detail":"kb_not_found"}`, remote.Body)
	assert.Equal(t, "kb_not_found", remote.Detail())
	assert.Equal(t, `404 {"detail":"kb_not_found"}`, err.Error())
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestRemoteErrorPlainTextBody(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := client.ListKnowledgeBases()
	require.Error(t, err)
	assert.Equal(t, "502 upstream down", err.Error())

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "upstream down", remote.Detail())
}

func TestRemoteErrorValidationDetailList(t *testing.T) {
	remote := &RemoteError{
		StatusCode: http.StatusUnprocessableEntity,
		Body:       `{"detail":[{"loc":["body","query"],"msg":"field required"}]}`,
	}
	assert.Equal(t, "field required", remote.Detail())
}

func TestStatusCodeForTransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/api", 200*time.Millisecond)
	_, err := client.ListKnowledgeBases()
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.Contains(t, err.Error(), "request failed")
}

func TestClientHandlesMalformedJSON(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not-json"))
	})

	_, err := client.ListKnowledgeBases()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestBuildQuery(t *testing.T) {
	result := buildQuery("/xhs/notes/n1/comments", QueryParams{"offset": "0", "sort": "like", "q": ""})
	assert.Contains(t, result, "/xhs/notes/n1/comments?")
	assert.Contains(t, result, "offset=0")
	assert.Contains(t, result, "sort=like")
	assert.NotContains(t, result, "q=")
}

func TestBuildQueryEmpty(t *testing.T) {
	assert.Equal(t, "/xhs/notes", buildQuery("/xhs/notes", nil))
	assert.Equal(t, "/xhs/notes", buildQuery("/xhs/notes", QueryParams{"q": ""}))
}

func TestJoinURLTrimsSlashes(t *testing.T) {
	assert.Equal(t, "http://x/api/kbs", joinURL("http://x/api/", "/kbs"))
	assert.Equal(t, "http://x/api/kbs", joinURL("http://x/api", "kbs"))
}

func TestNewClientDefaultsToNoTimeout(t *testing.T) {
	client := NewClient("http://example.com/api")
	assert.Equal(t, time.Duration(0), client.httpClient.Timeout)

	custom := NewClient("http://example.com/api", 5*time.Second)
	assert.Equal(t, 5*time.Second, custom.httpClient.Timeout)
	assert.Equal(t, "http://example.com/api", custom.BaseURL())
}

func TestNewDefaultClientUsesDefaultBaseURL(t *testing.T) {
	client := NewDefaultClient()
	assert.Equal(t, DefaultBaseURL, client.BaseURL())
}

func TestClientConcurrentRequests(t *testing.T) {
	var count atomic.Int32
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		writeJSON(w, map[string]any{
			"note_id": "n1", "total": 1, "offset": 0, "limit": 20, "sort": "like", "q": "",
			"comments": []map[string]any{{"comment_id": "c1", "note_id": "n1", "content": "hi"}},
		})
	})

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := client.ListComments(fmt.Sprintf("n-%d", idx), CommentQuery{Limit: 20, Sort: SortLike})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(workers), count.Load())
}
