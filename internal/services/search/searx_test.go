package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/curator/internal/common"
)

func TestSearch_ReturnsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "golang concurrency", q.Get("q"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "zh-CN", q.Get("language"))
		assert.Equal(t, "general", q.Get("categories"))

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "First", "content": "snippet one"},
				{"title": "Second", "content": "snippet two"},
			},
		})
	}))
	defer server.Close()

	svc := NewSearxService(&common.SearchConfig{BaseURL: server.URL, Language: "zh-CN"})
	results, err := svc.Search(context.Background(), "golang concurrency", []string{"general"}, "zh-CN")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "First", results[0].Title)
	assert.Equal(t, "snippet two", results[1].Content)
}

func TestSearch_RetriesThenFails(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewSearxService(&common.SearchConfig{BaseURL: server.URL, MaxRetries: 3})
	results, err := svc.Search(context.Background(), "x", nil, "")
	require.Error(t, err)
	assert.Nil(t, results)
	assert.Equal(t, 3, calls)
}

func TestSearch_RecoversOnRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{{"title": "ok", "content": "c"}},
		})
	}))
	defer server.Close()

	svc := NewSearxService(&common.SearchConfig{BaseURL: server.URL, MaxRetries: 2})
	results, err := svc.Search(context.Background(), "x", nil, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, calls)
}
