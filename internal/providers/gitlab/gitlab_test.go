package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vukan322/devactivity/internal/core"
	"github.com/vukan322/devactivity/internal/providers"
)

func newServer(t *testing.T, eventsStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "jdoe", r.URL.Query().Get("username"))
		assert.Equal(t, "tok", r.Header.Get("PRIVATE-TOKEN"))
		fmt.Fprint(w, `[{"id": 42, "username": "jdoe"}]`)
	})
	mux.HandleFunc("/users/42/projects", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 7, "path_with_namespace": "jdoe/tool"}]`)
	})
	mux.HandleFunc("/users/42/events", func(w http.ResponseWriter, r *http.Request) {
		if eventsStatus != http.StatusOK {
			w.WriteHeader(eventsStatus)
			return
		}
		fmt.Fprint(w, `[
			{"action_name":"pushed to","created_at":"2024-03-15T10:00:00Z","project_id":7,"push_data":{"commit_count":3}},
			{"action_name":"opened","target_type":"MergeRequest","created_at":"2024-03-15T11:00:00Z","project_id":7},
			{"action_name":"closed","target_type":"Issue","created_at":"2024-03-14T11:00:00Z","project_id":9},
			{"action_name":"commented on","target_type":"DiffNote","created_at":"2024-03-14T12:00:00Z","project_id":7},
			{"action_name":"created","created_at":"2024-03-13T12:00:00Z","project_id":7},
			{"action_name":"joined","created_at":"2024-03-12T12:00:00Z","project_id":7}
		]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchEvents(t *testing.T) {
	srv := newServer(t, http.StatusOK)
	p := New("tok", providers.Paging{PageSize: 100, MaxPages: 3}, WithBaseURL(srv.URL))

	got, err := p.FetchEvents(context.Background(), "jdoe")

	require.NoError(t, err)
	require.Len(t, got, 6)

	kinds := make([]string, len(got))
	for i, r := range got {
		kinds[i] = r.Kind
	}
	assert.Equal(t, []string{
		"PushEvent", "PullRequestEvent", "IssuesEvent", "IssueCommentEvent", "CreateEvent", "gitlab:joined",
	}, kinds)

	assert.Equal(t, 3, got[0].Commits)
	assert.Equal(t, "jdoe/tool", got[0].Repository)
	assert.Equal(t, "gitlab/9", got[2].Repository)
	assert.Equal(t, core.Other, core.Classify(got[5].Kind))
}

func TestFetchEvents_RateLimited(t *testing.T) {
	srv := newServer(t, http.StatusTooManyRequests)
	p := New("tok", providers.Paging{PageSize: 100, MaxPages: 3}, WithBaseURL(srv.URL))

	got, err := p.FetchEvents(context.Background(), "jdoe")

	assert.Empty(t, got)
	kind, ok := providers.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, providers.FailureRateLimited, kind)
}

func TestFetchEvents_UnknownUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	p := New("", providers.Paging{PageSize: 100, MaxPages: 3}, WithBaseURL(srv.URL))
	_, err := p.FetchEvents(context.Background(), "nobody")

	kind, ok := providers.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, providers.FailureStatus, kind)
}
