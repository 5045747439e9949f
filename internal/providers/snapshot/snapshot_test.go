package snapshot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vukan322/devactivity/internal/core"
	"github.com/vukan322/devactivity/internal/providers"
)

const validDoc = `{
	"success": true,
	"totalContributions": 7,
	"dateRange": {"from": "2023-03-16", "to": "2024-03-15"},
	"contributionMap": {"2024-03-14": 3, "2024-03-15": 4, "2024-03-13": 0}
}`

func date(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestDecode(t *testing.T) {
	snap, err := Decode([]byte(validDoc))

	require.NoError(t, err)
	assert.Equal(t, 7, snap.TotalContributions)
	assert.Equal(t, date(t, "2023-03-16"), snap.From)
	assert.Equal(t, date(t, "2024-03-15"), snap.To)
	assert.Equal(t, core.ContributionMap{
		date(t, "2024-03-13"): 0,
		date(t, "2024-03-14"): 3,
		date(t, "2024-03-15"): 4,
	}, snap.Map)
}

func TestDecode_EmptyMapIsNotAFailure(t *testing.T) {
	snap, err := Decode([]byte(`{"success": true, "totalContributions": 0, "contributionMap": {}}`))

	require.NoError(t, err)
	assert.NotNil(t, snap.Map)
	assert.Empty(t, snap.Map)
}

func TestDecode_Rejects(t *testing.T) {
	tests := map[string]string{
		"not json":        `<html>`,
		"success false":   `{"success": false, "contributionMap": {"2024-03-15": 1}}`,
		"missing success": `{"contributionMap": {"2024-03-15": 1}}`,
		"null map":        `{"success": true, "contributionMap": null}`,
		"missing map":     `{"success": true, "totalContributions": 3}`,
		"bad date key":    `{"success": true, "contributionMap": {"15/03/2024": 1}}`,
		"negative count":  `{"success": true, "contributionMap": {"2024-03-15": -1}}`,
		"string count":    `{"success": true, "contributionMap": {"2024-03-15": "1"}}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, validDoc)
	}))
	defer srv.Close()

	l := New(srv.URL + "/data/contributions.json")
	require.True(t, l.IsRemote())

	snap, err := l.Load(context.Background())

	require.NoError(t, err)
	assert.Len(t, snap.Map, 3)
}

func TestLoad_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Load(context.Background())

	kind, ok := providers.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, providers.FailureStatus, kind)
}

func TestLoad_ShapeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": false}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Load(context.Background())

	kind, ok := providers.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, providers.FailureShape, kind)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contributions.json")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0o644))

	l := New(path)
	require.False(t, l.IsRemote())

	snap, err := l.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, snap.Map[date(t, "2024-03-15")])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.json")).Load(context.Background())

	kind, ok := providers.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, providers.FailureTransport, kind)
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(filepath.Join(t.TempDir(), "contributions.json")).Load(ctx)

	kind, ok := providers.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, providers.FailureCanceled, kind)
}

func TestNew_DefaultLocation(t *testing.T) {
	assert.Equal(t, DefaultLocation, New("").Location())
}
