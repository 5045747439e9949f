package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Flags are package globals; reset the ones tests vary.
	user, feedName, demoMode, output, format = "", "github", false, "", "json"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReconcileDemoJSON(t *testing.T) {
	out, err := execute(t, "reconcile", "--demo", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Handle  string `json:"handle"`
		Sources struct {
			Snapshot string `json:"snapshot"`
			Live     string `json:"live"`
		} `json:"sources"`
		Stats struct {
			TotalCommits  int `json:"totalCommits"`
			CurrentStreak int `json:"currentStreak"`
		} `json:"stats"`
		Calendar map[string]int `json:"calendar"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "demo", doc.Handle)
	assert.Equal(t, "used", doc.Sources.Snapshot)
	assert.Equal(t, "complete", doc.Sources.Live)
	assert.Equal(t, 18, doc.Stats.TotalCommits)
	assert.GreaterOrEqual(t, doc.Stats.CurrentStreak, 14)
	assert.Len(t, doc.Calendar, 365)
}

func TestReconcileDemoTextToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.txt")

	_, err := execute(t, "reconcile", "--demo", "--format", "text", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "devactivity: demo ("))
}

func TestCalendarDemo(t *testing.T) {
	out, err := execute(t, "calendar", "--demo")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 365)
}

func TestReconcileRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "reconcile", "--demo", "--format", "xml")
	assert.Error(t, err)
}

func TestReconcileRequiresUser(t *testing.T) {
	t.Setenv("DEV_ACTIVITY_USER", "")

	_, err := execute(t, "reconcile")
	assert.ErrorContains(t, err, "--user")
}

func TestWatchRequiresLocalSnapshot(t *testing.T) {
	t.Setenv("DEV_ACTIVITY_SNAPSHOT", "https://example.com/data/contributions.json")

	_, err := execute(t, "watch", "--user", "octocat")
	assert.ErrorContains(t, err, "local snapshot file")
}
