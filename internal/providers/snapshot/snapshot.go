// Package snapshot loads the pre-computed contribution artifact deposited by
// an out-of-band build step.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vukan322/devactivity/internal/core"
	"github.com/vukan322/devactivity/internal/providers"
)

const DefaultLocation = "data/contributions.json"

type Loader struct {
	client   *http.Client
	location string
	logger   *zap.Logger
}

type Option func(*Loader)

func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

func WithLogger(lg *zap.Logger) Option {
	return func(l *Loader) { l.logger = lg }
}

// New returns a loader for location, which is either an http(s) URL or a
// local file path.
func New(location string, opts ...Option) *Loader {
	if location == "" {
		location = DefaultLocation
	}
	l := &Loader{
		client:   &http.Client{Timeout: 10 * time.Second},
		location: location,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) Name() string {
	return "snapshot"
}

func (l *Loader) Location() string {
	return l.location
}

// IsRemote reports whether the artifact is fetched over HTTP.
func (l *Loader) IsRemote() bool {
	return strings.HasPrefix(l.location, "http://") || strings.HasPrefix(l.location, "https://")
}

type document struct {
	Success            bool `json:"success"`
	TotalContributions int  `json:"totalContributions"`
	DateRange          struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"dateRange"`
	ContributionMap map[string]int `json:"contributionMap"`
}

// Load reads and validates the artifact. Every failure is a
// *providers.FetchFailure. An empty contribution map is not a failure.
func (l *Loader) Load(ctx context.Context) (core.Snapshot, error) {
	data, err := l.read(ctx)
	if err != nil {
		l.logger.Warn("snapshot: unavailable", zap.String("location", l.location), zap.Error(err))
		return core.Snapshot{}, err
	}

	snap, err := Decode(data)
	if err != nil {
		f := providers.Shape(l.Name(), err)
		l.logger.Warn("snapshot: rejected", zap.String("location", l.location), zap.Error(f))
		return core.Snapshot{}, f
	}

	l.logger.Debug("snapshot: loaded",
		zap.String("location", l.location),
		zap.Int("days", len(snap.Map)),
		zap.Int("total", snap.TotalContributions))

	return snap, nil
}

func (l *Loader) read(ctx context.Context) ([]byte, error) {
	if !l.IsRemote() {
		if err := ctx.Err(); err != nil {
			return nil, providers.Transport(l.Name(), err)
		}
		data, err := os.ReadFile(l.location)
		if err != nil {
			return nil, providers.Transport(l.Name(), fmt.Errorf("read file: %w", err))
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.location, nil)
	if err != nil {
		return nil, providers.Transport(l.Name(), fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, providers.Transport(l.Name(), fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, providers.Status(l.Name(), resp.StatusCode, l.location)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.Transport(l.Name(), fmt.Errorf("read body: %w", err))
	}
	return data, nil
}

// Decode parses and validates a snapshot document.
func Decode(data []byte) (core.Snapshot, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	if !doc.Success {
		return core.Snapshot{}, errors.New("snapshot declares success=false")
	}
	if doc.ContributionMap == nil {
		return core.Snapshot{}, errors.New("snapshot has no contributionMap")
	}

	m := make(core.ContributionMap, len(doc.ContributionMap))
	for key, count := range doc.ContributionMap {
		d, err := core.ParseDate(key)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("contributionMap key: %w", err)
		}
		if count < 0 {
			return core.Snapshot{}, fmt.Errorf("contributionMap %s: negative count %d", key, count)
		}
		m[d] = count
	}

	snap := core.Snapshot{
		Map:                m,
		TotalContributions: doc.TotalContributions,
	}
	// The date range is informational; a malformed one does not void the map.
	if from, err := core.ParseDate(doc.DateRange.From); err == nil {
		snap.From = from
	}
	if to, err := core.ParseDate(doc.DateRange.To); err == nil {
		snap.To = to
	}

	return snap, nil
}
