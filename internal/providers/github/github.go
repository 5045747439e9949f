package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/vukan322/devactivity/internal/core"
	"github.com/vukan322/devactivity/internal/providers"
)

const (
	defaultBaseURL   = "https://api.github.com"
	defaultUserAgent = "devactivity/0.1"
)

type Provider struct {
	client  *http.Client
	baseURL string
	token   string
	paging  providers.Paging
	logger  *zap.Logger
}

type Option func(*Provider)

func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

func New(token string, paging providers.Paging, opts ...Option) *Provider {
	p := &Provider{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,
		token:   token,
		paging:  paging,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return "github"
}

type githubEvent struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload struct {
		Commits []json.RawMessage `json:"commits"`
	} `json:"payload"`
}

// FetchEvents walks the public events feed of handle. A failed page ends
// the walk; the records gathered before it are returned with the failure.
func (p *Provider) FetchEvents(ctx context.Context, handle string) ([]core.ActivityRecord, error) {
	events, err := providers.Paginate(ctx, p.paging, func(ctx context.Context, page int) ([]githubEvent, error) {
		return p.fetchEventsPage(ctx, handle, page)
	})

	records := make([]core.ActivityRecord, 0, len(events))
	for _, e := range events {
		records = append(records, toRecord(e))
	}

	if err != nil {
		p.logger.Warn("github: events feed truncated",
			zap.String("handle", handle),
			zap.Int("records", len(records)),
			zap.Error(err))
		return records, asFailure(err)
	}

	p.logger.Debug("github: fetched events",
		zap.String("handle", handle),
		zap.Int("records", len(records)))

	return records, nil
}

func (p *Provider) fetchEventsPage(ctx context.Context, handle string, page int) ([]githubEvent, error) {
	endpoint := fmt.Sprintf("%s/users/%s/events/public?per_page=%d&page=%d",
		p.baseURL, url.PathEscape(handle), p.paging.PageSize, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, providers.Transport(p.Name(), fmt.Errorf("new request: %w", err))
	}
	p.applyHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, providers.Transport(p.Name(), fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, providers.Status(p.Name(), resp.StatusCode, endpoint)
	}

	var events []githubEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, providers.Shape(p.Name(), fmt.Errorf("decode events response: %w", err))
	}

	return events, nil
}

func (p *Provider) applyHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", defaultUserAgent)
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
}

func toRecord(e githubEvent) core.ActivityRecord {
	return core.ActivityRecord{
		Kind:       e.Type,
		OccurredAt: e.CreatedAt,
		Repository: e.Repo.Name,
		Commits:    len(e.Payload.Commits),
	}
}

func asFailure(err error) error {
	if _, ok := providers.KindOf(err); ok {
		return err
	}
	return providers.Transport("github", err)
}
