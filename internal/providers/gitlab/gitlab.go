package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vukan322/devactivity/internal/core"
	"github.com/vukan322/devactivity/internal/providers"
)

const defaultBaseURL = "https://gitlab.com/api/v4"

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
	return "gitlab"
}

type gitlabUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type gitlabProject struct {
	ID                int    `json:"id"`
	PathWithNamespace string `json:"path_with_namespace"`
}

type gitlabEvent struct {
	ActionName string    `json:"action_name"`
	TargetType string    `json:"target_type"`
	CreatedAt  time.Time `json:"created_at"`
	ProjectID  int       `json:"project_id"`
	PushData   *struct {
		CommitCount int `json:"commit_count"`
	} `json:"push_data"`
}

// FetchEvents reads the user's event feed and translates it into the same
// event kinds the GitHub feed produces.
func (p *Provider) FetchEvents(ctx context.Context, handle string) ([]core.ActivityRecord, error) {
	user, err := p.fetchUser(ctx, handle)
	if err != nil {
		p.logger.Warn("gitlab: user lookup failed", zap.String("handle", handle), zap.Error(err))
		return nil, err
	}

	names, err := p.projectNames(ctx, user.ID)
	if err != nil {
		p.logger.Warn("gitlab: project names unavailable", zap.Int("user", user.ID), zap.Error(err))
	}

	events, err := providers.Paginate(ctx, p.paging, func(ctx context.Context, page int) ([]gitlabEvent, error) {
		endpoint := fmt.Sprintf("%s/users/%d/events?per_page=%d&page=%d", p.baseURL, user.ID, p.paging.PageSize, page)
		var out []gitlabEvent
		if err := p.getJSON(ctx, endpoint, &out); err != nil {
			return nil, err
		}
		return out, nil
	})

	records := make([]core.ActivityRecord, 0, len(events))
	for _, e := range events {
		records = append(records, toRecord(e, names))
	}

	if err != nil {
		p.logger.Warn("gitlab: events feed truncated",
			zap.String("handle", handle),
			zap.Int("records", len(records)),
			zap.Error(err))
		if _, ok := providers.KindOf(err); !ok {
			err = providers.Transport(p.Name(), err)
		}
		return records, err
	}

	return records, nil
}

func toRecord(e gitlabEvent, names map[int]string) core.ActivityRecord {
	r := core.ActivityRecord{
		Kind:       eventKind(e),
		OccurredAt: e.CreatedAt,
	}
	if e.ProjectID != 0 {
		r.Repository = names[e.ProjectID]
		if r.Repository == "" {
			r.Repository = fmt.Sprintf("gitlab/%d", e.ProjectID)
		}
	}
	if e.PushData != nil {
		r.Commits = e.PushData.CommitCount
	}
	return r
}

func eventKind(e gitlabEvent) string {
	if strings.HasPrefix(e.ActionName, "pushed") {
		return "PushEvent"
	}
	switch e.TargetType {
	case "MergeRequest":
		return "PullRequestEvent"
	case "Issue":
		return "IssuesEvent"
	case "Note", "DiffNote", "DiscussionNote":
		return "IssueCommentEvent"
	}
	if e.ActionName == "created" && e.TargetType == "" {
		return "CreateEvent"
	}
	return "gitlab:" + e.ActionName
}

func (p *Provider) fetchUser(ctx context.Context, handle string) (*gitlabUser, error) {
	endpoint := fmt.Sprintf("%s/users?username=%s", p.baseURL, url.QueryEscape(handle))

	var users []gitlabUser
	if err := p.getJSON(ctx, endpoint, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, &providers.FetchFailure{
			Source: p.Name(),
			Kind:   providers.FailureStatus,
			Status: http.StatusNotFound,
			Err:    fmt.Errorf("user %q not found", handle),
		}
	}
	return &users[0], nil
}

func (p *Provider) projectNames(ctx context.Context, userID int) (map[int]string, error) {
	projects, err := providers.Paginate(ctx, p.paging, func(ctx context.Context, page int) ([]gitlabProject, error) {
		endpoint := fmt.Sprintf(
			"%s/users/%d/projects?per_page=%d&page=%d&simple=true&order_by=last_activity_at&sort=desc",
			p.baseURL, userID, p.paging.PageSize, page,
		)
		var out []gitlabProject
		if err := p.getJSON(ctx, endpoint, &out); err != nil {
			return nil, err
		}
		return out, nil
	})

	names := make(map[int]string, len(projects))
	for _, pr := range projects {
		names[pr.ID] = pr.PathWithNamespace
	}
	return names, err
}

func (p *Provider) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return providers.Transport(p.Name(), fmt.Errorf("new request: %w", err))
	}
	p.applyAuth(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return providers.Transport(p.Name(), fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return providers.Status(p.Name(), resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return providers.Shape(p.Name(), fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (p *Provider) applyAuth(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if p.token != "" {
		req.Header.Set("PRIVATE-TOKEN", p.token)
	}
}
