package demo

import (
	"context"
	"time"

	"github.com/vukan322/devactivity/internal/core"
)

// DemoProvider serves a fixed week of activity and a matching snapshot,
// relative to the clock it was built with.
type DemoProvider struct {
	now func() time.Time
}

func New(now func() time.Time) *DemoProvider {
	if now == nil {
		now = time.Now
	}
	return &DemoProvider{now: now}
}

func (d *DemoProvider) Name() string {
	return "demo"
}

var demoKinds = []string{"PushEvent", "PullRequestEvent", "IssuesEvent", "PushEvent", "WatchEvent", "IssueCommentEvent", "PushEvent"}

func (d *DemoProvider) FetchEvents(ctx context.Context, handle string) ([]core.ActivityRecord, error) {
	now := d.now().UTC()
	records := make([]core.ActivityRecord, 0, len(demoKinds))

	for i, kind := range demoKinds {
		r := core.ActivityRecord{
			Kind:       kind,
			OccurredAt: now.AddDate(0, 0, -i),
			Repository: handle + "/demo",
		}
		if kind == "PushEvent" {
			r.Commits = 3 + i
		}
		records = append(records, r)
	}

	return records, nil
}

// Load returns a year-long snapshot with activity on every weekday and a
// two-week run ending today.
func (d *DemoProvider) Load(ctx context.Context) (core.Snapshot, error) {
	today := core.DateOf(d.now())
	m := core.EmptyWindow(today, core.CalendarDays)

	for day := range m {
		if wd := day.Time().Weekday(); wd != time.Saturday && wd != time.Sunday {
			m[day] = 1 + day.Day%4
		}
	}
	for i := 0; i < 14; i++ {
		if m[today.AddDays(-i)] == 0 {
			m[today.AddDays(-i)] = 2
		}
	}

	return core.Snapshot{
		Map:                m,
		TotalContributions: core.Sum(m),
		From:               today.AddDays(-(core.CalendarDays - 1)),
		To:                 today,
	}, nil
}
