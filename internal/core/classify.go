package core

import (
	"sort"
)

var kindTypes = map[string]ActivityType{
	"PushEvent":         Commit,
	"PullRequestEvent":  PullRequest,
	"IssuesEvent":       Issue,
	"IssueCommentEvent": Issue,
	"CreateEvent":       RepositoryEvent,
	"ForkEvent":         RepositoryEvent,
	"WatchEvent":        RepositoryEvent,
}

// Classify maps an upstream event kind to its ActivityType. Unknown kinds
// are Other.
func Classify(kind string) ActivityType {
	if t, ok := kindTypes[kind]; ok {
		return t
	}
	return Other
}

func weight(r ActivityRecord, t ActivityType) int {
	if t == Commit && r.Commits > 1 {
		return r.Commits
	}
	return 1
}

type dayKey struct {
	date Date
	typ  ActivityType
}

// Aggregate groups records by UTC day and type. The result is ordered by
// date descending, then by type.
func Aggregate(records []ActivityRecord) []DailyActivity {
	groups := make(map[dayKey]*DailyActivity)
	repos := make(map[dayKey]map[string]struct{})

	for _, r := range records {
		t := Classify(r.Kind)
		k := dayKey{date: DateOf(r.OccurredAt), typ: t}

		g, ok := groups[k]
		if !ok {
			g = &DailyActivity{Date: k.date, Type: t}
			groups[k] = g
			repos[k] = make(map[string]struct{})
		}
		g.Count += weight(r, t)

		if r.Repository != "" {
			repos[k][r.Repository] = struct{}{}
		}
	}

	result := make([]DailyActivity, 0, len(groups))
	for k, g := range groups {
		names := make([]string, 0, len(repos[k]))
		for name := range repos[k] {
			names = append(names, name)
		}
		sort.Strings(names)
		g.Repositories = names
		result = append(result, *g)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].Type < result[j].Type
	})

	return result
}

// Totals sums counts per category and counts distinct repositories across
// all activities.
func Totals(activities []DailyActivity) (commits, prs, issues, repos int) {
	seen := make(map[string]struct{})
	for _, a := range activities {
		switch a.Type {
		case Commit:
			commits += a.Count
		case PullRequest:
			prs += a.Count
		case Issue:
			issues += a.Count
		}
		for _, name := range a.Repositories {
			seen[name] = struct{}{}
		}
	}
	return commits, prs, issues, len(seen)
}

// DistinctDays counts the calendar days that carry at least one activity.
func DistinctDays(activities []DailyActivity) int {
	days := make(map[Date]struct{})
	for _, a := range activities {
		days[a.Date] = struct{}{}
	}
	return len(days)
}
