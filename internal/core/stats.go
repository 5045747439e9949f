package core

import "time"

// ActivityRecord is one raw event from an upstream feed.
type ActivityRecord struct {
	Kind       string
	OccurredAt time.Time
	Repository string
	// Commits is the number of sub-commits carried by a push, 0 when absent.
	Commits int
}

type ActivityType int

const (
	Commit ActivityType = iota
	PullRequest
	Issue
	RepositoryEvent
	Other
)

func (t ActivityType) String() string {
	switch t {
	case Commit:
		return "commit"
	case PullRequest:
		return "pull_request"
	case Issue:
		return "issue"
	case RepositoryEvent:
		return "repository"
	default:
		return "other"
	}
}

func (t ActivityType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// DailyActivity is the aggregate of all records of one type on one day.
type DailyActivity struct {
	Date         Date         `json:"date"`
	Type         ActivityType `json:"type"`
	Count        int          `json:"count"`
	Repositories []string     `json:"repositories"`
}

type ContributionMap map[Date]int

type Snapshot struct {
	Map                ContributionMap
	TotalContributions int
	From               Date
	To                 Date
}

type AggregateStats struct {
	TotalContributions int             `json:"totalContributions"`
	TotalCommits       int             `json:"totalCommits"`
	TotalPRs           int             `json:"totalPRs"`
	TotalIssues        int             `json:"totalIssues"`
	TotalRepos         int             `json:"totalRepos"`
	ActiveDays         int             `json:"activeDays"`
	CurrentStreak      int             `json:"currentStreak"`
	LongestStreak      int             `json:"longestStreak"`
	RecentActivity     []DailyActivity `json:"recentActivity"`
}
