package core

// LiveStats builds the statistics the live feed alone supports. Streaks are
// computed over the live activities folded onto the calendar window.
func LiveStats(records []ActivityRecord, today Date) AggregateStats {
	activities := Aggregate(records)
	commits, prs, issues, repos := Totals(activities)

	current, longest := ComputeStreaks(FoldWindow(activities, today, CalendarDays), today)

	return AggregateStats{
		TotalContributions: commits + prs + issues,
		TotalCommits:       commits,
		TotalPRs:           prs,
		TotalIssues:        issues,
		TotalRepos:         repos,
		ActiveDays:         DistinctDays(activities),
		CurrentStreak:      current,
		LongestStreak:      longest,
		RecentActivity:     activities,
	}
}

// MergeStats overrides the day-level fields of live with values computed
// from the snapshot map. Category totals and recent activity stay live,
// since the snapshot carries no breakdown.
func MergeStats(live AggregateStats, snapshot ContributionMap, today Date) AggregateStats {
	merged := live

	merged.TotalContributions = Sum(snapshot)
	merged.ActiveDays = ActiveDays(snapshot)
	merged.CurrentStreak, merged.LongestStreak = ComputeStreaks(snapshot, today)

	return merged
}
