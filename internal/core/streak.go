package core

// ComputeStreaks returns the current and longest runs of consecutive active
// days in contribs. The current run ends at today, or at yesterday when
// today has no activity yet.
func ComputeStreaks(contribs ContributionMap, today Date) (int, int) {
	dates := ActiveDates(contribs)
	if len(dates) == 0 {
		return 0, 0
	}

	return currentStreak(contribs, today), longestStreak(dates)
}

func currentStreak(contribs ContributionMap, today Date) int {
	start := today
	if contribs[start] <= 0 {
		start = today.AddDays(-1)
	}

	current := 0
	for d := start; contribs[d] > 0; d = d.AddDays(-1) {
		current++
	}
	return current
}

// longestStreak expects dates ascending and unique.
func longestStreak(dates []Date) int {
	longest, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if dates[i].DaysSince(dates[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
