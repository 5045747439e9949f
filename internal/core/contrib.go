package core

import "sort"

// CalendarDays is the length of the trailing contribution window.
const CalendarDays = 365

// EmptyWindow returns a zero-filled map of the days-long window ending at
// today inclusive.
func EmptyWindow(today Date, days int) ContributionMap {
	m := make(ContributionMap, days)
	for i := 0; i < days; i++ {
		m[today.AddDays(-i)] = 0
	}
	return m
}

// FoldWindow adds every activity that falls inside the window onto a
// zero-filled map of that window.
func FoldWindow(activities []DailyActivity, today Date, days int) ContributionMap {
	m := EmptyWindow(today, days)
	for _, a := range activities {
		if _, ok := m[a.Date]; ok {
			m[a.Date] += a.Count
		}
	}
	return m
}

// Project restricts m to the window, filling days it lacks with zero.
func Project(m ContributionMap, today Date, days int) ContributionMap {
	out := EmptyWindow(today, days)
	for d := range out {
		if c := m[d]; c > 0 {
			out[d] = c
		}
	}
	return out
}

// ActiveDates returns the dates with a positive count, ascending.
func ActiveDates(m ContributionMap) []Date {
	dates := make([]Date, 0, len(m))
	for d, c := range m {
		if c > 0 {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}

func ActiveDays(m ContributionMap) int {
	n := 0
	for _, c := range m {
		if c > 0 {
			n++
		}
	}
	return n
}

func Sum(m ContributionMap) int {
	total := 0
	for _, c := range m {
		if c > 0 {
			total += c
		}
	}
	return total
}

// SortedDates returns every key of m, ascending.
func SortedDates(m ContributionMap) []Date {
	dates := make([]Date, 0, len(m))
	for d := range m {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}
