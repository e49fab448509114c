package core

import (
	"strconv"
	"time"
)

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeYearly  Timeframe = "yearly"
)

type (
	Timeframe string

	// BucketStat is one row of a statistics response: the bucket label with
	// income and expense sums for the transactions assigned to it.
	BucketStat struct {
		Label   string
		Income  Money
		Expense Money
	}

	// Statistics is the ordered, pre-seeded bucket set for a timeframe plus
	// grand totals across all buckets.
	Statistics struct {
		Timeframe    Timeframe
		Buckets      []BucketStat
		TotalIncome  Money
		TotalExpense Money
	}

	// Totals is the all-time income/expense summary for a user.
	Totals struct {
		Income  Money
		Expense Money
	}
)

func (tf Timeframe) Valid() bool {
	switch tf {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly, TimeframeYearly:
		return true
	}
	return false
}

var weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var weekLabels = []string{"1st Week", "2nd Week", "3rd Week", "4th Week"}

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// LookbackStart returns the inclusive lower bound of the window considered
// for a timeframe, anchored to now: 7 days, 1 month, 1 year, 5 years.
func LookbackStart(tf Timeframe, now time.Time) time.Time {
	switch tf {
	case TimeframeDaily:
		return now.AddDate(0, 0, -7)
	case TimeframeWeekly:
		return now.AddDate(0, -1, 0)
	case TimeframeMonthly:
		return now.AddDate(-1, 0, 0)
	case TimeframeYearly:
		return now.AddDate(-5, 0, 0)
	}
	return now
}

// SeedBuckets returns the fixed, ordered bucket set for a timeframe with all
// sums zeroed. Buckets exist whether or not any transaction lands in them.
func SeedBuckets(tf Timeframe, now time.Time) []BucketStat {
	var labels []string
	switch tf {
	case TimeframeDaily:
		labels = weekdayLabels
	case TimeframeWeekly:
		labels = weekLabels
	case TimeframeMonthly:
		labels = monthLabels
	case TimeframeYearly:
		labels = make([]string, 5)
		for i := 0; i < 5; i++ {
			labels[i] = strconv.Itoa(now.Year() - 4 + i)
		}
	}
	buckets := make([]BucketStat, len(labels))
	for i, l := range labels {
		buckets[i] = BucketStat{Label: l}
	}
	return buckets
}

// BucketIndex assigns a transaction date to a bucket by its own calendar
// meaning: day of week, day-of-month quartile, calendar month, or calendar
// year. Returns -1 when the date falls outside every bucket for the
// timeframe (days 29-31 have no week bucket; years older than the seeded
// five are unassignable).
func BucketIndex(tf Timeframe, date time.Time, now time.Time) int {
	switch tf {
	case TimeframeDaily:
		// time.Weekday counts from Sunday; the bucket order starts on Monday.
		wd := int(date.Weekday())
		return (wd + 6) % 7
	case TimeframeWeekly:
		idx := (date.Day() - 1) / 7
		if idx > 3 {
			return -1
		}
		return idx
	case TimeframeMonthly:
		return int(date.Month()) - 1
	case TimeframeYearly:
		idx := date.Year() - (now.Year() - 4)
		if idx < 0 || idx > 4 {
			return -1
		}
		return idx
	}
	return -1
}
