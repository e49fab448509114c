// This file implements date advancement for recurring transaction templates.
// Each period type (daily, weekly, monthly, yearly) has its own advancer
// that encapsulates the step logic, including end-of-month clamping.

package core

import (
	"fmt"
	"time"
)

// Advancer is the strategy interface for stepping a template's next execution
// date forward by one period. The step is computed from the stored date, never
// from the wall clock, so a late firing does not drift the schedule.
type Advancer interface {
	// Advance returns the next due date strictly after d.
	Advance(d Date) Date
}

// DailyAdvancer steps the date forward by one day.
type DailyAdvancer struct{}

func (DailyAdvancer) Advance(d Date) Date {
	return Date{Time: d.AddDate(0, 0, 1)}
}

// WeeklyAdvancer steps the date forward by seven days.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Advance(d Date) Date {
	return Date{Time: d.AddDate(0, 0, 7)}
}

// MonthlyAdvancer steps to the same day of the following month, clamped to
// the last valid day when the target month is shorter (Jan 31 -> Feb 28/29).
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Advance(d Date) Date {
	return addMonthsClamped(d, 1)
}

// YearlyAdvancer steps to the same month and day of the following year,
// clamped for Feb 29 on non-leap years.
type YearlyAdvancer struct{}

func (YearlyAdvancer) Advance(d Date) Date {
	return addMonthsClamped(d, 12)
}

// addMonthsClamped adds months to d without the rollover behavior of
// time.AddDate: when the source day does not exist in the target month the
// result is the last day of that month instead of spilling into the next.
func addMonthsClamped(d Date, months int) Date {
	year, month, day := d.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, d.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return Date{Time: time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, d.Location())}
}

// advancers maps period types to their corresponding strategies.
var advancers = map[RecurringPeriod]Advancer{
	Daily:   DailyAdvancer{},
	Weekly:  WeeklyAdvancer{},
	Monthly: MonthlyAdvancer{},
	Yearly:  YearlyAdvancer{},
}

// GetAdvancer returns the advancer for a recurring period.
// Returns an error if the period is not supported.
func GetAdvancer(period RecurringPeriod) (Advancer, error) {
	adv, ok := advancers[period]
	if !ok {
		return nil, fmt.Errorf("unknown recurring period: %s", period)
	}
	return adv, nil
}

// NextAfter advances d by one unit of period. It is the single entry point
// the scheduler uses when a template fires.
func NextAfter(d Date, period RecurringPeriod) (Date, error) {
	adv, err := GetAdvancer(period)
	if err != nil {
		return Date{}, err
	}
	return adv.Advance(d), nil
}

// OccursOn reports whether a recurrence anchored at anchor lands on day.
// The anchor itself counts; days before it never match. Monthly and yearly
// recurrences follow the same end-of-month clamping as the advancers, so an
// anchor on Jan 31 occurs on Feb 28 in a non-leap year.
func OccursOn(anchor Date, period RecurringPeriod, day Date) bool {
	if day.Before(anchor.Time) {
		return false
	}
	switch period {
	case Daily:
		return true
	case Weekly:
		return anchor.Weekday() == day.Weekday()
	case Monthly:
		return day.Day() == clampDay(anchor.Day(), day)
	case Yearly:
		return day.Month() == anchor.Month() && day.Day() == clampDay(anchor.Day(), day)
	}
	return false
}

// clampDay maps the anchor's day-of-month into the month of day, clamping to
// its last valid day.
func clampDay(anchorDay int, day Date) int {
	lastDay := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location()).
		AddDate(0, 1, -1).Day()
	if anchorDay > lastDay {
		return lastDay
	}
	return anchorDay
}
