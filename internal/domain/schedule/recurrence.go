package schedule

import (
	"time"

	"github.com/moneta/backend/internal/domain/shared"
)

// Frequency represents how often a scheduled transaction repeats
type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// RecurrenceRule describes how a scheduled transaction repeats.
// The rule is embedded in the scheduled transaction row.
type RecurrenceRule struct {
	Frequency Frequency `gorm:"type:varchar(10);not null;default:'once'" json:"frequency"`
	// Interval is the number of periods between occurrences (every N days,
	// weeks, months or years). Must be >= 1 for repeating frequencies.
	Interval int `gorm:"not null;default:1" json:"interval"`
	// DayOfMonth anchors monthly and yearly rules (1..31). Days beyond the
	// target month's length clamp to its last day. Zero means the first due
	// date's day is taken as the anchor.
	DayOfMonth int `gorm:"not null;default:0" json:"day_of_month,omitempty"`
	// DayOfWeek anchors weekly rules (0=Sunday .. 6=Saturday). Zero means
	// the first due date's weekday is taken as the anchor.
	DayOfWeek int `gorm:"not null;default:0" json:"day_of_week,omitempty"`
	// MonthOfYear anchors yearly rules (1..12). Zero means the first due
	// date's month is taken as the anchor.
	MonthOfYear int `gorm:"not null;default:0" json:"month_of_year,omitempty"`
}

// OnceRule returns a rule for a one-time scheduled transaction
func OnceRule() RecurrenceRule {
	return RecurrenceRule{Frequency: FrequencyOnce, Interval: 1}
}

// MonthlyRule returns a rule repeating every month on the given day
func MonthlyRule(dayOfMonth int) RecurrenceRule {
	return RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, DayOfMonth: dayOfMonth}
}

// Validate checks the rule for internal consistency
func (r RecurrenceRule) Validate() error {
	switch r.Frequency {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
	default:
		return shared.NewDomainError("INVALID_FREQUENCY", "Invalid recurrence frequency")
	}
	if r.Frequency != FrequencyOnce && r.Interval < 1 {
		return shared.NewDomainError("INVALID_INTERVAL", "Recurrence interval must be at least 1")
	}
	if r.DayOfMonth < 0 || r.DayOfMonth > 31 {
		return shared.NewDomainError("INVALID_DAY_OF_MONTH", "Day of month must be between 1 and 31")
	}
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return shared.NewDomainError("INVALID_DAY_OF_WEEK", "Day of week must be between 0 and 6")
	}
	if r.MonthOfYear < 0 || r.MonthOfYear > 12 {
		return shared.NewDomainError("INVALID_MONTH", "Month of year must be between 1 and 12")
	}
	return nil
}

// IsRepeating returns true for rules that produce more than one occurrence
func (r RecurrenceRule) IsRepeating() bool {
	return r.Frequency != FrequencyOnce
}

// AnchoredTo fills unset anchor fields from the due date. Without this a
// weekly rule carrying the zero-value weekday would re-align every
// occurrence to Sunday, and a monthly rule clamped by a short month (Jan 31
// -> Feb 28) would stay on the 28th forever.
func (r RecurrenceRule) AnchoredTo(due time.Time) RecurrenceRule {
	switch r.Frequency {
	case FrequencyWeekly:
		if r.DayOfWeek == 0 {
			r.DayOfWeek = int(due.Weekday())
		}
	case FrequencyMonthly:
		if r.DayOfMonth == 0 {
			r.DayOfMonth = due.Day()
		}
	case FrequencyYearly:
		if r.DayOfMonth == 0 {
			r.DayOfMonth = due.Day()
		}
		if r.MonthOfYear == 0 {
			r.MonthOfYear = int(due.Month())
		}
	}
	return r
}

// NextDueDate computes the occurrence following current. For one-time rules
// the zero time is returned: there is no next occurrence.
//
// The anchor fields win over the current date: a monthly rule anchored on
// the 31st that was clamped to Feb 28 still lands on Mar 31, not Mar 28.
func NextDueDate(rule RecurrenceRule, current time.Time) time.Time {
	current = truncateToDay(current)

	switch rule.Frequency {
	case FrequencyOnce:
		return time.Time{}

	case FrequencyDaily:
		return current.AddDate(0, 0, rule.Interval)

	case FrequencyWeekly:
		next := current.AddDate(0, 0, 7*rule.Interval)
		// Re-align to the anchor weekday in case the stored due date drifted
		// (e.g. after a manual completion on a different day).
		if delta := (rule.DayOfWeek - int(next.Weekday()) + 7) % 7; delta != 0 {
			next = next.AddDate(0, 0, delta)
		}
		return next

	case FrequencyMonthly:
		day := rule.DayOfMonth
		if day == 0 {
			day = current.Day()
		}
		year, month, _ := current.Date()
		return dateWithClampedDay(year, time.Month(int(month)+rule.Interval), day, current.Location())

	case FrequencyYearly:
		day := rule.DayOfMonth
		if day == 0 {
			day = current.Day()
		}
		month := time.Month(rule.MonthOfYear)
		if rule.MonthOfYear == 0 {
			month = current.Month()
		}
		return dateWithClampedDay(current.Year()+rule.Interval, month, day, current.Location())
	}

	return time.Time{}
}

// OccurrencesBetween expands the rule into concrete dates within [from, to],
// starting from the given due date. limit caps the number of occurrences to
// guard against degenerate windows.
func OccurrencesBetween(rule RecurrenceRule, due, from, to time.Time, limit int) []time.Time {
	if limit <= 0 {
		limit = 366
	}
	from = truncateToDay(from)
	to = truncateToDay(to)
	due = truncateToDay(due)

	var out []time.Time
	for !due.IsZero() && !due.After(to) && len(out) < limit {
		if !due.Before(from) {
			out = append(out, due)
		}
		if !rule.IsRepeating() {
			break
		}
		next := NextDueDate(rule, due)
		if !next.After(due) {
			break
		}
		due = next
	}
	return out
}

// dateWithClampedDay builds a date clamping day to the month's length.
// time.Date normalizes out-of-range months, so month may exceed December.
func dateWithClampedDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	// Normalize the month first, then clamp against its length.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	if last := daysIn(firstOfMonth.Year(), firstOfMonth.Month()); day > last {
		day = last
	}
	return time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, 0, 0, 0, 0, loc)
}

// daysIn returns the number of days in the given month
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
