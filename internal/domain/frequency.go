package domain

import (
	"strings"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/util"
)

// Frequency is the length of a spending-limit period or a savings
// contribution cadence.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyAnnual  Frequency = "annual"
	FrequencyCustom  Frequency = "custom"
)

// IsValid reports whether f is one of the known frequencies.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyAnnual, FrequencyCustom:
		return true
	}
	return false
}

// ParseFrequency accepts any casing of a known frequency name.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", ErrInvalidFrequency
	}
	return f, nil
}

// ValidateSchedule checks that periodDays is present exactly when the
// frequency is custom.
func ValidateSchedule(f Frequency, periodDays *int32) error {
	if !f.IsValid() {
		return ErrInvalidFrequency
	}
	if f == FrequencyCustom {
		if periodDays == nil || *periodDays <= 0 {
			return ErrInvalidPeriodDays
		}
		return nil
	}
	if periodDays != nil {
		return ErrInvalidPeriodDays
	}
	return nil
}

// Advance moves t forward by n periods. Monthly and annual steps clamp to
// the end of shorter months (Jan 31 + 1 month = Feb 28/29).
func (f Frequency) Advance(t time.Time, n int, periodDays int32) time.Time {
	switch f {
	case FrequencyDaily:
		return t.AddDate(0, 0, n)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7*n)
	case FrequencyMonthly:
		return util.AddMonthsClamped(t, n)
	case FrequencyAnnual:
		return util.AddMonthsClamped(t, 12*n)
	case FrequencyCustom:
		return t.AddDate(0, 0, n*int(periodDays))
	}
	return t
}

// PeriodContaining returns the half-open window [start, end) of the period
// that contains t, counting whole periods forward from anchor. Instants
// before the anchor map to the first period.
func (f Frequency) PeriodContaining(anchor, t time.Time, periodDays int32) (time.Time, time.Time) {
	if t.Before(anchor) {
		return anchor, f.Advance(anchor, 1, periodDays)
	}

	k := f.estimatePeriods(anchor, t, periodDays)
	for k > 0 && f.Advance(anchor, k, periodDays).After(t) {
		k--
	}
	for !f.Advance(anchor, k+1, periodDays).After(t) {
		k++
	}
	return f.Advance(anchor, k, periodDays), f.Advance(anchor, k+1, periodDays)
}

func (f Frequency) estimatePeriods(anchor, t time.Time, periodDays int32) int {
	day := 24 * time.Hour
	switch f {
	case FrequencyDaily:
		return int(t.Sub(anchor) / day)
	case FrequencyWeekly:
		return int(t.Sub(anchor) / (7 * day))
	case FrequencyCustom:
		if periodDays <= 0 {
			return 0
		}
		return int(t.Sub(anchor) / (time.Duration(periodDays) * day))
	case FrequencyMonthly:
		return (t.Year()-anchor.Year())*12 + int(t.Month()) - int(anchor.Month())
	case FrequencyAnnual:
		return t.Year() - anchor.Year()
	}
	return 0
}
