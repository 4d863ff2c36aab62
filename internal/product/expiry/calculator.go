package expiry

import (
	"time"

	"github.com/bathtrack/bathtrack-backend/pkg/errors"
)

// Date layouts accepted for user-supplied dates. Manufacture dates printed
// on packaging are usually day precision; API clients send RFC 3339.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

// Calculate derives the authoritative expiry date for a product.
//
// The post-opening limit is always registrationDate + usageMonths. When a
// manufacturing date and a non-zero pre-opening shelf life are both known,
// the pre-opening limit (manufacturingDate + beforeMonths) competes with it
// and the earlier of the two dates wins: whichever limit is hit first
// governs replacement.
//
// The function is pure: identical inputs always produce the identical
// instant, and the result must be recomputed whenever any input changes.
func Calculate(registrationDate time.Time, usageMonths int, manufacturingDate *time.Time, beforeMonths *int) time.Time {
	dateAfterOpening := AddMonths(registrationDate, usageMonths)

	if manufacturingDate == nil || beforeMonths == nil || *beforeMonths == 0 {
		return dateAfterOpening
	}

	dateBeforeOpening := AddMonths(*manufacturingDate, *beforeMonths)
	if dateBeforeOpening.Before(dateAfterOpening) {
		return dateBeforeOpening
	}
	return dateAfterOpening
}

// ParseRegistrationDate parses a required registration date. An unparseable
// value is a caller contract violation: the computation cannot proceed
// without it.
func ParseRegistrationDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.InvalidInput("registration_date", "must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

// ParseManufacturingDate parses an optional manufacturing date. The value
// is user- or OCR-supplied and unreliable, so an unparseable date degrades
// to absent instead of failing the whole computation.
func ParseManufacturingDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ResolveUsagePeriod resolves the post-opening usage period in months:
// the product's explicit value if set, otherwise the category default,
// otherwise the configured fallback.
func ResolveUsagePeriod(explicit *int, category string, categoryDefaults map[string]int, fallbackMonths int) int {
	if explicit != nil && *explicit > 0 {
		return *explicit
	}
	if months, ok := categoryDefaults[category]; ok {
		return months
	}
	return fallbackMonths
}
