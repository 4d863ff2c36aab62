// Package expiry holds the pure date arithmetic behind product replacement
// scheduling: expiry date computation, reminder eligibility, and the
// stock-decrement transition applied when a product is replaced.
package expiry

import "time"

// AddMonths adds calendar months to a date using standard calendar
// arithmetic. Day-of-month overflow rolls into the following month
// (Jan 31 + 1 month = Mar 2/3), matching time.AddDate semantics.
func AddMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

// DaysRemaining reports the number of days until target, rounding partial
// days up and flooring at zero. A target in the past returns 0, never a
// negative value. Because the inputs carry time-of-day, two targets on the
// same calendar day can report different counts depending on now.
func DaysRemaining(target, now time.Time) int {
	diff := target.Sub(now)
	if diff <= 0 {
		return 0
	}

	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}
