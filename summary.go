package main

import (
	"fmt"
	"math"
	"strconv"
)

// Status classifies a day against maintenance calories.
type Status string

const (
	StatusDeficit     Status = "deficit"
	StatusMaintenance Status = "maintenance"
	StatusSurplus     Status = "surplus"
)

// Summary is one day's calorie balance. Values are exact sums; rounding for
// display is left to the client.
type Summary struct {
	Target      float64   `json:"target"`
	Maintenance float64   `json:"maintenance"`
	Consumed    float64   `json:"consumed"`
	Burned      float64   `json:"burned"`
	Remaining   float64   `json:"remaining"`
	Deficit     float64   `json:"deficit"`
	Status      Status    `json:"status"`
	Magnitude   float64   `json:"magnitude"`
	Message     string    `json:"message"`
	Nutrition   Nutrients `json:"nutrition"`
}

// Summarize computes remaining calories against the target and the
// deficit/surplus against maintenance for a single day.
func Summarize(day *DayRecord, s Settings) Summary {
	t := day.totals()
	sum := Summary{
		Target:      s.TargetCalories,
		Maintenance: s.MaintenanceCalories,
		Consumed:    t.consumed,
		Burned:      t.burned,
		Remaining:   s.TargetCalories - t.consumed + t.burned,
		Deficit:     s.MaintenanceCalories - t.consumed + t.burned,
		Nutrition:   t.nutrients,
	}
	sum.Magnitude = math.Abs(sum.Deficit)

	equation := fmt.Sprintf("%s - %s + %s =",
		formatNumber(s.MaintenanceCalories), formatNumber(t.consumed), formatNumber(t.burned))
	switch {
	case sum.Deficit > 0:
		sum.Status = StatusDeficit
		sum.Message = fmt.Sprintf("%s %s calories deficit today", equation, formatNumber(sum.Magnitude))
	case sum.Deficit == 0:
		sum.Status = StatusMaintenance
		sum.Message = equation + " Maintenance calories achieved"
	default:
		sum.Status = StatusSurplus
		sum.Message = fmt.Sprintf("%s %s calories surplus today", equation, formatNumber(sum.Magnitude))
	}
	return sum
}

// formatNumber prints v with the fewest digits that round-trip, so 2500
// renders as "2500" and 12.5 as "12.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
