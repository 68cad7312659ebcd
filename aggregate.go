package main

import (
	"errors"
	"math"
	"time"
)

// Granularity is the reporting bucket size.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

var (
	errInvalidRange = errors.New("start must not be after end")
	errGranularity  = errors.New("granularity must be one of: daily, weekly, monthly")
	errRangeTooLong = errors.New("range must span at most 1830 days")
)

// maxReportDays bounds a report to five years of calendar days.
const maxReportDays = 5 * 366

func parseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return Granularity(s), nil
	}
	return "", errGranularity
}

// Series is index-aligned: every slice has one value per label.
type Series struct {
	Labels   []string  `json:"labels"`
	Consumed []float64 `json:"consumed"`
	Burned   []float64 `json:"burned"`
	Net      []float64 `json:"net"`
	Protein  []float64 `json:"protein"`
	Carbs    []float64 `json:"carbs"`
	Fat      []float64 `json:"fat"`
}

// ReportStats summarizes the range independently of bucketing. Averages are
// over tracked days only.
type ReportStats struct {
	DaysInRange    int     `json:"days_in_range"`
	DaysTracked    int     `json:"days_tracked"`
	DaysOnTarget   int     `json:"days_on_target"`
	AvgConsumed    float64 `json:"avg_consumed"`
	AvgBurned      float64 `json:"avg_burned"`
	AvgNetCalories float64 `json:"avg_net_calories"`
}

// Report is the response shape for GET /api/reports.
type Report struct {
	Start       string      `json:"start"`
	End         string      `json:"end"`
	Granularity Granularity `json:"granularity"`
	Series      Series      `json:"series"`
	Stats       ReportStats `json:"stats"`
}

// dayTotals holds one day's sums. Absent nutrients count as zero.
type dayTotals struct {
	consumed  float64
	burned    float64
	nutrients Nutrients
}

func (d *DayRecord) totals() dayTotals {
	var t dayTotals
	for _, f := range d.Food {
		t.consumed += f.Calories
		t.nutrients.add(f.nutrients())
	}
	for _, e := range d.Exercise {
		t.burned += e.Calories
	}
	return t
}

// bucket accumulates per-day totals for one label.
type bucket struct {
	label    string
	consumed float64
	burned   float64
	protein  float64
	carbs    float64
	fat      float64
	days     int
}

// Aggregate buckets every calendar day in [start, end] by g. Days with no
// record count as zero, so the series always covers the full range. Weekly and
// monthly buckets hold the per-day average rounded half up, and net is
// computed from the already rounded consumed and burned values.
func Aggregate(u *UserData, start, end time.Time, g Granularity) (Series, error) {
	start, end = truncateDay(start), truncateDay(end)
	if start.After(end) {
		return Series{}, errInvalidRange
	}
	if end.Sub(start) >= maxReportDays*24*time.Hour {
		return Series{}, errRangeTooLong
	}
	if _, err := parseGranularity(string(g)); err != nil {
		return Series{}, err
	}

	var order []*bucket
	byKey := make(map[string]*bucket)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key, label := bucketKey(d, g)
		b, ok := byKey[key]
		if !ok {
			b = &bucket{label: label}
			byKey[key] = b
			order = append(order, b)
		}
		t := u.Day(formatDate(d)).totals()
		b.consumed += t.consumed
		b.burned += t.burned
		b.protein += t.nutrients.Protein
		b.carbs += t.nutrients.Carbs
		b.fat += t.nutrients.Fat
		b.days++
	}

	s := Series{
		Labels:   make([]string, 0, len(order)),
		Consumed: make([]float64, 0, len(order)),
		Burned:   make([]float64, 0, len(order)),
		Net:      make([]float64, 0, len(order)),
		Protein:  make([]float64, 0, len(order)),
		Carbs:    make([]float64, 0, len(order)),
		Fat:      make([]float64, 0, len(order)),
	}
	for _, b := range order {
		consumed, burned := b.consumed, b.burned
		protein, carbs, fat := b.protein, b.carbs, b.fat
		if g != GranularityDaily {
			n := float64(b.days)
			consumed, burned = roundHalfUp(consumed/n), roundHalfUp(burned/n)
			protein, carbs, fat = roundHalfUp(protein/n), roundHalfUp(carbs/n), roundHalfUp(fat/n)
		}
		s.Labels = append(s.Labels, b.label)
		s.Consumed = append(s.Consumed, consumed)
		s.Burned = append(s.Burned, burned)
		s.Net = append(s.Net, consumed-burned)
		s.Protein = append(s.Protein, protein)
		s.Carbs = append(s.Carbs, carbs)
		s.Fat = append(s.Fat, fat)
	}
	return s, nil
}

// BuildReport aggregates the range and computes its stats.
func BuildReport(u *UserData, start, end time.Time, g Granularity) (Report, error) {
	series, err := Aggregate(u, start, end, g)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Start:       formatDate(start),
		End:         formatDate(end),
		Granularity: g,
		Series:      series,
		Stats:       rangeStats(u, truncateDay(start), truncateDay(end)),
	}, nil
}

func rangeStats(u *UserData, start, end time.Time) ReportStats {
	var st ReportStats
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		st.DaysInRange++
		day := u.Day(formatDate(d))
		if len(day.Food)+len(day.Exercise) == 0 {
			continue
		}
		t := day.totals()
		net := t.consumed - t.burned
		st.DaysTracked++
		if net <= u.Settings.TargetCalories {
			st.DaysOnTarget++
		}
		st.AvgConsumed += t.consumed
		st.AvgBurned += t.burned
		st.AvgNetCalories += net
	}
	if st.DaysTracked > 0 {
		n := float64(st.DaysTracked)
		st.AvgConsumed = roundHalfUp(st.AvgConsumed / n)
		st.AvgBurned = roundHalfUp(st.AvgBurned / n)
		st.AvgNetCalories = roundHalfUp(st.AvgNetCalories / n)
	}
	return st
}

// bucketKey returns the grouping key and display label for day d.
func bucketKey(d time.Time, g Granularity) (key, label string) {
	switch g {
	case GranularityWeekly:
		key = formatDate(weekStart(d))
		return key, "Week of " + key
	case GranularityMonthly:
		key = d.Format("2006-01")
		return key, key
	default:
		key = formatDate(d)
		return key, key
	}
}

// weekStart returns the Monday of d's week. Sunday belongs to the week that
// started six days earlier.
func weekStart(d time.Time) time.Time {
	weekday := int(d.Weekday()) // 0=Sun
	if weekday == 0 {
		weekday = 7
	}
	return d.AddDate(0, 0, -(weekday - 1))
}

// truncateDay drops the time of day, keeping t's calendar date.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// roundHalfUp rounds halves toward positive infinity (JavaScript Math.round).
// Working from the floor keeps x+0.5 from rounding values just below a half.
func roundHalfUp(x float64) float64 {
	f := math.Floor(x)
	if x-f >= 0.5 {
		return f + 1
	}
	return f
}
