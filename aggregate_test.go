package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := parseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func addFood(u *UserData, date string, calories float64, protein, carbs, fat *float64) {
	u.Append(date, KindFood, Entry{Name: "food", Calories: calories, Protein: protein, Carbs: carbs, Fat: fat}, fixedNow())
}

func addExercise(u *UserData, date string, calories float64) {
	u.Append(date, KindExercise, Entry{Name: "exercise", Calories: calories}, fixedNow())
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func TestAggregate_DailyTotalsMatchEntries(t *testing.T) {
	u := defaultUserData()
	addFood(u, "2024-01-01", 500, ptr(20), nil, ptr(5))
	addFood(u, "2024-01-01", 250.5, nil, ptr(30), nil)
	addFood(u, "2024-01-03", 800, ptr(40), ptr(60), ptr(25))
	addExercise(u, "2024-01-03", 300)
	addFood(u, "2024-01-10", 999, nil, nil, nil) // outside range

	s, err := Aggregate(u, day("2024-01-01"), day("2024-01-04"), GranularityDaily)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}, s.Labels)
	assert.Equal(t, []float64{750.5, 0, 800, 0}, s.Consumed)
	assert.Equal(t, []float64{0, 0, 300, 0}, s.Burned)
	assert.Equal(t, []float64{750.5, 0, 500, 0}, s.Net)
	assert.Equal(t, []float64{20, 0, 40, 0}, s.Protein)
	assert.Equal(t, []float64{30, 0, 60, 0}, s.Carbs)
	assert.Equal(t, []float64{5, 0, 25, 0}, s.Fat)
	assert.Equal(t, 1550.5, sum(s.Consumed))
	assert.Equal(t, 300.0, sum(s.Burned))
}

func TestAggregate_SingleDayRange(t *testing.T) {
	s, err := Aggregate(defaultUserData(), day("2024-02-29"), day("2024-02-29"), GranularityDaily)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-02-29"}, s.Labels)
	assert.Equal(t, []float64{0}, s.Consumed)
	assert.Equal(t, []float64{0}, s.Net)
}

func TestAggregate_EmptyRangeIsAllZero(t *testing.T) {
	for _, g := range []Granularity{GranularityDaily, GranularityWeekly, GranularityMonthly} {
		s, err := Aggregate(defaultUserData(), day("2024-01-01"), day("2024-03-15"), g)
		require.NoError(t, err)
		require.NotEmpty(t, s.Labels, g)
		for i := range s.Labels {
			assert.Zero(t, s.Consumed[i])
			assert.Zero(t, s.Burned[i])
			assert.Zero(t, s.Net[i])
		}
	}
}

func TestAggregate_WeeklyBucketCount(t *testing.T) {
	cases := []struct {
		start, end string
		want       []string
	}{
		// Mon 2024-01-01 through Sun 2024-01-14.
		{"2024-01-01", "2024-01-14", []string{"Week of 2024-01-01", "Week of 2024-01-08"}},
		// Sunday belongs to the week starting the previous Monday.
		{"2024-01-07", "2024-01-08", []string{"Week of 2024-01-01", "Week of 2024-01-08"}},
		// Crosses a year boundary.
		{"2023-12-31", "2024-01-01", []string{"Week of 2023-12-25", "Week of 2024-01-01"}},
		{"2024-01-03", "2024-01-03", []string{"Week of 2024-01-01"}},
	}
	for _, tc := range cases {
		s, err := Aggregate(defaultUserData(), day(tc.start), day(tc.end), GranularityWeekly)
		require.NoError(t, err)
		assert.Equal(t, tc.want, s.Labels, "%s..%s", tc.start, tc.end)
	}
}

func TestAggregate_WeeklyRoundsBeforeNet(t *testing.T) {
	u := defaultUserData()
	addFood(u, "2024-01-01", 100, nil, nil, nil)
	addFood(u, "2024-01-02", 101, nil, nil, nil)

	s, err := Aggregate(u, day("2024-01-01"), day("2024-01-02"), GranularityWeekly)
	require.NoError(t, err)

	assert.Equal(t, []float64{101}, s.Consumed)
	assert.Equal(t, []float64{0}, s.Burned)
	assert.Equal(t, []float64{101}, s.Net)
}

func TestAggregate_NetUsesRoundedValues(t *testing.T) {
	u := defaultUserData()
	// consumed avg 100.5 -> 101, burned avg 50.5 -> 51, net 101 - 51.
	addFood(u, "2024-01-01", 100, nil, nil, nil)
	addFood(u, "2024-01-02", 101, nil, nil, nil)
	addExercise(u, "2024-01-01", 50)
	addExercise(u, "2024-01-02", 51)

	s, err := Aggregate(u, day("2024-01-01"), day("2024-01-02"), GranularityWeekly)
	require.NoError(t, err)
	assert.Equal(t, []float64{101}, s.Consumed)
	assert.Equal(t, []float64{51}, s.Burned)
	assert.Equal(t, []float64{50}, s.Net)
}

func TestAggregate_Monthly(t *testing.T) {
	u := defaultUserData()
	addFood(u, "2024-01-31", 3100, ptr(31), nil, nil)
	addFood(u, "2024-02-01", 2900, nil, nil, nil)
	addExercise(u, "2024-02-02", 290)

	s, err := Aggregate(u, day("2024-01-01"), day("2024-02-29"), GranularityMonthly)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01", "2024-02"}, s.Labels)
	assert.Equal(t, []float64{100, 100}, s.Consumed) // 3100/31, 2900/29
	assert.Equal(t, []float64{0, 10}, s.Burned)
	assert.Equal(t, []float64{100, 90}, s.Net)
	assert.Equal(t, []float64{1, 0}, s.Protein)
}

func TestAggregate_SeriesAreAligned(t *testing.T) {
	s, err := Aggregate(defaultUserData(), day("2024-01-01"), day("2024-06-30"), GranularityWeekly)
	require.NoError(t, err)
	n := len(s.Labels)
	for _, xs := range [][]float64{s.Consumed, s.Burned, s.Net, s.Protein, s.Carbs, s.Fat} {
		assert.Len(t, xs, n)
	}
}

func TestAggregate_Errors(t *testing.T) {
	_, err := Aggregate(defaultUserData(), day("2024-01-02"), day("2024-01-01"), GranularityDaily)
	assert.ErrorIs(t, err, errInvalidRange)

	_, err = Aggregate(defaultUserData(), day("2024-01-01"), day("2024-01-02"), Granularity("yearly"))
	assert.Error(t, err)
}

func TestAggregate_IgnoresTimeOfDay(t *testing.T) {
	u := defaultUserData()
	addFood(u, "2024-01-02", 10, nil, nil, nil)

	start := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC)
	s, err := Aggregate(u, start, end, GranularityDaily)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, s.Labels)
	assert.Equal(t, []float64{0, 10}, s.Consumed)
}

func TestWeekStart(t *testing.T) {
	cases := map[string]string{
		"2024-01-01": "2024-01-01", // Monday
		"2024-01-03": "2024-01-01",
		"2024-01-07": "2024-01-01", // Sunday
		"2024-03-03": "2024-02-26", // Sunday across a leap-month boundary
	}
	for in, want := range cases {
		assert.Equal(t, want, formatDate(weekStart(day(in))), in)
	}
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 101.0, roundHalfUp(100.5))
	assert.Equal(t, 100.0, roundHalfUp(100.49))
	assert.Equal(t, -2.0, roundHalfUp(-2.5))
	assert.Equal(t, 0.0, roundHalfUp(0.49999999999999994))
	big := float64(1<<52 + 1)
	assert.Equal(t, big, roundHalfUp(big))
}

func TestAggregate_RangeLimit(t *testing.T) {
	start := day("2000-01-01")

	s, err := Aggregate(defaultUserData(), start, start.AddDate(0, 0, maxReportDays-1), GranularityDaily)
	require.NoError(t, err)
	assert.Len(t, s.Labels, maxReportDays)

	_, err = Aggregate(defaultUserData(), start, start.AddDate(0, 0, maxReportDays), GranularityMonthly)
	assert.ErrorIs(t, err, errRangeTooLong)
}

func TestBuildReport_Stats(t *testing.T) {
	u := defaultUserData() // target 1800
	addFood(u, "2024-01-01", 2000, nil, nil, nil)
	addExercise(u, "2024-01-01", 300) // net 1700, on target
	addFood(u, "2024-01-02", 2100, nil, nil, nil) // net 2100, over

	r, err := BuildReport(u, day("2024-01-01"), day("2024-01-07"), GranularityDaily)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", r.Start)
	assert.Equal(t, "2024-01-07", r.End)
	assert.Equal(t, ReportStats{
		DaysInRange:    7,
		DaysTracked:    2,
		DaysOnTarget:   1,
		AvgConsumed:    2050,
		AvgBurned:      150,
		AvgNetCalories: 1900,
	}, r.Stats)
	assert.Len(t, r.Series.Labels, 7)
}
