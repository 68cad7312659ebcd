package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_Status(t *testing.T) {
	settings := Settings{MaintenanceCalories: 2500, TargetCalories: 1800}
	cases := []struct {
		consumed, burned float64
		status           Status
		deficit          float64
		magnitude        float64
		message          string
	}{
		{2000, 0, StatusDeficit, 500, 500, "2500 - 2000 + 0 = 500 calories deficit today"},
		{2500, 0, StatusMaintenance, 0, 0, "2500 - 2500 + 0 = Maintenance calories achieved"},
		{3000, 0, StatusSurplus, -500, 500, "2500 - 3000 + 0 = 500 calories surplus today"},
		{2800, 300, StatusMaintenance, 0, 0, "2500 - 2800 + 300 = Maintenance calories achieved"},
	}
	for _, tc := range cases {
		d := newDayRecord()
		d.Food = append(d.Food, Entry{Name: "food", Calories: tc.consumed})
		if tc.burned > 0 {
			d.Exercise = append(d.Exercise, Entry{Name: "run", Calories: tc.burned})
		}

		s := Summarize(d, settings)

		assert.Equal(t, tc.status, s.Status, tc.message)
		assert.Equal(t, tc.deficit, s.Deficit, tc.message)
		assert.Equal(t, tc.magnitude, s.Magnitude, tc.message)
		assert.Equal(t, tc.message, s.Message)
		assert.Equal(t, 1800-tc.consumed+tc.burned, s.Remaining, tc.message)
	}
}

func TestSummarize_NutritionTreatsMissingAsZero(t *testing.T) {
	d := newDayRecord()
	d.Food = []Entry{
		{Name: "a", Calories: 100.25, Protein: ptr(10.5), Fiber: ptr(3), Water: ptr(250)},
		{Name: "b", Calories: 50.5, Carbs: ptr(20), Fat: ptr(1.25), Sugar: ptr(12)},
		{Name: "c", Calories: 0},
	}
	d.Exercise = []Entry{{Name: "walk", Calories: 20.25}}

	s := Summarize(d, Settings{MaintenanceCalories: 2000, TargetCalories: 1500})

	assert.Equal(t, 150.75, s.Consumed)
	assert.Equal(t, 20.25, s.Burned)
	assert.Equal(t, 1369.5, s.Remaining)
	assert.Equal(t, Nutrients{Protein: 10.5, Carbs: 20, Fat: 1.25, Fiber: 3, Sugar: 12, Water: 250}, s.Nutrition)
}

func TestSummarize_EmptyDay(t *testing.T) {
	s := Summarize(newDayRecord(), Settings{MaintenanceCalories: 2500, TargetCalories: 1800})

	assert.Equal(t, 1800.0, s.Remaining)
	assert.Equal(t, StatusDeficit, s.Status)
	assert.Equal(t, Nutrients{}, s.Nutrition)
}
