package main

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// dateLayout is the canonical date key format: one calendar day, no time zone.
const dateLayout = "2006-01-02"

// formatDate returns the date key for t's calendar day.
func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// parseDate parses a date key into midnight UTC of that day.
func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

/* ─── Persisted document ─────────────────────────────────────────────── */

// Document is the root persisted unit. Every read and write goes through the
// whole document; there are no partial updates.
type Document struct {
	Users    map[string]string    `json:"users"`
	UserData map[string]*UserData `json:"userData"`

	extra map[string]json.RawMessage
}

func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	return marshalWithExtra(plain(d), d.extra)
}

func (d *Document) UnmarshalJSON(b []byte) error {
	type plain Document
	var p plain
	extra, err := unmarshalWithExtra(b, &p)
	if err != nil {
		return err
	}
	*d = Document(p)
	d.extra = extra
	return nil
}

// Settings holds a user's calorie targets.
type Settings struct {
	MaintenanceCalories float64 `json:"maintenanceCalories"`
	TargetCalories      float64 `json:"targetCalories"`

	extra map[string]json.RawMessage
}

func (s Settings) MarshalJSON() ([]byte, error) {
	type plain Settings
	return marshalWithExtra(plain(s), s.extra)
}

func (s *Settings) UnmarshalJSON(b []byte) error {
	type plain Settings
	var p plain
	extra, err := unmarshalWithExtra(b, &p)
	if err != nil {
		return err
	}
	*s = Settings(p)
	s.extra = extra
	return nil
}

// UserData is the per-user sub-document: settings plus entries keyed by date.
type UserData struct {
	Settings Settings              `json:"settings"`
	Entries  map[string]*DayRecord `json:"entries"`

	extra map[string]json.RawMessage
}

func (u UserData) MarshalJSON() ([]byte, error) {
	type plain UserData
	return marshalWithExtra(plain(u), u.extra)
}

func (u *UserData) UnmarshalJSON(b []byte) error {
	type plain UserData
	var p plain
	extra, err := unmarshalWithExtra(b, &p)
	if err != nil {
		return err
	}
	*u = UserData(p)
	u.extra = extra
	return nil
}

// DayRecord holds one day's food and exercise entries in insertion order.
type DayRecord struct {
	Food     []Entry `json:"food"`
	Exercise []Entry `json:"exercise"`

	extra map[string]json.RawMessage
}

func (d DayRecord) MarshalJSON() ([]byte, error) {
	type plain DayRecord
	return marshalWithExtra(plain(d), d.extra)
}

func (d *DayRecord) UnmarshalJSON(b []byte) error {
	type plain DayRecord
	var p plain
	extra, err := unmarshalWithExtra(b, &p)
	if err != nil {
		return err
	}
	*d = DayRecord(p)
	d.extra = extra
	return nil
}

// Entry is a single food or exercise record. Exercise entries never carry
// nutrient fields. Nullable nutrients use pointers so an omitted value stays
// omitted in storage; nutrients() coalesces them to zero for arithmetic.
// Notes is a pointer for the same reason: an empty note and no note differ.
type Entry struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	Calories  float64  `json:"calories"`
	Protein   *float64 `json:"protein,omitempty"`
	Carbs     *float64 `json:"carbs,omitempty"`
	Fat       *float64 `json:"fat,omitempty"`
	Fiber     *float64 `json:"fiber,omitempty"`
	Sugar     *float64 `json:"sugar,omitempty"`
	Water     *float64 `json:"water,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	Timestamp string   `json:"timestamp"`

	extra map[string]json.RawMessage
}

func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	return marshalWithExtra(plain(e), e.extra)
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	type plain Entry
	var p plain
	extra, err := unmarshalWithExtra(b, &p)
	if err != nil {
		return err
	}
	*e = Entry(p)
	e.extra = extra
	return nil
}

// Nutrients is a fully-populated set of nutrition totals.
type Nutrients struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
	Sugar   float64 `json:"sugar"`
	Water   float64 `json:"water"`
}

func (e Entry) nutrients() Nutrients {
	return Nutrients{
		Protein: valueOrZero(e.Protein),
		Carbs:   valueOrZero(e.Carbs),
		Fat:     valueOrZero(e.Fat),
		Fiber:   valueOrZero(e.Fiber),
		Sugar:   valueOrZero(e.Sugar),
		Water:   valueOrZero(e.Water),
	}
}

func (n *Nutrients) add(o Nutrients) {
	n.Protein += o.Protein
	n.Carbs += o.Carbs
	n.Fat += o.Fat
	n.Fiber += o.Fiber
	n.Sugar += o.Sugar
	n.Water += o.Water
}

func valueOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

/* ─── Defaults and normalization ─────────────────────────────────────── */

const (
	defaultUsername            = "admin"
	defaultPassword            = "admin123"
	defaultMaintenanceCalories = 2500
	defaultTargetCalories      = 1800
)

// defaultDocument returns a fresh root document with the single seeded credential.
func defaultDocument() *Document {
	return &Document{
		Users:    map[string]string{defaultUsername: defaultPassword},
		UserData: map[string]*UserData{},
	}
}

// defaultUserData returns a new sub-document. Each call allocates, so no two
// users ever share default maps.
func defaultUserData() *UserData {
	return &UserData{
		Settings: Settings{
			MaintenanceCalories: defaultMaintenanceCalories,
			TargetCalories:      defaultTargetCalories,
		},
		Entries: map[string]*DayRecord{},
	}
}

func newDayRecord() *DayRecord {
	return &DayRecord{Food: []Entry{}, Exercise: []Entry{}}
}

// normalize fills every missing collection so that callers never see nil maps
// or slices, and assigns ids to entries written before ids existed.
func (d *Document) normalize() {
	if d.Users == nil {
		d.Users = map[string]string{}
	}
	if d.UserData == nil {
		d.UserData = map[string]*UserData{}
	}
	for name, u := range d.UserData {
		if u == nil {
			d.UserData[name] = defaultUserData()
			continue
		}
		u.normalize()
	}
}

func (u *UserData) normalize() {
	if u.Entries == nil {
		u.Entries = map[string]*DayRecord{}
	}
	for key, day := range u.Entries {
		if day == nil {
			u.Entries[key] = newDayRecord()
			continue
		}
		if day.Food == nil {
			day.Food = []Entry{}
		}
		if day.Exercise == nil {
			day.Exercise = []Entry{}
		}
		for i := range day.Food {
			day.Food[i].ensureID()
		}
		for i := range day.Exercise {
			day.Exercise[i].ensureID()
		}
	}
}

func (e *Entry) ensureID() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
}

/* ─── Request / response types ───────────────────────────────────────── */

// createEntryRequest is the request body for POST /api/entries/:kind.
type createEntryRequest struct {
	Date     string   `json:"date"`
	Name     string   `json:"name" binding:"required,nonul"`
	Calories *float64 `json:"calories" binding:"required,gte=0"`
	Protein  *float64 `json:"protein" binding:"omitempty,gte=0"`
	Carbs    *float64 `json:"carbs" binding:"omitempty,gte=0"`
	Fat      *float64 `json:"fat" binding:"omitempty,gte=0"`
	Fiber    *float64 `json:"fiber" binding:"omitempty,gte=0"`
	Sugar    *float64 `json:"sugar" binding:"omitempty,gte=0"`
	Water    *float64 `json:"water" binding:"omitempty,gte=0"`
	Notes    string   `json:"notes" binding:"nonul"`
}

func (r createEntryRequest) entry() Entry {
	notes := r.Notes
	return Entry{
		Name:     r.Name,
		Calories: *r.Calories,
		Protein:  r.Protein,
		Carbs:    r.Carbs,
		Fat:      r.Fat,
		Fiber:    r.Fiber,
		Sugar:    r.Sugar,
		Water:    r.Water,
		Notes:    &notes,
	}
}

// entryPatch is the request body for PUT /api/entries/:kind/:id. All fields
// are pointers; only non-nil fields are applied.
type entryPatch struct {
	Name     *string  `json:"name" binding:"omitempty,min=1,nonul"`
	Calories *float64 `json:"calories" binding:"omitempty,gte=0"`
	Protein  *float64 `json:"protein" binding:"omitempty,gte=0"`
	Carbs    *float64 `json:"carbs" binding:"omitempty,gte=0"`
	Fat      *float64 `json:"fat" binding:"omitempty,gte=0"`
	Fiber    *float64 `json:"fiber" binding:"omitempty,gte=0"`
	Sugar    *float64 `json:"sugar" binding:"omitempty,gte=0"`
	Water    *float64 `json:"water" binding:"omitempty,gte=0"`
	Notes    *string  `json:"notes" binding:"omitempty,nonul"`
}

func (p entryPatch) apply(e *Entry) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Calories != nil {
		e.Calories = *p.Calories
	}
	if p.Protein != nil {
		e.Protein = p.Protein
	}
	if p.Carbs != nil {
		e.Carbs = p.Carbs
	}
	if p.Fat != nil {
		e.Fat = p.Fat
	}
	if p.Fiber != nil {
		e.Fiber = p.Fiber
	}
	if p.Sugar != nil {
		e.Sugar = p.Sugar
	}
	if p.Water != nil {
		e.Water = p.Water
	}
	if p.Notes != nil {
		e.Notes = p.Notes
	}
}

// settingsRequest is the request body for PUT /api/settings.
type settingsRequest struct {
	MaintenanceCalories float64 `json:"maintenanceCalories" binding:"required,gt=0"`
	TargetCalories      float64 `json:"targetCalories" binding:"required,gt=0"`
}

// dailySummary is the response shape for GET /api/tracker/daily.
type dailySummary struct {
	Date     string   `json:"date"`
	Food     []Entry  `json:"food"`
	Exercise []Entry  `json:"exercise"`
	Summary  Summary  `json:"summary"`
	Settings Settings `json:"settings"`
}
