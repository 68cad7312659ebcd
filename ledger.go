package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// EntryKind selects the food or exercise sequence of a day.
type EntryKind string

const (
	KindFood     EntryKind = "food"
	KindExercise EntryKind = "exercise"
)

// errEntryNotFound is returned when an index or id does not address an
// existing entry.
var errEntryNotFound = errors.New("entry not found")

func parseEntryKind(s string) (EntryKind, error) {
	switch EntryKind(s) {
	case KindFood, KindExercise:
		return EntryKind(s), nil
	}
	return "", fmt.Errorf("unknown entry kind %q, expected food or exercise", s)
}

/* ─── In-memory operations ───────────────────────────────────────────── */

// Day returns the record for date, or an empty one when nothing is logged.
// The returned record is not attached to u.
func (u *UserData) Day(date string) *DayRecord {
	if d, ok := u.Entries[date]; ok && d != nil {
		return d
	}
	return newDayRecord()
}

// ensureDay returns the record for date, creating it if absent.
func (u *UserData) ensureDay(date string) *DayRecord {
	if u.Entries == nil {
		u.Entries = map[string]*DayRecord{}
	}
	d, ok := u.Entries[date]
	if !ok || d == nil {
		d = newDayRecord()
		u.Entries[date] = d
	}
	return d
}

func (d *DayRecord) sequence(kind EntryKind) *[]Entry {
	if kind == KindExercise {
		return &d.Exercise
	}
	return &d.Food
}

// Append adds e to the end of the kind sequence for date. A new id is always
// assigned; the timestamp is set to now when e has none.
func (u *UserData) Append(date string, kind EntryKind, e Entry, now time.Time) Entry {
	e.ID = ""
	e.ensureID()
	if e.Timestamp == "" {
		e.Timestamp = now.UTC().Format("2006-01-02T15:04:05.000Z")
	}
	if kind == KindExercise {
		e.stripNutrients()
	}
	seq := u.ensureDay(date).sequence(kind)
	*seq = append(*seq, e)
	return e
}

// UpdateAt replaces the entry at index, keeping its id.
func (u *UserData) UpdateAt(date string, kind EntryKind, index int, e Entry) (Entry, error) {
	d, ok := u.Entries[date]
	if !ok || d == nil {
		return Entry{}, errEntryNotFound
	}
	seq := *d.sequence(kind)
	if index < 0 || index >= len(seq) {
		return Entry{}, errEntryNotFound
	}
	e.ID = seq[index].ID
	if e.Timestamp == "" {
		e.Timestamp = seq[index].Timestamp
	}
	if kind == KindExercise {
		e.stripNutrients()
	}
	seq[index] = e
	return e, nil
}

// DeleteAt removes the entry at index. Later entries shift down by one, so any
// index held by a caller past that position is stale afterwards.
func (u *UserData) DeleteAt(date string, kind EntryKind, index int) error {
	d, ok := u.Entries[date]
	if !ok || d == nil {
		return errEntryNotFound
	}
	seq := d.sequence(kind)
	if index < 0 || index >= len(*seq) {
		return errEntryNotFound
	}
	*seq = append((*seq)[:index], (*seq)[index+1:]...)
	return nil
}

// indexOf returns the position of the entry with id, or -1.
func (u *UserData) indexOf(date string, kind EntryKind, id string) int {
	d, ok := u.Entries[date]
	if !ok || d == nil {
		return -1
	}
	for i, e := range *d.sequence(kind) {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Update applies patch to the entry with id.
func (u *UserData) Update(date string, kind EntryKind, id string, patch entryPatch) (Entry, error) {
	i := u.indexOf(date, kind, id)
	if i < 0 {
		return Entry{}, errEntryNotFound
	}
	e := (*u.Entries[date].sequence(kind))[i]
	patch.apply(&e)
	return u.UpdateAt(date, kind, i, e)
}

// Delete removes the entry with id.
func (u *UserData) Delete(date string, kind EntryKind, id string) error {
	i := u.indexOf(date, kind, id)
	if i < 0 {
		return errEntryNotFound
	}
	return u.DeleteAt(date, kind, i)
}

// EarliestDate returns the first date key holding at least one entry.
func (u *UserData) EarliestDate() (string, bool) {
	keys := make([]string, 0, len(u.Entries))
	for k, d := range u.Entries {
		if d != nil && len(d.Food)+len(d.Exercise) > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)
	return keys[0], true
}

func (e *Entry) stripNutrients() {
	e.Protein, e.Carbs, e.Fat = nil, nil, nil
	e.Fiber, e.Sugar, e.Water = nil, nil, nil
}

/* ─── Persisted operations ───────────────────────────────────────────── */

// Ledger runs entry mutations against a user's sub-document and persists the
// whole sub-document after every mutation.
type Ledger struct {
	repo *Repository
	now  func() time.Time
}

func NewLedger(repo *Repository) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

func (l *Ledger) Append(ctx context.Context, user, date string, kind EntryKind, e Entry) (Entry, error) {
	var added Entry
	_, err := l.repo.mutate(ctx, user, func(u *UserData) error {
		added = u.Append(date, kind, e, l.now())
		return nil
	})
	return added, err
}

func (l *Ledger) UpdateAt(ctx context.Context, user, date string, kind EntryKind, index int, e Entry) (Entry, error) {
	var updated Entry
	_, err := l.repo.mutate(ctx, user, func(u *UserData) error {
		var err error
		updated, err = u.UpdateAt(date, kind, index, e)
		return err
	})
	return updated, err
}

func (l *Ledger) DeleteAt(ctx context.Context, user, date string, kind EntryKind, index int) error {
	_, err := l.repo.mutate(ctx, user, func(u *UserData) error {
		return u.DeleteAt(date, kind, index)
	})
	return err
}

func (l *Ledger) Update(ctx context.Context, user, date string, kind EntryKind, id string, patch entryPatch) (Entry, error) {
	var updated Entry
	_, err := l.repo.mutate(ctx, user, func(u *UserData) error {
		var err error
		updated, err = u.Update(date, kind, id, patch)
		return err
	})
	return updated, err
}

func (l *Ledger) Delete(ctx context.Context, user, date string, kind EntryKind, id string) error {
	_, err := l.repo.mutate(ctx, user, func(u *UserData) error {
		return u.Delete(date, kind, id)
	})
	return err
}
