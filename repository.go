package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Repository resolves a username to its sub-document inside the root document.
// Every operation is a full read-modify-write of the root document with no
// lock held between operations: concurrent writers are last-writer-wins.
type Repository struct {
	store  *StoreAdapter
	logger *zap.Logger
}

func NewRepository(store *StoreAdapter, logger *zap.Logger) *Repository {
	return &Repository{store: store, logger: logger}
}

// GetUserData returns the sub-document for user, creating and persisting a
// default one on first access. The identity is assumed valid.
func (r *Repository) GetUserData(ctx context.Context, user string) (*UserData, error) {
	doc, _, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if u, ok := doc.UserData[user]; ok {
		return u, nil
	}

	u := defaultUserData()
	doc.UserData[user] = u
	if _, err := r.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save default user data for %q: %w", user, err)
	}
	r.logger.Info("created default user data", zap.String("user", user))
	return u, nil
}

// SaveUserData reloads the root document so other users' sub-documents written
// since the caller's read are kept, replaces user's entry and persists.
func (r *Repository) SaveUserData(ctx context.Context, user string, data *UserData) error {
	doc, _, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	doc.UserData[user] = data
	if _, err := r.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save user data for %q: %w", user, err)
	}
	return nil
}

// mutate loads user's sub-document, applies fn and persists the result. When
// fn fails nothing is written.
func (r *Repository) mutate(ctx context.Context, user string, fn func(u *UserData) error) (*UserData, error) {
	u, err := r.GetUserData(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	if err := r.SaveUserData(ctx, user, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SaveSettings replaces user's calorie targets. Other stored settings keys
// are kept.
func (r *Repository) SaveSettings(ctx context.Context, user string, s Settings) (Settings, error) {
	u, err := r.mutate(ctx, user, func(u *UserData) error {
		u.Settings.MaintenanceCalories = s.MaintenanceCalories
		u.Settings.TargetCalories = s.TargetCalories
		return nil
	})
	if err != nil {
		return Settings{}, err
	}
	return u.Settings, nil
}
