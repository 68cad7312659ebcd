package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	documentCollection = "appData"
	documentID         = "mainData"
	localDocumentKey   = "calorieTrackerData"
)

// errDocumentNotFound is returned by a DocumentStore when the requested
// document does not exist.
var errDocumentNotFound = errors.New("document not found")

// DocumentStore is the primary remote store. Bodies are raw JSON so that
// fields unknown to this server survive a round-trip.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) ([]byte, error)
	Set(ctx context.Context, collection, id string, body []byte) error
}

// KeyValueStore is the local fallback store.
type KeyValueStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Source identifies which store served a Load.
type Source string

const (
	SourcePrimary Source = "primary"
	SourceLocal   Source = "local"
	SourceDefault Source = "default"
)

// LoadResult describes how a document was obtained. Degraded is set when the
// primary store was not attached or failed and the local store was consulted instead.
type LoadResult struct {
	Source   Source
	Degraded bool
}

// SaveResult reports whether the primary write succeeded. The local mirror is
// always written.
type SaveResult struct {
	Primary bool
}

// StoreAdapter reads and writes the root document, preferring the primary
// store and falling back to the local store. Until a primary is attached all
// operations use the local store only.
type StoreAdapter struct {
	local  KeyValueStore
	logger *zap.Logger

	mu      sync.RWMutex
	primary DocumentStore
	ready   chan struct{}
}

func NewStoreAdapter(local KeyValueStore, logger *zap.Logger) *StoreAdapter {
	return &StoreAdapter{
		local:  local,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// AttachPrimary marks the primary store as ready. Only the first call has an effect.
func (a *StoreAdapter) AttachPrimary(p DocumentStore) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.primary != nil {
		return
	}
	a.primary = p
	close(a.ready)
	a.logger.Info("primary document store attached")
}

// AwaitReady blocks until the primary is attached or timeout elapses and
// reports whether it is attached.
func (a *StoreAdapter) AwaitReady(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-a.ready:
		return true
	case <-timer.C:
		a.logger.Warn("primary document store not ready, using local store",
			zap.Duration("waited", timeout))
		return false
	}
}

// Ready reports whether the primary store is attached.
func (a *StoreAdapter) Ready() bool {
	return a.currentPrimary() != nil
}

func (a *StoreAdapter) currentPrimary() DocumentStore {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.primary
}

// Load returns the root document. A primary failure falls back to the local
// store; if neither holds a document, a default one is created and saved.
// Only local-store failures are returned as errors.
func (a *StoreAdapter) Load(ctx context.Context) (*Document, LoadResult, error) {
	primary := a.currentPrimary()
	degraded := primary == nil

	if primary != nil {
		body, err := primary.Get(ctx, documentCollection, documentID)
		switch {
		case err == nil:
			doc, decodeErr := decodeDocument(body)
			if decodeErr == nil {
				return doc, LoadResult{Source: SourcePrimary}, nil
			}
			a.logger.Warn("primary document unreadable, falling back to local store",
				zap.String("collection", documentCollection),
				zap.String("id", documentID),
				zap.Error(decodeErr))
			degraded = true
		case errors.Is(err, errDocumentNotFound):
			a.logger.Debug("primary document absent",
				zap.String("collection", documentCollection),
				zap.String("id", documentID))
		default:
			a.logger.Warn("primary document read failed, falling back to local store",
				zap.String("collection", documentCollection),
				zap.String("id", documentID),
				zap.Error(err))
			degraded = true
		}
	}

	raw, ok, err := a.local.Get(localDocumentKey)
	if err != nil {
		return nil, LoadResult{}, fmt.Errorf("read local document: %w", err)
	}
	if ok {
		doc, err := decodeDocument([]byte(raw))
		if err != nil {
			return nil, LoadResult{}, fmt.Errorf("decode local document: %w", err)
		}
		return doc, LoadResult{Source: SourceLocal, Degraded: degraded}, nil
	}

	doc := defaultDocument()
	if _, err := a.Save(ctx, doc); err != nil {
		return nil, LoadResult{}, fmt.Errorf("seed default document: %w", err)
	}
	return doc, LoadResult{Source: SourceDefault, Degraded: degraded}, nil
}

// Save writes doc to the primary (when attached) and always mirrors it to the
// local store. A primary failure is logged and reported in SaveResult only.
func (a *StoreAdapter) Save(ctx context.Context, doc *Document) (SaveResult, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return SaveResult{}, fmt.Errorf("encode document: %w", err)
	}

	var res SaveResult
	if primary := a.currentPrimary(); primary != nil {
		if err := primary.Set(ctx, documentCollection, documentID, body); err != nil {
			a.logger.Warn("primary document write failed, kept local copy only",
				zap.String("collection", documentCollection),
				zap.String("id", documentID),
				zap.Error(err))
		} else {
			res.Primary = true
		}
	}

	if err := a.local.Set(localDocumentKey, string(body)); err != nil {
		return res, fmt.Errorf("write local document: %w", err)
	}
	return res, nil
}

func decodeDocument(body []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	doc.normalize()
	return &doc, nil
}
