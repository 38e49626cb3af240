package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// MultiStore aggregates several ledger stores for redundancy. Writes go to
// every available backend and succeed if at least one backend accepted the
// data; the snapshot is loaded from the first backend that has one.
type MultiStore struct {
	stores []interfaces.LedgerStore
	log    *slog.Logger
}

// NewMultiStore creates a redundant store over the given backends.
func NewMultiStore(stores []interfaces.LedgerStore, log *slog.Logger) *MultiStore {
	return &MultiStore{
		stores: stores,
		log:    log,
	}
}

// SaveSnapshot writes the snapshot to all available backends. It returns an
// error only when no backend accepted the write.
func (m *MultiStore) SaveSnapshot(ctx context.Context, data []byte) error {
	var saved int
	var errs []error

	for _, store := range m.stores {
		if !store.Available(ctx) {
			m.log.Debug("Skipping unavailable store",
				slog.String("store", store.Name()))
			continue
		}
		if err := store.SaveSnapshot(ctx, data); err != nil {
			m.log.Warn("Failed to save snapshot to store",
				slog.String("store", store.Name()),
				"err", err)
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
			continue
		}
		saved++
	}

	if saved == 0 {
		return fmt.Errorf("failed to save snapshot to any store: %w", errors.Join(errs...))
	}
	if saved < len(m.stores) {
		m.log.Warn("Snapshot not saved to all stores",
			slog.Int("saved", saved),
			slog.Int("total", len(m.stores)))
	}
	return nil
}

// LoadSnapshot returns the snapshot from the first backend that has one.
// It returns ErrNoSnapshot only when every backend reports no snapshot.
func (m *MultiStore) LoadSnapshot(ctx context.Context) ([]byte, error) {
	var lastErr error = interfaces.ErrNoSnapshot

	for _, store := range m.stores {
		if !store.Available(ctx) {
			continue
		}
		data, err := store.LoadSnapshot(ctx)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, interfaces.ErrNoSnapshot) {
			m.log.Warn("Failed to load snapshot from store",
				slog.String("store", store.Name()),
				"err", err)
			lastErr = err
		}
	}

	return nil, lastErr
}

// AppendEvent writes the event record to all available backends. It returns
// an error only when no backend accepted the write.
func (m *MultiStore) AppendEvent(ctx context.Context, data []byte) error {
	var appended int
	var errs []error

	for _, store := range m.stores {
		if !store.Available(ctx) {
			continue
		}
		if err := store.AppendEvent(ctx, data); err != nil {
			m.log.Warn("Failed to append event to store",
				slog.String("store", store.Name()),
				"err", err)
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
			continue
		}
		appended++
	}

	if appended == 0 {
		return fmt.Errorf("failed to append event to any store: %w", errors.Join(errs...))
	}
	return nil
}

// Available reports whether at least one backend is reachable.
func (m *MultiStore) Available(ctx context.Context) bool {
	for _, store := range m.stores {
		if store.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns a unique identifier for this store.
func (m *MultiStore) Name() string {
	names := make([]string, 0, len(m.stores))
	for _, store := range m.stores {
		names = append(names, store.Name())
	}
	return fmt.Sprintf("multi[%s]", strings.Join(names, ","))
}

// LocationURI returns the URIs of all aggregated stores.
func (m *MultiStore) LocationURI() string {
	uris := make([]string, 0, len(m.stores))
	for _, store := range m.stores {
		uris = append(uris, store.LocationURI())
	}
	return strings.Join(uris, ",")
}
