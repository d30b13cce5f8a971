// Package storage persists market snapshots taken by the CLI.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mselser95/pmxt-go/pkg/types"
)

// Snapshot is the set of markets fetched from one exchange at one moment.
type Snapshot struct {
	ID       uuid.UUID
	Exchange string
	TakenAt  time.Time
	Markets  []types.UnifiedMarket
}

// NewSnapshot stamps markets with a fresh id and the current time.
func NewSnapshot(exchange string, markets []types.UnifiedMarket) *Snapshot {
	return &Snapshot{
		ID:       uuid.New(),
		Exchange: exchange,
		TakenAt:  time.Now().UTC(),
		Markets:  markets,
	}
}

// Storage is the interface for storing market snapshots.
type Storage interface {
	// StoreSnapshot stores every market of snap.
	StoreSnapshot(ctx context.Context, snap *Snapshot) error

	// Close closes the storage connection.
	Close() error
}
