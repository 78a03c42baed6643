package domain

import (
	"fmt"
	"time"
)

// Snapshot is the complete persisted state of the shop: every pet record, the
// full transaction ledger, and the next-id counter. It must round-trip
// losslessly through export and import.
type Snapshot struct {
	Pets         []Pet         `json:"pets"`
	Transactions []Transaction `json:"transactions"`
	NextID       int64         `json:"nextId"`
}

// Export wraps a snapshot with the date it was taken.
type Export struct {
	Snapshot
	ExportDate time.Time `json:"exportDate"`
}

// Validate checks that the snapshot has the expected shape. A snapshot that
// fails validation must never replace existing store state.
func (s *Snapshot) Validate() error {
	if s.NextID < 1 {
		return fmt.Errorf("%w: nextId must be at least 1, got %d", ErrInvalidInput, s.NextID)
	}

	seen := make(map[int64]bool, len(s.Pets))
	for _, p := range s.Pets {
		if p.ID < 1 {
			return fmt.Errorf("%w: pet id %d out of range", ErrInvalidInput, p.ID)
		}
		if p.ID >= s.NextID {
			return fmt.Errorf("%w: pet id %d not below nextId %d", ErrInvalidInput, p.ID, s.NextID)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate pet id %d", ErrInvalidInput, p.ID)
		}
		seen[p.ID] = true
		if p.Name == "" {
			return fmt.Errorf("%w: pet %d has no name", ErrInvalidInput, p.ID)
		}
	}

	for _, tx := range s.Transactions {
		if !tx.Kind.Valid() {
			return fmt.Errorf("%w: unknown transaction kind %q", ErrInvalidInput, tx.Kind)
		}
	}

	return nil
}

// Normalize re-clamps pet attributes into range. Applied after import so a
// hand-edited backup cannot smuggle out-of-range values past the invariants.
func (s *Snapshot) Normalize() {
	for i := range s.Pets {
		s.Pets[i].Happiness = Clamp(s.Pets[i].Happiness)
		s.Pets[i].Hunger = Clamp(s.Pets[i].Hunger)
	}
}
