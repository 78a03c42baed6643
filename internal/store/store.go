// Package store owns the authoritative pet records and transaction ledger.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/happy-paws/petshop/internal/domain"
)

// Store maps pet ids to records and holds the append-only transaction ledger.
// All state lives in memory behind the mutex; the injected storage port is
// written after every mutation so durable state tracks memory. A failed save
// is logged and the in-memory state stays authoritative.
type Store struct {
	mu      sync.RWMutex
	pets    map[int64]domain.Pet
	ledger  []domain.Transaction
	nextID  int64
	storage domain.Storage
	now     func() time.Time
}

// New creates an empty store bound to the given storage port.
func New(storage domain.Storage) *Store {
	return &Store{
		pets:    make(map[int64]domain.Pet),
		nextID:  1,
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Restore loads the persisted snapshot if the backend has one. An empty
// backend leaves the store empty; a read failure is reported but the store
// stays usable with its in-memory state.
func (s *Store) Restore(ctx context.Context) error {
	snap, found, err := s.storage.Load(ctx)
	if err != nil {
		slog.Error("failed to load snapshot", "error", err)
		return fmt.Errorf("load snapshot: %w", err)
	}
	if !found {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(snap)
	return nil
}

// Create validates the input, assigns the next id, and persists the new record.
// New pets start at happiness 50, hunger 30, unsold.
func (s *Store) Create(ctx context.Context, in domain.PetInput) (domain.Pet, error) {
	if err := in.Validate(); err != nil {
		return domain.Pet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	pet := domain.Pet{
		ID:        s.nextID,
		Name:      in.Name,
		Species:   domain.ParseSpecies(in.Species),
		Age:       in.Age,
		Price:     in.Price,
		Happiness: 50,
		Hunger:    30,
		IsSold:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.pets[pet.ID] = pet
	s.persistLocked(ctx)

	return pet, nil
}

// Get is a pure lookup with no side effects.
func (s *Store) Get(ctx context.Context, id int64) (domain.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pet, ok := s.pets[id]
	if !ok {
		return domain.Pet{}, domain.ErrNotFound
	}
	return pet, nil
}

// Update merges the given fields into the existing record, re-clamps
// happiness/hunger, bumps updatedAt and persists. An unknown id is a no-op
// reported as ErrNotFound.
func (s *Store) Update(ctx context.Context, id int64, upd domain.PetUpdate) (domain.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet, ok := s.pets[id]
	if !ok {
		return domain.Pet{}, domain.ErrNotFound
	}

	if upd.Name != nil {
		pet.Name = *upd.Name
	}
	if upd.Species != nil {
		pet.Species = *upd.Species
	}
	if upd.Age != nil {
		pet.Age = *upd.Age
	}
	if upd.Price != nil {
		pet.Price = *upd.Price
	}
	if upd.Happiness != nil {
		pet.Happiness = domain.Clamp(*upd.Happiness)
	}
	if upd.Hunger != nil {
		pet.Hunger = domain.Clamp(*upd.Hunger)
	}
	// isSold is one-way: once true it never reverts.
	if upd.IsSold != nil && *upd.IsSold {
		pet.IsSold = true
	}

	now := s.now()
	if now.After(pet.UpdatedAt) {
		pet.UpdatedAt = now
	}
	s.pets[id] = pet
	s.persistLocked(ctx)

	return pet, nil
}

// Adjust adds the given deltas to an available record's happiness and hunger
// in one atomic step, re-clamping the result. A sold record is left untouched
// and reported as ErrAlreadySold alongside its current state.
func (s *Store) Adjust(ctx context.Context, id int64, happinessDelta, hungerDelta float64) (domain.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet, ok := s.pets[id]
	if !ok {
		return domain.Pet{}, domain.ErrNotFound
	}
	if pet.IsSold {
		return pet, domain.ErrAlreadySold
	}

	pet.Happiness = domain.Clamp(pet.Happiness + happinessDelta)
	pet.Hunger = domain.Clamp(pet.Hunger + hungerDelta)
	now := s.now()
	if now.After(pet.UpdatedAt) {
		pet.UpdatedAt = now
	}
	s.pets[id] = pet
	s.persistLocked(ctx)

	return pet, nil
}

// MarkSold flips the record to sold and appends the sale transaction in the
// same critical section, so the sale is recorded exactly once no matter how
// many callers race. A repeat call reports ErrAlreadySold alongside the
// current state without touching the record or the ledger.
func (s *Store) MarkSold(ctx context.Context, id int64) (domain.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet, ok := s.pets[id]
	if !ok {
		return domain.Pet{}, domain.ErrNotFound
	}
	if pet.IsSold {
		return pet, domain.ErrAlreadySold
	}

	pet.IsSold = true
	now := s.now()
	if now.After(pet.UpdatedAt) {
		pet.UpdatedAt = now
	}
	s.pets[id] = pet
	s.ledger = append(s.ledger, domain.Transaction{
		ID:        uuid.New().String(),
		PetID:     id,
		Kind:      domain.KindSale,
		Amount:    pet.Price,
		Timestamp: now,
	})
	s.persistLocked(ctx)

	return pet, nil
}

// Delete removes the record regardless of sold status and reports whether it
// existed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pets[id]; !ok {
		return false, nil
	}
	delete(s.pets, id)
	s.persistLocked(ctx)
	return true, nil
}

// ListAll returns every record ordered by id.
func (s *Store) ListAll(ctx context.Context) []domain.Pet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(domain.Pet) bool { return true })
}

// ListAvailable returns the unsold records ordered by id.
func (s *Store) ListAvailable(ctx context.Context) []domain.Pet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(domain.Pet.Available)
}

// ListSold returns the sold records ordered by id.
func (s *Store) ListSold(ctx context.Context) []domain.Pet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(p domain.Pet) bool { return p.IsSold })
}

func (s *Store) listLocked(keep func(domain.Pet) bool) []domain.Pet {
	out := make([]domain.Pet, 0, len(s.pets))
	for _, p := range s.pets {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RecordTransaction appends an entry to the ledger and persists. The entry id
// is a uniqueness-only token.
func (s *Store) RecordTransaction(ctx context.Context, petID int64, kind domain.TransactionKind, amount float64) (domain.Transaction, error) {
	if !kind.Valid() {
		return domain.Transaction{}, fmt.Errorf("%w: unknown transaction kind %q", domain.ErrInvalidInput, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := domain.Transaction{
		ID:        uuid.New().String(),
		PetID:     petID,
		Kind:      kind,
		Amount:    amount,
		Timestamp: s.now(),
	}
	s.ledger = append(s.ledger, tx)
	s.persistLocked(ctx)

	return tx, nil
}

// Transactions returns the ledger in append order.
func (s *Store) Transactions(ctx context.Context) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// TotalSales sums the amounts of all sale transactions. Recomputed on demand
// so it always reflects the current ledger.
func (s *Store) TotalSales(ctx context.Context) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, tx := range s.ledger {
		if tx.Kind == domain.KindSale {
			total += tx.Amount
		}
	}
	return total
}

// Counts reports the total, available and sold record counts.
func (s *Store) Counts(ctx context.Context) (total, available, sold int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total = len(s.pets)
	for _, p := range s.pets {
		if p.IsSold {
			sold++
		} else {
			available++
		}
	}
	return total, available, sold
}

// Persist explicitly writes the current state to storage, returning the error
// so callers can report it. The lock is held across the save: mutating calls
// save under the write lock, so this write can never land after a newer one.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.storage.Save(ctx, s.snapshotLocked()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Export serializes the full state plus an export timestamp, suitable for
// round-tripping through Import.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	exp := domain.Export{
		Snapshot:   *s.snapshotLocked(),
		ExportDate: s.now(),
	}
	s.mu.RUnlock()

	return json.MarshalIndent(exp, "", "  ")
}

// Import replaces the entire store state with the parsed snapshot and
// persists. Unparseable or malformed input leaves the store unchanged and is
// reported as ErrInvalidInput.
func (s *Store) Import(ctx context.Context, data []byte) error {
	var exp domain.Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	snap := exp.Snapshot
	if snap.NextID == 0 {
		snap.NextID = 1
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.Normalize()

	s.mu.Lock()
	s.apply(&snap)
	s.persistLocked(ctx)
	s.mu.Unlock()

	return nil
}

// Clear drops all records and transactions, resets the id counter and
// persists the empty state.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pets = make(map[int64]domain.Pet)
	s.ledger = nil
	s.nextID = 1
	s.persistLocked(ctx)
	return nil
}

// Ping checks the storage backend health.
func (s *Store) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// apply replaces the in-memory state from a validated snapshot.
// Caller holds the write lock.
func (s *Store) apply(snap *domain.Snapshot) {
	pets := make(map[int64]domain.Pet, len(snap.Pets))
	for _, p := range snap.Pets {
		pets[p.ID] = p
	}
	s.pets = pets
	s.ledger = append([]domain.Transaction(nil), snap.Transactions...)
	s.nextID = snap.NextID
	if s.nextID < 1 {
		s.nextID = 1
	}
}

// snapshotLocked builds a snapshot of the current state.
// Caller holds at least the read lock.
func (s *Store) snapshotLocked() *domain.Snapshot {
	snap := &domain.Snapshot{
		Pets:         make([]domain.Pet, 0, len(s.pets)),
		Transactions: append([]domain.Transaction(nil), s.ledger...),
		NextID:       s.nextID,
	}
	for _, p := range s.pets {
		snap.Pets = append(snap.Pets, p)
	}
	sort.Slice(snap.Pets, func(i, j int) bool { return snap.Pets[i].ID < snap.Pets[j].ID })
	return snap
}

// persistLocked writes the current state through the storage port. Save
// failures are reported, never surfaced to the mutating caller: the in-memory
// state remains the authoritative fallback. Caller holds the write lock.
func (s *Store) persistLocked(ctx context.Context) {
	if err := s.storage.Save(ctx, s.snapshotLocked()); err != nil {
		slog.Error("failed to save snapshot", "error", err, "pets", len(s.pets))
	}
}
