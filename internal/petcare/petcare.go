// Package petcare implements the pet behavior engine: feeding, play, sales
// and passive need drift over time.
//
// Mutations go through the store's atomic primitives, so a background decay
// tick and a user action can never interleave inside one operation. The
// engine holds no long-lived record references.
package petcare

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/happy-paws/petshop/internal/domain"
	"github.com/happy-paws/petshop/internal/store"
)

// Attribute deltas for explicit actions and passive drift bounds.
const (
	feedHungerDelta    = 20
	feedHappinessDelta = 10
	playHappinessDelta = 50
	playHungerDelta    = 5
	decayHappinessMax  = 5 // uniform drift in [0, decayHappinessMax)
	decayHungerMax     = 3 // uniform drift in [0, decayHungerMax)
)

// Engine runs well-being operations against the store. The random source
// drives passive decay; inject a fixed seed to make time passage reproducible.
type Engine struct {
	store *store.Store
	bus   domain.EventBus

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates an engine over the given store. bus may be nil when no
// subscriber cares about shop events. A nil rng gets a crypto-derived seed.
func NewEngine(st *store.Store, bus domain.EventBus, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(newSeed()))
	}
	return &Engine{
		store: st,
		bus:   bus,
		rng:   rng,
	}
}

// Create adds a new pet through the store and announces the arrival.
func (e *Engine) Create(ctx context.Context, in domain.PetInput) (domain.Pet, error) {
	pet, err := e.store.Create(ctx, in)
	if err != nil {
		return domain.Pet{}, err
	}
	e.publish(ctx, domain.TopicPetCreated, pet, 0, "")
	return pet, nil
}

// Feed decreases hunger by 20 and increases happiness by 10, clamped, then
// records a zero-amount feed transaction. ErrAlreadySold on a sold pet.
func (e *Engine) Feed(ctx context.Context, id int64) (domain.Pet, error) {
	pet, err := e.store.Adjust(ctx, id, feedHappinessDelta, -feedHungerDelta)
	if err != nil {
		return pet, err
	}

	if _, err := e.store.RecordTransaction(ctx, id, domain.KindFeed, 0); err != nil {
		slog.Error("failed to record feed transaction", "pet_id", id, "error", err)
	}
	e.publish(ctx, domain.TopicPetFed, pet, 0, "")

	return pet, nil
}

// Play increases happiness by 50 and hunger by 5, clamped, then records a
// zero-amount play transaction. ErrAlreadySold on a sold pet.
func (e *Engine) Play(ctx context.Context, id int64) (domain.Pet, error) {
	pet, err := e.store.Adjust(ctx, id, playHappinessDelta, playHungerDelta)
	if err != nil {
		return pet, err
	}

	if _, err := e.store.RecordTransaction(ctx, id, domain.KindPlay, 0); err != nil {
		slog.Error("failed to record play transaction", "pet_id", id, "error", err)
	}
	e.publish(ctx, domain.TopicPetPlayed, pet, 0, "")

	return pet, nil
}

// Sell marks the pet sold and records a sale transaction for its price.
// The sale is recorded exactly once: a second call reports ErrAlreadySold
// without mutating the record or the ledger.
func (e *Engine) Sell(ctx context.Context, id int64) (domain.Pet, error) {
	pet, err := e.store.MarkSold(ctx, id)
	if err != nil {
		return pet, err
	}
	e.publish(ctx, domain.TopicPetSold, pet, pet.Price, "")

	return pet, nil
}

// Delete removes the record regardless of sold status and publishes the
// deletion. Reports whether the record existed.
func (e *Engine) Delete(ctx context.Context, id int64) (bool, error) {
	pet, err := e.store.Get(ctx, id)
	if err != nil {
		return false, nil
	}

	existed, err := e.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if existed {
		e.publish(ctx, domain.TopicPetDeleted, pet, 0, "")
	}
	return existed, nil
}

// Decay applies one tick of passive need drift: happiness drops by a uniform
// draw from [0,5), hunger rises by a uniform draw from [0,3), both clamped.
// Sold pets are left untouched. No transaction is recorded.
func (e *Engine) Decay(ctx context.Context, id int64) (domain.Pet, error) {
	e.mu.Lock()
	happinessDrift := e.rng.Float64() * decayHappinessMax
	hungerDrift := e.rng.Float64() * decayHungerMax
	e.mu.Unlock()

	pet, err := e.store.Adjust(ctx, id, -happinessDrift, hungerDrift)
	if errors.Is(err, domain.ErrAlreadySold) {
		return pet, nil
	}
	return pet, err
}

// DecayAll applies one decay tick to every available pet and returns how many
// were touched.
func (e *Engine) DecayAll(ctx context.Context) (int, error) {
	return e.decayEach(ctx, e.store.ListAvailable(ctx))
}

// decayEach runs one decay tick per listed pet. The list is a snapshot, so a
// pet removed mid-pass is skipped rather than aborting the remainder.
func (e *Engine) decayEach(ctx context.Context, pets []domain.Pet) (int, error) {
	touched := 0
	for _, p := range pets {
		if _, err := e.Decay(ctx, p.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return touched, err
		}
		touched++
	}
	return touched, nil
}

func (e *Engine) publish(ctx context.Context, topic string, pet domain.Pet, price float64, rule string) {
	if e.bus == nil {
		return
	}

	payload, err := json.Marshal(domain.PetEvent{
		PetID:     pet.ID,
		Name:      pet.Name,
		Species:   pet.Species,
		Happiness: pet.Happiness,
		Hunger:    pet.Hunger,
		Price:     price,
		Rule:      rule,
	})
	if err != nil {
		return
	}

	if err := e.bus.Publish(ctx, topic, payload); err != nil {
		slog.Error("failed to publish pet event", "topic", topic, "pet_id", pet.ID, "error", err)
	}
}

// WellBeingScore derives the [0,100] well-being metric:
// round(happiness*0.6 + (100-hunger)*0.4).
func WellBeingScore(p domain.Pet) int {
	hungerScore := math.Max(0, 100-p.Hunger)
	return int(math.Round(p.Happiness*0.6 + hungerScore*0.4))
}

// NeedsAttention reports whether the pet is very hungry or unhappy.
// The boundaries themselves (hunger 80, happiness 30) do not trigger it.
func NeedsAttention(p domain.Pet) bool {
	return p.Hunger > 80 || p.Happiness < 30
}

// MoodLabel classifies happiness into a display band.
func MoodLabel(p domain.Pet) string {
	switch {
	case p.Happiness >= 80:
		return "Very Happy"
	case p.Happiness >= 60:
		return "Happy"
	case p.Happiness >= 40:
		return "Content"
	case p.Happiness >= 20:
		return "Sad"
	default:
		return "Very Sad"
	}
}

// HungerLabel classifies hunger into a display band.
func HungerLabel(p domain.Pet) string {
	switch {
	case p.Hunger <= 20:
		return "Well Fed"
	case p.Hunger <= 40:
		return "Satisfied"
	case p.Hunger <= 60:
		return "Peckish"
	case p.Hunger <= 80:
		return "Hungry"
	default:
		return "Starving"
	}
}
