// Package keeper runs the periodic care loop: passive need drift for every
// available pet, followed by attention rule evaluation.
package keeper

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/happy-paws/petshop/internal/alerts"
	"github.com/happy-paws/petshop/internal/domain"
	"github.com/happy-paws/petshop/internal/petcare"
	"github.com/happy-paws/petshop/internal/store"
)

// Keeper drives decay ticks on a fixed interval.
type Keeper struct {
	store  *store.Store
	engine *petcare.Engine
	alerts *alerts.Engine
	bus    domain.EventBus

	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a keeper. alerts and bus may be nil; without them a tick only
// applies decay.
func New(st *store.Store, engine *petcare.Engine, alertEngine *alerts.Engine, bus domain.EventBus, interval time.Duration) *Keeper {
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Keeper{
		store:    st,
		engine:   engine,
		alerts:   alertEngine,
		bus:      bus,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the tick loop in a background goroutine.
func (k *Keeper) Start() {
	k.wg.Add(1)
	go func() {
		defer k.wg.Done()

		ticker := time.NewTicker(k.interval)
		defer ticker.Stop()

		slog.Info("keeper started", "interval", k.interval)

		for {
			select {
			case <-k.ctx.Done():
				return
			case <-ticker.C:
				if _, _, err := k.Tick(k.ctx); err != nil {
					slog.Error("decay tick failed", "error", err)
				}
			}
		}
	}()
}

// Tick applies one decay pass over all available pets, then evaluates the
// attention rules and publishes an attention event for each pet that fires.
// Returns how many pets were decayed and how many were flagged.
func (k *Keeper) Tick(ctx context.Context) (touched, flagged int, err error) {
	start := time.Now()

	touched, err = k.engine.DecayAll(ctx)
	if err != nil {
		return 0, 0, err
	}
	if k.alerts != nil && k.alerts.RulesCount() > 0 {
		for _, pet := range k.store.ListAvailable(ctx) {
			triggered, ruleName := k.alerts.Triggered(pet)
			if !triggered {
				continue
			}
			flagged++
			k.publishAttention(ctx, pet, ruleName)
		}
	}

	slog.Debug("decay tick complete",
		"pets", touched,
		"flagged", flagged,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return touched, flagged, nil
}

// Stop halts the tick loop and waits for the current tick to finish.
func (k *Keeper) Stop() {
	k.cancel()
	k.wg.Wait()
	slog.Info("keeper stopped")
}

func (k *Keeper) publishAttention(ctx context.Context, pet domain.Pet, ruleName string) {
	if k.bus == nil {
		return
	}

	payload, err := json.Marshal(domain.PetEvent{
		PetID:     pet.ID,
		Name:      pet.Name,
		Species:   pet.Species,
		Happiness: pet.Happiness,
		Hunger:    pet.Hunger,
		Rule:      ruleName,
	})
	if err != nil {
		return
	}

	if err := k.bus.Publish(ctx, domain.TopicPetAttention, payload); err != nil {
		slog.Error("failed to publish attention event",
			"pet_id", pet.ID,
			"error", err,
		)
	}
}
