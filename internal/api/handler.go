package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/happy-paws/petshop/internal/alerts"
	"github.com/happy-paws/petshop/internal/domain"
	"github.com/happy-paws/petshop/internal/keeper"
	"github.com/happy-paws/petshop/internal/petcare"
	"github.com/happy-paws/petshop/internal/store"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	store   *store.Store
	engine  *petcare.Engine
	alerts  *alerts.Engine
	keeper  *keeper.Keeper
	version string
}

// NewHandler creates a new API handler.
func NewHandler(st *store.Store, engine *petcare.Engine, alertEngine *alerts.Engine, kpr *keeper.Keeper, version string) *Handler {
	return &Handler{
		store:   st,
		engine:  engine,
		alerts:  alertEngine,
		keeper:  kpr,
		version: version,
	}
}

// PetView is a pet record plus its derived presentation fields.
type PetView struct {
	domain.Pet
	Emoji          string `json:"emoji"`
	WellBeing      int    `json:"wellBeingScore"`
	Mood           string `json:"mood"`
	HungerStatus   string `json:"hungerStatus"`
	NeedsAttention bool   `json:"needsAttention"`
}

func viewOf(p domain.Pet) PetView {
	return PetView{
		Pet:            p,
		Emoji:          p.Species.Emoji(),
		WellBeing:      petcare.WellBeingScore(p),
		Mood:           petcare.MoodLabel(p),
		HungerStatus:   petcare.HungerLabel(p),
		NeedsAttention: petcare.NeedsAttention(p),
	}
}

func viewsOf(pets []domain.Pet) []PetView {
	out := make([]PetView, len(pets))
	for i, p := range pets {
		out[i] = viewOf(p)
	}
	return out
}

// CreatePet handles POST /pets.
func (h *Handler) CreatePet(w http.ResponseWriter, r *http.Request) {
	var in domain.PetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	pet, err := h.engine.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, viewOf(pet))
}

// ListPets handles GET /pets.
func (h *Handler) ListPets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewsOf(h.store.ListAll(r.Context())))
}

// ListAvailablePets handles GET /pets/available.
func (h *Handler) ListAvailablePets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewsOf(h.store.ListAvailable(r.Context())))
}

// ListSoldPets handles GET /pets/sold.
func (h *Handler) ListSoldPets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewsOf(h.store.ListSold(r.Context())))
}

// GetPet handles GET /pets/{id}.
func (h *Handler) GetPet(w http.ResponseWriter, r *http.Request) {
	id, ok := petID(w, r)
	if !ok {
		return
	}

	pet, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(pet))
}

// UpdatePet handles PATCH /pets/{id}.
func (h *Handler) UpdatePet(w http.ResponseWriter, r *http.Request) {
	id, ok := petID(w, r)
	if !ok {
		return
	}

	var upd domain.PetUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	pet, err := h.store.Update(r.Context(), id, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(pet))
}

// DeletePet handles DELETE /pets/{id}.
func (h *Handler) DeletePet(w http.ResponseWriter, r *http.Request) {
	id, ok := petID(w, r)
	if !ok {
		return
	}

	existed, err := h.engine.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !existed {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "pet not found",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// FeedPet handles POST /pets/{id}/feed.
func (h *Handler) FeedPet(w http.ResponseWriter, r *http.Request) {
	h.careAction(w, r, h.engine.Feed)
}

// PlayPet handles POST /pets/{id}/play.
func (h *Handler) PlayPet(w http.ResponseWriter, r *http.Request) {
	h.careAction(w, r, h.engine.Play)
}

// SellPet handles POST /pets/{id}/sell.
func (h *Handler) SellPet(w http.ResponseWriter, r *http.Request) {
	id, ok := petID(w, r)
	if !ok {
		return
	}

	pet, err := h.engine.Sell(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		PetView
		TotalSales float64 `json:"totalSales"`
	}{
		PetView:    viewOf(pet),
		TotalSales: h.store.TotalSales(r.Context()),
	})
}

func (h *Handler) careAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id int64) (domain.Pet, error)) {
	id, ok := petID(w, r)
	if !ok {
		return
	}

	pet, err := action(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(pet))
}

// DecayTick handles POST /decay: one decay pass over all available pets.
func (h *Handler) DecayTick(w http.ResponseWriter, r *http.Request) {
	if h.keeper != nil {
		touched, flagged, err := h.keeper.Tick(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{
			"decayed": touched,
			"flagged": flagged,
		})
		return
	}

	touched, err := h.engine.DecayAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"decayed": touched})
}

// ListTransactions handles GET /transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Transactions(r.Context()))
}

// TotalSales handles GET /sales/total.
func (h *Handler) TotalSales(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{
		"totalSales": h.store.TotalSales(r.Context()),
	})
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	total, available, sold := h.store.Counts(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"totalPets":     total,
		"availablePets": available,
		"soldPets":      sold,
		"totalSales":    h.store.TotalSales(r.Context()),
		"version":       h.version,
	})
}

// ExportSnapshot handles GET /export. The response is the full store state
// plus the export date, offered as a downloadable backup file.
func (h *Handler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("petshop_backup_%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ImportSnapshot handles POST /import. Malformed input leaves the store
// untouched and is reported as a 400.
func (h *Handler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
		return
	}

	if err := h.store.Import(r.Context(), data); err != nil {
		writeError(w, err)
		return
	}

	total, _, _ := h.store.Counts(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"imported": true,
		"pets":     total,
	})
}

// Clear handles POST /clear.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

// Save handles POST /save: an explicit write of the current state.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Persist(r.Context()); err != nil {
		slog.Error("failed to persist store", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save store state",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

// Load handles POST /load: re-reads the persisted snapshot into memory.
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Restore(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load store state",
		})
		return
	}

	total, _, _ := h.store.Counts(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"loaded": true,
		"pets":   total,
	})
}

// ListAlertRules handles GET /alerts/rules.
func (h *Handler) ListAlertRules(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		writeJSON(w, http.StatusOK, []*domain.AlertRule{})
		return
	}
	writeJSON(w, http.StatusOK, h.alerts.Rules())
}

// CreateAlertRule handles POST /alerts/rules.
func (h *Handler) CreateAlertRule(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "alert engine not available",
		})
		return
	}

	var rule domain.AlertRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if rule.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "expression is required",
		})
		return
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	rule.Enabled = true

	if err := h.alerts.LoadRule(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if err := h.store.Ping(r.Context()); err != nil {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// petID parses the {id} route parameter, writing a 400 on garbage input.
func petID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid pet id",
		})
		return 0, false
	}
	return id, true
}

// writeError maps domain errors to HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "validation failed",
			"violations": verr.Violations,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "pet not found",
		})
	case errors.Is(err, domain.ErrAlreadySold):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "pet already sold",
		})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
