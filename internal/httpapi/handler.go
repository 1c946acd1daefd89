package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/study-tracker/internal/export"
	sharederrors "github.com/focusnest/study-tracker/internal/platform/errors"
	"github.com/focusnest/study-tracker/internal/platform/metrics"
	"github.com/focusnest/study-tracker/internal/progress"
	"github.com/focusnest/study-tracker/internal/reward"
)

const maxStructurePayloadBytes = 1 << 20 // 1MB

// Deps groups what the routes need. Exporter and Metrics may be nil.
type Deps struct {
	Service   *progress.Service
	Spinners  *reward.Registry
	Exporter  export.Exporter
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	RateLimit RateLimit
}

// RateLimit bounds write requests per user.
type RateLimit struct {
	PerSecond float64
	Burst     int
}

type handler struct {
	service  *progress.Service
	spinners *reward.Registry
	exporter export.Exporter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

type weeksResponse struct {
	Current string                 `json:"current"`
	Weeks   []progress.WeekSummary `json:"weeks"`
}

type weekResponse struct {
	progress.WeekView
	Interactive bool `json:"interactive"`
}

type rewardRequest struct {
	Value string `json:"value"`
}

type structureItemRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Total any    `json:"total"`
}

type structureCategoryRequest struct {
	ID    string                 `json:"id"`
	Label string                 `json:"label"`
	Color string                 `json:"color"`
	Icon  string                 `json:"icon"`
	Items []structureItemRequest `json:"items"`
}

type spinResponse struct {
	reward.Result
	Candidates progress.Rewards `json:"candidates"`
}

type exportResponse struct {
	Location string `json:"location"`
}

// RegisterRoutes registers the week, reward and export routes.
func RegisterRoutes(r chi.Router, deps Deps) {
	h := &handler{
		service:  deps.Service,
		spinners: deps.Spinners,
		exporter: deps.Exporter,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		now:      time.Now,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	limiter := newWriteLimiter(deps.RateLimit.PerSecond, deps.RateLimit.Burst)

	r.Route("/v1/weeks", func(r chi.Router) {
		r.Get("/", h.listWeeks)

		r.Route("/{weekID}", func(r chi.Router) {
			r.Get("/", h.getWeek)

			r.Group(func(r chi.Router) {
				r.Use(limiter.middleware)
				r.Post("/items/{itemID}/blocks/{index}/toggle", h.toggleBlock)
				r.Put("/rewards/{index}", h.updateReward)
				r.Put("/structure", h.saveStructure)
				r.Post("/spin", h.spin)
				r.Post("/export", h.exportWeek)
			})
		})
	})

	r.Get("/v1/spin", h.spinState)
}

func (h *handler) listWeeks(w http.ResponseWriter, _ *http.Request) {
	current := h.service.Calendar().Current(h.now())
	writeJSON(w, http.StatusOK, weeksResponse{Current: current.ID, Weeks: h.service.Weeks()})
}

func (h *handler) getWeek(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Week(chi.URLParam(r, "weekID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	printMode, _ := strconv.ParseBool(r.URL.Query().Get("print"))
	writeJSON(w, http.StatusOK, weekResponse{WeekView: view, Interactive: !printMode})
}

func (h *handler) toggleBlock(w http.ResponseWriter, r *http.Request) {
	weekID := chi.URLParam(r, "weekID")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, "block index must be an integer")
		return
	}

	if _, err := h.service.ToggleBlock(r.Context(), weekID, chi.URLParam(r, "itemID"), index); err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.respondWeek(w, r, weekID)
}

func (h *handler) updateReward(w http.ResponseWriter, r *http.Request) {
	weekID := chi.URLParam(r, "weekID")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, "reward index must be an integer")
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, "invalid JSON body")
		return
	}

	if _, err := h.service.UpdateReward(r.Context(), weekID, index, req.Value); err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.respondWeek(w, r, weekID)
}

func (h *handler) saveStructure(w http.ResponseWriter, r *http.Request) {
	weekID := chi.URLParam(r, "weekID")

	var req []structureCategoryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStructurePayloadBytes)).Decode(&req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, "invalid JSON body")
		return
	}

	if _, err := h.service.SaveStructure(r.Context(), weekID, toStructure(req)); err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.respondWeek(w, r, weekID)
}

// toStructure converts the edit form, coercing non-numeric or negative totals to 0.
func toStructure(req []structureCategoryRequest) []progress.Category {
	structure := make([]progress.Category, 0, len(req))
	for _, c := range req {
		cat := progress.Category{ID: c.ID, Label: c.Label, Color: c.Color, Icon: c.Icon, Items: make([]progress.Item, 0, len(c.Items))}
		for _, it := range c.Items {
			cat.Items = append(cat.Items, progress.Item{ID: it.ID, Name: it.Name, Total: progress.CoerceCount(it.Total)})
		}
		structure = append(structure, cat)
	}
	return structure
}

func (h *handler) spin(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Week(chi.URLParam(r, "weekID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !view.AllComplete {
		h.recordSpin("locked")
		writeError(w, r, sharederrors.CodeLocked, "rewards unlock when every category reaches 100%")
		return
	}

	result, err := h.spinners.For(userKey(r)).Spin(r.Context(), view.Rewards)
	if err != nil {
		switch {
		case errors.Is(err, reward.ErrSpinInFlight):
			h.recordSpin("busy")
		default:
			h.recordSpin("abandoned")
		}
		respondServiceError(w, r, err)
		return
	}

	h.recordSpin("resolved")
	writeJSON(w, http.StatusOK, spinResponse{Result: result, Candidates: view.Rewards})
}

func (h *handler) spinState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.spinners.For(userKey(r)).State())
}

func (h *handler) exportWeek(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		respondServiceError(w, r, export.ErrDisabled)
		return
	}

	view, err := h.service.Week(chi.URLParam(r, "weekID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	location, err := h.exporter.Export(r.Context(), export.NewReport(view, h.now()))
	if err != nil {
		h.logger.Error("report export failed", "week_id", view.Week.ID, "error", err)
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, exportResponse{Location: location})
}

func (h *handler) respondWeek(w http.ResponseWriter, r *http.Request, weekID string) {
	view, err := h.service.Week(weekID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weekResponse{WeekView: view, Interactive: true})
}

func (h *handler) recordSpin(result string) {
	if h.metrics != nil {
		h.metrics.RewardSpins.WithLabelValues(result).Inc()
	}
}
