// Package eventapi serves read-only roster views over HTTP.
package eventapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	authdomain "github.com/Black-And-White-Club/roster-bot/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/roster-bot/app/modules/auth/infrastructure/handlers"
	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Reader loads events for display.
type Reader interface {
	GetEvent(ctx context.Context, key eventdomain.Key) (*eventdomain.EventRecord, error)
}

// Handler serves /events.
type Handler struct {
	reader Reader
	logger *slog.Logger
	tracer trace.Tracer
}

// NewHandler creates a new Handler.
func NewHandler(reader Reader, logger *slog.Logger, tracer trace.Tracer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{reader: reader, logger: logger, tracer: tracer}
}

// Routes registers the event endpoints on r. Callers install authentication first.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/events/{key}", h.GetEvent)
	r.Get("/events/{key}/roster.xlsx", h.GetRosterWorkbook)
	r.Get("/events/{key}/composition.png", h.GetComposition)
}

// GetEvent returns the roster view of one event as JSON.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r, "EventAPI.GetEvent")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rosterevents.NewRosterView(rec)); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to encode event", attr.Error(err))
	}
}

// GetRosterWorkbook exports the roster as an XLSX workbook.
func (h *Handler) GetRosterWorkbook(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r, "EventAPI.GetRosterWorkbook")
	if !ok {
		return
	}
	data, err := RosterWorkbook(rec)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to build roster workbook",
			attr.EventKey(rec.Key().String()),
			attr.Error(err),
		)
		http.Error(w, "Failed to build workbook", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "roster-"+rec.MessageID+".xlsx"))
	_, _ = w.Write(data)
}

// GetComposition renders the fill of every signed role as a PNG bar chart.
func (h *Handler) GetComposition(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r, "EventAPI.GetComposition")
	if !ok {
		return
	}
	data, err := CompositionChart(rec)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render composition chart",
			attr.EventKey(rec.Key().String()),
			attr.Error(err),
		)
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// load resolves {key} and enforces visibility. It writes the error response itself.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, span string) (*eventdomain.EventRecord, bool) {
	ctx := r.Context()
	if h.tracer != nil {
		var s trace.Span
		ctx, s = h.tracer.Start(ctx, span)
		defer s.End()
	}

	key, err := eventdomain.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		http.Error(w, "Malformed event key", http.StatusBadRequest)
		return nil, false
	}

	rec, err := h.reader.GetEvent(ctx, key)
	if err != nil {
		if errors.Is(err, eventdomain.ErrNotAnEvent) {
			http.Error(w, "Event not found", http.StatusNotFound)
			return nil, false
		}
		h.logger.ErrorContext(ctx, "Failed to load event",
			attr.EventKey(key.String()),
			attr.Error(err),
		)
		http.Error(w, "Failed to load event", http.StatusInternalServerError)
		return nil, false
	}

	if !canView(ctx, rec) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}
	return rec, true
}

// canView hides private rosters from everyone but their leader and admins.
func canView(ctx context.Context, rec *eventdomain.EventRecord) bool {
	if rec.Scope != eventdomain.ScopePrivate {
		return true
	}
	claims, ok := authhandlers.ClaimsFromContext(ctx)
	if !ok {
		return false
	}
	return rec.IsLeader(claims.UserID) || claims.Role.Allows(authdomain.RoleAdmin)
}
