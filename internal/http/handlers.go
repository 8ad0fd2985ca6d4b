package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mongoadapter "github.com/robertarktes/seat-booking-engine/internal/adapters/mongo"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
	"github.com/robertarktes/seat-booking-engine/internal/engine"
	"github.com/robertarktes/seat-booking-engine/internal/idempotency"
	"github.com/robertarktes/seat-booking-engine/internal/jobs"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
)

type Handlers struct {
	eng     *engine.Engine
	sched   *jobs.Scheduler
	idemp   *idempotency.Idempotency
	catalog *mongoadapter.CatalogRepository
	log     observability.Logger
}

func NewHandlers(eng *engine.Engine, sched *jobs.Scheduler, idemp *idempotency.Idempotency, catalog *mongoadapter.CatalogRepository, log observability.Logger) *Handlers {
	return &Handlers{eng: eng, sched: sched, idemp: idemp, catalog: catalog, log: log}
}

func correlationID(r *http.Request) string {
	return r.Header.Get("X-Correlation-Id")
}

// replayed writes the cached response for this Idempotency-Key, if
// any, and reports whether it did.
func (h *Handlers) replayed(w http.ResponseWriter, r *http.Request) bool {
	key := r.Header.Get("Idempotency-Key")
	existing, err := h.idemp.Get(r.Context(), key)
	if err != nil {
		h.log.WithError(err).Warn("idempotency cache read failed")
		return false
	}
	if existing == nil {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(existing.Status)
	w.Write(existing.Result)
	return true
}

func (h *Handlers) remember(r *http.Request, status int, body []byte) {
	key := r.Header.Get("Idempotency-Key")
	if err := h.idemp.Set(r.Context(), key, idempotency.Response{Status: status, Result: body}); err != nil {
		h.log.WithError(err).Warn("idempotency cache write failed")
	}
}

type lockResponse struct {
	LockID    uuid.UUID         `json:"lock_id"`
	EventID   uuid.UUID         `json:"event_id"`
	SeatCount int               `json:"seat_count"`
	Status    domain.LockStatus `json:"status"`
	ExpiresAt string            `json:"expires_at"`
}

func toLockResponse(lock *domain.SeatLock) lockResponse {
	return lockResponse{
		LockID:    lock.ID,
		EventID:   lock.EventID,
		SeatCount: lock.SeatCount,
		Status:    lock.Status,
		ExpiresAt: lock.ExpiresAt.Format(time.RFC3339),
	}
}

func (h *Handlers) CreateLock(w http.ResponseWriter, r *http.Request) {
	if h.replayed(w, r) {
		return
	}

	var req struct {
		EventID     uuid.UUID `json:"event_id"`
		RequesterID uuid.UUID `json:"requester_id"`
		SeatCount   int       `json:"seat_count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}

	lock, err := h.eng.CreateLock(r.Context(), engine.CreateLockInput{
		EventID:        req.EventID,
		RequesterID:    req.RequesterID,
		SeatCount:      req.SeatCount,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		CorrelationID:  correlationID(r),
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	body := writeOK(w, http.StatusCreated, toLockResponse(lock))
	h.remember(r, http.StatusCreated, body)
}

type bookingResponse struct {
	BookingID        uuid.UUID            `json:"booking_id"`
	EventID          uuid.UUID            `json:"event_id"`
	SeatCount        int                  `json:"seat_count"`
	SeatLockID       uuid.UUID            `json:"seat_lock_id"`
	Status           domain.BookingStatus `json:"status"`
	Amount           int64                `json:"amount"`
	RefundAmount     int64                `json:"refund_amount"`
	Currency         string               `json:"currency"`
	PaymentExpiresAt string               `json:"payment_expires_at,omitempty"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		BookingID:    b.ID,
		EventID:      b.EventID,
		SeatCount:    b.SeatCount,
		SeatLockID:   b.SeatLockID,
		Status:       b.Status,
		Amount:       b.Amount,
		RefundAmount: b.RefundAmount,
		Currency:     b.Currency,
	}
	if !b.PaymentExpiresAt.IsZero() {
		resp.PaymentExpiresAt = b.PaymentExpiresAt.Format(time.RFC3339)
	}
	return resp
}

func (h *Handlers) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LockID uuid.UUID `json:"lock_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LockID == uuid.Nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}

	booking, err := h.eng.Confirm(r.Context(), req.LockID, correlationID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusCreated, toBookingResponse(booking))
}

func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookingID uuid.UUID `json:"booking_id"`
		Amount    int64     `json:"amount"`
		Force     string    `json:"force,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}

	result, err := h.eng.CreatePaymentIntent(r.Context(), engine.PaymentIntentInput{
		BookingID:      req.BookingID,
		Amount:         req.Amount,
		ForcedOutcome:  domain.PaymentOutcome(req.Force),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		CorrelationID:  correlationID(r),
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, result)
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}

	booking, err := h.eng.Cancel(r.Context(), id, correlationID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, toBookingResponse(booking))
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}
	booking, err := h.eng.GetBooking(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, toBookingResponse(booking))
}

func (h *Handlers) GetLock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}
	lock, err := h.eng.GetLock(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, toLockResponse(lock))
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}
	event, err := h.eng.GetEvent(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}

	resp := map[string]interface{}{
		"event_id":        event.ID,
		"name":            event.Name,
		"total_seats":     event.TotalSeats,
		"available_seats": event.AvailableSeats,
		"event_date":      event.EventDate.Format(time.RFC3339),
	}
	// Counters are authoritative here; the catalog only decorates.
	if h.catalog != nil {
		if doc, err := h.catalog.GetEvent(r.Context(), id); err == nil {
			resp["description"] = doc.Description
			resp["venue"] = doc.Venue
		}
	}
	writeOK(w, http.StatusOK, resp)
}

func (h *Handlers) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	jobType := chi.URLParam(r, "type")
	res, err := h.sched.RunNow(r.Context(), jobType)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{
		"job":       jobType,
		"processed": res.Processed,
		"errors":    res.Errors,
		"details":   res.Details,
	})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
