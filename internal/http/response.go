package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/robertarktes/seat-booking-engine/internal/domain"
)

// envelope is the closed result shape: {ok,data} on success,
// {ok:false,error,message} with one error code per taxonomy entry
// otherwise.
type envelope struct {
	OK      bool        `json:"ok"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeOK(w http.ResponseWriter, status int, data interface{}) []byte {
	body, _ := json.Marshal(envelope{OK: true, Data: data})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
	return body
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrTransactionAborted),
		errors.Is(err, domain.ErrJobAlreadyRunning):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOrExpiredLock),
		errors.Is(err, domain.ErrLockExpired),
		errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}

	body, _ := json.Marshal(envelope{OK: false, Error: domain.ErrorCode(err), Message: err.Error()})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
