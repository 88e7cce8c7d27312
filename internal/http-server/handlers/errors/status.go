package errors

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"doorcheck/entity"
	"doorcheck/lib/api/response"
	"doorcheck/lib/sl"

	"github.com/go-chi/render"
)

type tooEarly struct {
	OpensAt time.Time `json:"opens_at"`
}

// Fail writes the status and message for a check-in error. Errors without a
// domain meaning are logged and answered with a generic 500.
func Fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var early *entity.TooEarlyError
	switch {
	case stderrors.As(err, &early):
		logger.Info("too early", slog.Time("opens_at", early.OpensAt))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.ErrorWith("Check-in has not opened yet", tooEarly{OpensAt: early.OpensAt}))
	case stderrors.Is(err, entity.ErrInvalidFormat):
		logger.Debug("invalid ticket code", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid ticket code format"))
	case stderrors.Is(err, entity.ErrNotFound):
		logger.Info("ticket not found")
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Ticket not found"))
	case stderrors.Is(err, entity.ErrForbidden):
		logger.Warn("operator not allowed", sl.Err(err))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("Operator is not allowed to check in"))
	case stderrors.Is(err, entity.ErrTransientIO):
		logger.Warn("storage unavailable", sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("Storage temporarily unavailable, try again"))
	default:
		logger.Error("request failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal error"))
	}
}
