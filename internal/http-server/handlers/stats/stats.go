package stats

import (
	"context"
	"log/slog"
	"net/http"

	"doorcheck/entity"
	"doorcheck/internal/http-server/handlers/errors"
	"doorcheck/lib/api/cont"
	"doorcheck/lib/api/response"
	"doorcheck/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	EventStats(ctx context.Context, op *entity.Operator, eventId string) (*entity.Stats, error)
}

func Event(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventId := chi.URLParam(r, "event")
		logger := log.With(
			sl.Module("http.handlers.stats"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Event(eventId),
		)

		if handler == nil {
			logger.Error("stats service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Stats service not available"))
			return
		}

		stats, err := handler.EventStats(r.Context(), cont.GetOperator(r.Context()), eventId)
		if err != nil {
			errors.Fail(w, r, logger, err)
			return
		}
		render.JSON(w, r, response.Ok(stats))
	}
}
