package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"doorcheck/internal/config"
	"doorcheck/internal/http-server/handlers/checkin"
	"doorcheck/internal/http-server/handlers/errors"
	"doorcheck/internal/http-server/handlers/stats"
	"doorcheck/internal/http-server/middleware/authenticate"
	"doorcheck/internal/http-server/middleware/timeout"
	"doorcheck/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	checkin.Core
	stats.Core
}

// NewRouter builds the API routes; requestTimeout bounds each request context.
func NewRouter(log *slog.Logger, handler Handler, requestTimeout time.Duration) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(requestTimeout))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/health", errors.Health(log))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(authenticate.New(log, handler))
		rootApi.Route("/events/{event}", func(ev chi.Router) {
			ev.Post("/resolve", checkin.Resolve(log, handler))
			ev.Post("/checkin", checkin.Admit(log, handler))
			ev.Get("/stats", stats.Event(log, handler))
		})
		rootApi.Post("/registrations/{id}/checkin", checkin.Commit(log, handler))
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	// commits outlive the request context, the store timeout is enough here
	router := NewRouter(log, handler, 2*conf.CheckInTimeout())

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
