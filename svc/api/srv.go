package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"

	"sealbin/cfg"
	"sealbin/svc/auth"
	"sealbin/svc/db"
	"sealbin/svc/svc"
	"sealbin/svc/util"
)

type Server struct {
	router     *chi.Mux
	cfg        *cfg.Cfg
	httpServer *http.Server
}

func NewServer(c *cfg.Cfg, authority *auth.Authority, pastes *svc.Paste, reports *svc.Report, sqlDB *db.SQLite, rdb *db.Redis) *Server {
	r := chi.NewRouter()
	mw := NewMw(authority, c)
	hdl := NewHdl(pastes, reports, cfgView{
		MaxPasteSize:    c.MaxPasteSize,
		ExpiryRequired:  c.ExpiryRequired,
		MaxExpirySecs:   int64(c.MaxExpiry.Seconds()),
		ReportsEnabled:  c.ReportsEnabled,
		ReportMinLength: c.ReportMinLength,
	})
	health := NewHealth(sqlDB, rdb)

	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Get("/health", health.Live)
		r.Get("/ready", health.Ready)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Handle("/metrics", mw.BasicAuthMetrics(promhttp.Handler()))
	})
	r.Mount("/debug", middleware.Profiler())

	// Everything below shares the request-scoped stack: ids, access logs,
	// timeouts and the browser-facing headers.
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Use(mw.RequestID)
		r.Use(hlog.NewHandler(util.GetLogger()))
		r.Use(hlog.AccessHandler(func(req *http.Request, status, size int, dur time.Duration) {
			hlog.FromRequest(req).Info().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Int("status", status).
				Int("size", size).
				Dur("duration", dur).
				Str("request_id", util.GetRequestID(req.Context())).
				Msg("http request")
		}))
		if len(c.TrustedProxies) > 0 {
			r.Use(middleware.RealIP)
		}
		r.Use(mw.ContextTimeout)
		r.Use(mw.SecurityHeaders)
		r.Use(mw.CORS)
		r.Use(mw.Durations)

		// Clients need the limits before they hold a token, so /config is
		// deliberately unauthenticated.
		r.Get("/config", hdl.Config)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAPIToken)
			r.Post("/pastes", hdl.CreatePaste)
			r.Get("/pastes/{id}", hdl.GetPaste)
			r.Delete("/pastes/{id}", hdl.DeletePaste)
			r.Post("/pastes/{id}/report", hdl.ReportPaste)
			r.Get("/statistics", hdl.Statistics)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireAdminToken)
			r.Get("/reports", hdl.ListReports)
			r.Get("/reports/{id}", hdl.GetReport)
			r.Delete("/reports/{id}", hdl.DeleteReport)
			r.Delete("/pastes/{id}", hdl.AdminDeletePaste)
		})
	})

	return &Server{
		router: r,
		cfg:    c,
		httpServer: &http.Server{
			Addr:           ":" + c.Port,
			Handler:        r,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 256 * 1024,
		},
	}
}
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
func (s *Server) Start() error {
	util.Info().Str("port", s.cfg.Port).Msg("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		util.Error().Err(err).Str("port", s.cfg.Port).Msg("server failed to start")
		return err
	}
	return nil
}
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
