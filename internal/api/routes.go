package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/zapponejosh/pathshala-api/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET  /health
//	GET  /api/v1/dates/today
//	GET  /api/v1/dates/{date}
//	GET  /api/v1/convert?ad=|bs=&style=
//	GET  /api/v1/calendar/{bsYear}/{bsMonth}
//	GET  /api/v1/events
//	POST /api/v1/events                              (API key)
//	POST /api/v1/events/{id}/deactivate              (API key)
//	POST /api/v1/events/{id}/activate                (API key)
//	PUT  /api/v1/events/categories/{type}            (API key)
//	POST /api/v1/attendance                          (API key)
//	POST /api/v1/attendance/batch                    (API key)
//	POST /api/v1/attendance/clean                    (API key)
//	GET  /api/v1/attendance/students/{studentID}
//	GET  /api/v1/attendance/students/{studentID}/summary
//
// Every /api/v1 route is scoped to a school by ?school=, X-School-ID or
// the SCHOOL_ID default.
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		SchoolScopeMiddleware(cfg),
		chimw.RealIP,
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)

	authWrap := AuthMiddleware(cfg, logger)

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		// ======================================================================
		// Public routes
		// ======================================================================
		r.Get("/dates/today", handlers.GetToday)
		r.Get("/dates/{date}", handlers.GetDate)
		r.Get("/convert", handlers.Convert)
		r.Get("/calendar/{bsYear}/{bsMonth}", handlers.GetMonth)
		r.Get("/events", handlers.ListEvents)
		r.Get("/attendance/students/{studentID}", handlers.ListStudentAttendance)
		r.Get("/attendance/students/{studentID}/summary", handlers.GetStudentSummary)

		// ======================================================================
		// Write routes (API key)
		// ======================================================================
		r.Group(func(r chi.Router) {
			r.Use(authWrap)

			r.Post("/events", handlers.CreateEvent)
			r.Post("/events/{id}/deactivate", handlers.DeactivateEvent)
			r.Post("/events/{id}/activate", handlers.ActivateEvent)
			r.Put("/events/categories/{type}", handlers.ReplaceCategory)

			r.Post("/attendance", handlers.MarkAttendance)
			r.Post("/attendance/batch", handlers.MarkAttendanceBatch)
			r.Post("/attendance/clean", handlers.CleanAttendance)
		})
	})

	return r
}
