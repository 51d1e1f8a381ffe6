package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	galleryHandler := handlers.NewGalleryHandler(s.state)
	recognizeHandler := handlers.NewRecognizeHandler(s.state)
	attendanceHandler := handlers.NewAttendanceHandler(s.state)
	countHandler := handlers.NewCountHandler(s.state)
	settingsHandler := handlers.NewSettingsHandler(s.state)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireToken(s.config.APIToken))

		r.Get("/gallery", galleryHandler.List)
		r.Post("/gallery/{name}", galleryHandler.Enroll)
		r.Delete("/gallery/{name}", galleryHandler.Delete)

		r.Post("/recognize", recognizeHandler.Recognize)

		r.Get("/attendance", attendanceHandler.List)
		r.Post("/attendance/export", attendanceHandler.Export)

		r.Get("/count", countHandler.Get)
		r.Delete("/count", countHandler.Reset)

		r.Get("/settings", settingsHandler.Get)
		r.Put("/settings", settingsHandler.Update)

		r.Get("/events", s.events.Stream)
	})
}
