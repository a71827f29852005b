package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	identitiesHandler := handlers.NewIdentitiesHandler(s.engine)
	attendanceHandler := handlers.NewAttendanceHandler(s.engine)
	configHandler := handlers.NewConfigHandler(s.config, s.engine)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/config", configHandler.Get)

		// Identities
		r.Get("/identities", identitiesHandler.List)
		r.Post("/identities", identitiesHandler.Enroll)
		r.Get("/identities/search", identitiesHandler.Search)
		r.Post("/identities/similar", identitiesHandler.Similar)
		r.Get("/identities/{id}", identitiesHandler.Get)

		// Attendance
		r.Post("/attendance", attendanceHandler.Mark)
		r.Get("/attendance/today", attendanceHandler.Today)
		r.Get("/attendance/history", attendanceHandler.History)
	})
}
