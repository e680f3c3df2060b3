package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/aliyuchatgptt/falgates/internal/web/handlers"
)

func (s *Server) setupRoutes(deps Deps) {
	enrollHandler := handlers.NewEnrollHandler(deps.Config, deps.Gate, deps.Enroller)
	staffHandler := handlers.NewStaffHandler(deps.StaffStore, deps.Settings, deps.Searcher, deps.Index)
	verifyHandler := handlers.NewVerifyHandler(deps.Orchestrator)
	checkinHandler := handlers.NewCheckInHandler(deps.Recorder)
	settingsHandler := handlers.NewSettingsHandler(deps.Settings, deps.Searcher)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Enrollment capture sessions
		r.Post("/enroll/sessions", enrollHandler.CreateSession)
		r.Get("/enroll/sessions/{id}", enrollHandler.GetSession)
		r.Post("/enroll/sessions/{id}/captures", enrollHandler.SubmitCapture)
		r.Post("/enroll/sessions/{id}/retake", enrollHandler.Retake)
		r.Post("/enroll/sessions/{id}/angle", enrollHandler.SelectAngle)
		r.Post("/enroll/sessions/{id}/finalize", enrollHandler.Finalize)
		r.Delete("/enroll/sessions/{id}", enrollHandler.Abandon)

		// Staff administration
		r.Get("/staff", staffHandler.List)
		r.Get("/staff/units", staffHandler.Units)
		r.Get("/staff/{id}", staffHandler.Get)
		r.Delete("/staff/{id}", staffHandler.Delete)
		r.Get("/staff/{id}/similar", staffHandler.Similar)

		// Verification
		r.Post("/verify", verifyHandler.Verify)
		r.Post("/verify/cancel", verifyHandler.Cancel)
		r.Get("/verify/state", verifyHandler.State)

		// Check-in history
		r.Get("/checkins", checkinHandler.List)

		// Oracle configuration
		r.Get("/settings/recognition", settingsHandler.Get)
		r.Put("/settings/recognition", settingsHandler.Update)
		r.Post("/settings/recognition/collection", settingsHandler.CreateCollection)
	})
}
