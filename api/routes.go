package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes registers the public procedures, the admin procedures behind
// the auth middleware, and the operational endpoints
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware, router router) {
	r.Get("/healthz", handlers.healthHandler.healthz())
	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Get("/projects", handlers.projectHandler.getAllProjects())
		r.Get("/projects/status/{status}", handlers.projectHandler.getProjectsByStatus())
		r.Get("/projects/featured", handlers.projectHandler.getProjectsByFeatured())
		r.Get("/projects/search", handlers.projectHandler.searchProjects())
		r.Get("/project/{projectID}", handlers.projectHandler.getProject())

		r.Get("/technologies", handlers.technologyHandler.getAllTechnologies())
		r.Get("/technologies/category/{category}", handlers.technologyHandler.getTechnologiesByCategory())
		r.Get("/technologies/search", handlers.technologyHandler.searchTechnologies())
		r.Get("/technology/{technologyID}", handlers.technologyHandler.getTechnology())

		r.Get("/uploads", handlers.uploadHandler.getAllFiles())
		r.Get("/upload/{uploadID}", handlers.uploadHandler.getFile())

		// signed by the storage integration, not by an admin session
		r.Post("/uploads/complete", handlers.uploadHandler.completeUpload())

		r.With(rateLimit(router.contactLimiter, "contact")).
			Post("/messages", handlers.messageHandler.createMessage())
		r.With(rateLimit(router.loginLimiter, "login")).
			Post("/auth/login", handlers.authHandler.login())
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)
		r.Use(authMiddleware.authenticate)

		r.Get("/auth/session", handlers.authHandler.session())

		r.Post("/project", handlers.projectHandler.createProject())
		r.Put("/project/{projectID}", handlers.projectHandler.updateProject())
		r.Delete("/project/{projectID}", handlers.projectHandler.deleteProject())

		r.Post("/technology", handlers.technologyHandler.createTechnology())
		r.Put("/technology/{technologyID}", handlers.technologyHandler.updateTechnology())
		r.Delete("/technology/{technologyID}", handlers.technologyHandler.deleteTechnology())

		r.Get("/messages", handlers.messageHandler.getAllMessages())
		r.Get("/message/{messageID}", handlers.messageHandler.getMessage())
		r.Delete("/message/{messageID}", handlers.messageHandler.deleteMessage())

		r.Post("/upload", handlers.uploadHandler.saveFile())
		r.Post("/uploads/presign", handlers.uploadHandler.presignUpload())

		r.Get("/dashboard/stats", handlers.dashboardHandler.getStats())
	})
}
