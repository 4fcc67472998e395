package api

import (
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/database"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, router router) *routeHandlers {
	var checker credentialChecker
	if router.authenticator != nil {
		checker = router.authenticator
	}

	return &routeHandlers{
		projectHandler:    newProjectHandler(database.ProjectRepo()),
		technologyHandler: newTechnologyHandler(database.TechnologyRepo()),
		messageHandler:    newMessageHandler(database.MessageRepo(), router.notifier),
		uploadHandler: newUploadHandler(
			database.UploadRepo(),
			router.fileStore,
			config.GetString(router.config, "UPLOAD_CALLBACK_SECRET", ""),
		),
		dashboardHandler: newDashboardHandler(database.DashboardRepo()),
		authHandler:      newAuthHandler(checker),
		healthHandler:    newHealthHandler(database, router.startupTime),
	}
}
