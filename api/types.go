package api

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler    projectHandler
	technologyHandler technologyHandler
	messageHandler    messageHandler
	uploadHandler     uploadHandler
	dashboardHandler  dashboardHandler
	authHandler       authHandler
	healthHandler     healthHandler
}

// ErrorResponse is the body of every error answer. Server errors carry only
// the error message.
type ErrorResponse struct {
	Error   string `json:"error" example:"Project not created"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Missing required field: title"`
}
