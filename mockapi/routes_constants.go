package mockapi

// Route path constants
// All API routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthLogin   = "/api/v1/auth/login"
	RouteAuthLogout  = "/api/v1/auth/logout"
	RouteAuthMe      = "/api/v1/auth/me"
	RouteAuthRefresh = "/api/v1/auth/refresh"

	// Admin dashboard routes
	RouteUsers              = "/api/v1/admin-dashboard/users"
	RouteUser               = RouteUsers + "/{id}"
	RouteUserUpdate         = RouteUsers + "/name/{id}"
	RouteSessions           = "/api/v1/admin-dashboard/sessions"
	RouteSession            = RouteSessions + "/{id}"
	RouteSessionUpdate      = RouteSessions + "/name/{id}"
	RouteRegistrations      = "/api/v1/admin-dashboard/registrations"
	RouteRegistration       = RouteRegistrations + "/{id}"
	RouteRegistrationUpdate = RouteRegistrations + "/name/{id}"
)
