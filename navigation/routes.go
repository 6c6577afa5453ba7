package navigation

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteLogin = "/login"

	RouteDashboard     = "/"
	RouteUsers         = "/users"
	RouteSessions      = "/sessions"
	RouteRegistrations = "/registrations"
	RouteSettings      = "/settings"
)

// ProtectedRoutes lists every view that requires an authenticated session.
var ProtectedRoutes = []string{
	RouteDashboard,
	RouteUsers,
	RouteSessions,
	RouteRegistrations,
	RouteSettings,
}
