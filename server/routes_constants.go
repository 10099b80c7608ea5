package server

// Route path constants
const (
	RouteOAuth2Authorize = "/oauth2/authorize"
	RouteHealth          = "/healthz"
	RouteMetrics         = "/metrics"
)
