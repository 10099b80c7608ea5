package server

import (
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	s.router.Use(
		middleware.RequestID,
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.FrameSecurityMiddleware,
		s.CorsMiddleware,
	)

	s.router.Get(RouteHealth, s.Health())
	s.router.Handle(RouteMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// OAuth2 routes
	s.router.Get(RouteOAuth2Authorize, s.Authorize())
	s.router.Post(RouteOAuth2Authorize, s.Authorize())
}
