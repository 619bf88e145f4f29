// Package http is the REST and server-sent-events entry point of the engine.
//
// Every route under /api/v1 is authenticated by CallerMiddleware and validated
// against the embedded OpenAPI contract before it reaches a handler.
//
//	@title			Dispatch Engine API
//	@version		1.0
//	@BasePath		/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in				header
//	@name			Authorization
package http

import (
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/ports"

	"github.com/labstack/echo/v4"
)

// Handlers groups the use cases the server dispatches to.
type Handlers struct {
	CreateOrder     commands.CreateOrderCommandHandler
	MarkReady       commands.MarkReadyCommandHandler
	ExpressInterest commands.ExpressInterestCommandHandler
	ManagerAssign   commands.ManagerAssignCommandHandler
	ForceAutoAssign commands.ForceAutoAssignCommandHandler
	MarkDelivered   commands.MarkDeliveredCommandHandler
	CancelOrder     commands.CancelOrderCommandHandler
	RateDriver      commands.RateDriverCommandHandler
	UpdatePosition  commands.UpdatePositionCommandHandler

	GetOrder           queries.GetOrderQueryHandler
	ListOrders         queries.ListOrdersQueryHandler
	GetOrderCandidates queries.GetOrderCandidatesQueryHandler
	GetTimerStatus     queries.GetTimerStatusQueryHandler
	GetAgentStats      queries.GetAgentStatsQueryHandler
	GetAgentPosition   queries.GetAgentPositionQueryHandler
	ListActiveTimers   queries.ListActiveTimersQueryHandler
}

type requestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Server implements the HTTP handlers on top of the application use cases.
type Server struct {
	h      Handlers
	events ports.EventStream
	clock  ports.Clock
	logger *slog.Logger

	heartbeat time.Duration
}

func NewServer(h Handlers, events ports.EventStream, clock ports.Clock, logger *slog.Logger) *Server {
	return &Server{
		h:         h,
		events:    events,
		clock:     clock,
		logger:    logger.With("component", "http"),
		heartbeat: 15 * time.Second,
	}
}

// Register mounts the API on g. Pass the middleware that should run after
// authentication, typically the OpenAPI RequestValidator.
func (s *Server) Register(g *echo.Group) {
	g.POST("/orders", s.CreateOrder)
	g.GET("/orders", s.ListOrders)
	g.GET("/orders/:order_id", s.GetOrder)
	g.POST("/orders/:order_id/ready", s.MarkReady)
	g.POST("/orders/:order_id/interest", s.ExpressInterest)
	g.POST("/orders/:order_id/assign", s.ManagerAssign)
	g.POST("/orders/:order_id/auto-assign", s.ForceAutoAssign)
	g.POST("/orders/:order_id/delivered", s.MarkDelivered)
	g.POST("/orders/:order_id/cancel", s.CancelOrder)
	g.POST("/orders/:order_id/rating", s.RateDriver)
	g.GET("/orders/:order_id/candidates", s.GetOrderCandidates)
	g.GET("/orders/:order_id/timer", s.GetTimerStatus)

	g.GET("/drivers/:driver_id/stats", s.GetAgentStats)
	g.PUT("/drivers/me/position", s.UpdatePosition)
	g.GET("/drivers/me/position", s.GetMyPosition)

	g.GET("/debug/timers", s.ListActiveTimers)
	g.GET("/events", s.StreamEvents)
}

// RequestMetrics records latency per route template.
func RequestMetrics(observer requestObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			observer.ObserveRequest(c.Request().Method, c.Path(), status, time.Since(start))
			return err
		}
	}
}
