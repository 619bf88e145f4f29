package http

import (
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// PositionReport leaves both fields optional so that a missing coordinate is
// reported as such instead of being read as zero.
type PositionReport struct {
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
}

// GetAgentStats handles GET /api/v1/drivers/{driver_id}/stats.
//
//	@Summary	Driver quality record
//	@Tags		drivers
//	@Produce	json
//	@Param		driver_id	path		string	true	"Driver id"
//	@Success	200			{object}	queries.AgentStatsView
//	@Security	BearerAuth
//	@Router		/drivers/{driver_id}/stats [get]
func (s *Server) GetAgentStats(c echo.Context) error {
	var driverID string
	err := runtime.BindStyledParameterWithOptions("simple", "driver_id", c.Param("driver_id"), &driverID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return writeStatus(c, http.StatusBadRequest, err.Error())
	}

	query, err := queries.NewGetAgentStatsQuery(driverID)
	if err != nil {
		return s.writeError(c, err)
	}
	view, err := s.h.GetAgentStats.Handle(c.Request().Context(), query)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// UpdatePosition handles PUT /api/v1/drivers/me/position.
func (s *Server) UpdatePosition(c echo.Context) error {
	var body PositionReport
	if err := c.Bind(&body); err != nil {
		return writeStatus(c, http.StatusBadRequest, "invalid request body")
	}

	cmd, err := commands.NewUpdatePositionCommand(callerFrom(c), body.Longitude, body.Latitude)
	if err != nil {
		return s.writeError(c, err)
	}
	position, err := s.h.UpdatePosition.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, queries.PositionView{
		AgentID:   position.AgentID,
		Longitude: position.Location.Lon(),
		Latitude:  position.Location.Lat(),
		UpdatedAt: position.UpdatedAt,
	})
}

func (s *Server) GetMyPosition(c echo.Context) error {
	caller := callerFrom(c)
	if err := caller.Require(kernel.RoleDriver, "read own position"); err != nil {
		return s.writeError(c, err)
	}

	query, err := queries.NewGetAgentPositionQuery(caller.ID())
	if err != nil {
		return s.writeError(c, err)
	}
	view, err := s.h.GetAgentPosition.Handle(c.Request().Context(), query)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// ListActiveTimers handles GET /api/v1/debug/timers. Managers only.
func (s *Server) ListActiveTimers(c echo.Context) error {
	if err := callerFrom(c).Require(kernel.RoleManager, "list active timers"); err != nil {
		return s.writeError(c, err)
	}

	views, err := s.h.ListActiveTimers.Handle(c.Request().Context(), queries.NewListActiveTimersQuery())
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, views)
}
