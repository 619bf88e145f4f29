package http

import (
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

type NewOrder struct {
	RestaurantID string       `json:"restaurant_id"`
	Items        []order.Item `json:"items"`
}

type ManagerAssignment struct {
	DriverID string `json:"driver_id"`
}

type Rating struct {
	Rating int `json:"rating"`
}

type InterestResult struct {
	Added bool `json:"added"`
}

type Selection struct {
	DriverID      string   `json:"driver_id"`
	Score         float64  `json:"score"`
	CombinedScore float64  `json:"combined_score"`
	DistanceKm    *float64 `json:"distance_km"`
}

// CreateOrder handles POST /api/v1/orders.
//
//	@Summary	Place an order
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Param		order	body		NewOrder	true	"Order"
//	@Success	201		{object}	queries.OrderView
//	@Failure	400		{object}	Error
//	@Security	BearerAuth
//	@Router		/orders [post]
func (s *Server) CreateOrder(c echo.Context) error {
	var body NewOrder
	if err := c.Bind(&body); err != nil {
		return writeStatus(c, http.StatusBadRequest, "invalid request body")
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(orderID, callerFrom(c), body.RestaurantID, body.Items)
	if err != nil {
		return s.writeError(c, err)
	}
	if err = s.h.CreateOrder.Handle(c.Request().Context(), cmd); err != nil {
		return s.writeError(c, err)
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return s.writeError(c, err)
	}
	view, err := s.h.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// ListOrders handles GET /api/v1/orders?scope=&limit=.
func (s *Server) ListOrders(c echo.Context) error {
	var scope string
	if err := runtime.BindQueryParameter("form", true, true, "scope", c.QueryParams(), &scope); err != nil {
		return writeStatus(c, http.StatusBadRequest, err.Error())
	}
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.QueryParams(), &limit); err != nil {
		return writeStatus(c, http.StatusBadRequest, err.Error())
	}

	parsed, err := queries.ParseScope(scope)
	if err != nil {
		return s.writeError(c, err)
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	query, err := queries.NewListOrdersQuery(callerFrom(c), parsed, n)
	if err != nil {
		return s.writeError(c, err)
	}
	views, err := s.h.ListOrders.Handle(c.Request().Context(), query)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, views)
}

func (s *Server) GetOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.writeError(c, err)
	}
	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return s.writeError(c, err)
	}
	view, err := s.h.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// MarkReady handles POST /api/v1/orders/{order_id}/ready.
//
//	@Summary	Open the acceptance window
//	@Tags		orders
//	@Param		order_id	path	string	true	"Order id"
//	@Success	204
//	@Failure	403	{object}	Error
//	@Failure	409	{object}	Error
//	@Security	BearerAuth
//	@Router		/orders/{order_id}/ready [post]
func (s *Server) MarkReady(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.writeError(c, err)
	}
	cmd, err := commands.NewMarkReadyCommand(orderID, callerFrom(c))
	if err != nil {
		return s.writeError(c, err)
	}
	if err = s.h.MarkReady.Handle(c.Request().Context(), cmd); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ExpressInterest handles POST /api/v1/orders/{order_id}/interest.
//
//	@Summary	Volunteer for an order
//	@Tags		drivers
//	@Param		order_id	path		string	true	"Order id"
//	@Success	200			{object}	InterestResult
//	@Failure	409			{object}	Error
//	@Security	BearerAuth
//	@Router		/orders/{order_id}/interest [post]
func (s *Server) ExpressInterest(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.writeError(c, err)
	}
	cmd, err := commands.NewExpressInterestCommand(orderID, callerFrom(c))
	if err != nil {
		return s.writeError(c, err)
	}
	added, err := s.h.ExpressInterest.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, InterestResult{Added: added})
}

func (s *Server) ManagerAssign(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.writeError(c, err)
	}
	var body ManagerAssignment
	if err = c.Bind(&body); err != nil {
		return writeStatus(c, http.StatusBadRequest, "invalid request body")
	}
	cmd, err := commands.NewManagerAssignCommand(orderID, callerFrom(c), body.DriverID)
	if err != nil {
		return s.writeError(c, err)
	}
	if err = s.h.ManagerAssign.Handle(c.Request().Context(), cmd); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) ForceAutoAssign(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.writeError(c, err)
	}
	cmd, err := commands.NewForceAutoAssignCommand(orderID, callerFrom(c))
	if err != nil {
		return s.writeError(c, err)
	}
	sel, err := s.h.ForceAutoAssign.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, Selection{
		DriverID:      sel.AgentID,
		Score:         sel.Score,
		CombinedScore: sel.Combined,
		DistanceKm:    sel.DistanceKm,
	})
}

func (s *Server) MarkDelivered(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.writeError(c, err)
	}
	cmd, err := commands.NewMarkDeliveredCommand(orderID, callerFrom(c))
	if err != nil {
		return s.writeError(c, err)
	}
	if err = s.h.MarkDelivered.Handle(c.Request().Context(), cmd); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) CancelOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.writeError(c, err)
	}
	cmd, err := commands.NewCancelOrderCommand(orderID, callerFrom(c))
	if err != nil {
		return s.writeError(c, err)
	}
	if err = s.h.CancelOrder.Handle(c.Request().Context(), cmd); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RateDriver handles POST /api/v1/orders/{order_id}/rating.
//
//	@Summary	Rate the delivering driver
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Param		order_id	path		string	true	"Order id"
//	@Param		rating		body		Rating	true	"Rating 1..5"
//	@Success	200			{object}	queries.AgentStatsView
//	@Failure	400			{object}	Error
//	@Failure	409			{object}	Error
//	@Security	BearerAuth
//	@Router		/orders/{order_id}/rating [post]
func (s *Server) RateDriver(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.writeError(c, err)
	}
	var body Rating
	if err = c.Bind(&body); err != nil {
		return writeStatus(c, http.StatusBadRequest, "invalid request body")
	}
	cmd, err := commands.NewRateDriverCommand(orderID, callerFrom(c), body.Rating)
	if err != nil {
		return s.writeError(c, err)
	}
	stats, err := s.h.RateDriver.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, queries.AgentStatsView{
		AgentID:       stats.AgentID(),
		AverageRating: stats.AverageRating(),
		DeliveryCount: stats.DeliveryCount(),
		TotalRating:   stats.TotalRating(),
		Score:         stats.AverageRating(),
	})
}

func (s *Server) GetOrderCandidates(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.writeError(c, err)
	}
	query, err := queries.NewGetOrderCandidatesQuery(orderID)
	if err != nil {
		return s.writeError(c, err)
	}
	view, err := s.h.GetOrderCandidates.Handle(c.Request().Context(), query)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) GetTimerStatus(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return s.writeError(c, err)
	}
	query, err := queries.NewGetTimerStatusQuery(orderID)
	if err != nil {
		return s.writeError(c, err)
	}
	view, err := s.h.GetTimerStatus.Handle(c.Request().Context(), query)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// orderIDParam binds the order_id path segment the way generated servers do.
func orderIDParam(c echo.Context) (kernel.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "order_id", c.Param("order_id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("order_id", err)
	}
	return kernel.UUIDFromString(id.String())
}
