// README: Rider-facing endpoints: request, view, and cancel trips.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rachana28/DHAPP-BACKEND/internal/http/middleware"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/allocation"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/driver"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/trip"
	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

type RiderHandler struct {
	engine *allocation.Engine
	trips  *trip.Service
}

func NewRiderHandler(engine *allocation.Engine, trips *trip.Service) *RiderHandler {
	return &RiderHandler{engine: engine, trips: trips}
}

type requestTripReq struct {
	Fleet       string `json:"fleet"`
	VehicleType string `json:"vehicle_type"`
}

func (h *RiderHandler) RequestTrip(c *gin.Context) {
	var req requestTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	t, err := h.engine.CreateRequest(c.Request.Context(), allocation.CreateCommand{
		RiderID:     types.ID(middleware.CallerUID(c)),
		Fleet:       driver.Fleet(req.Fleet),
		VehicleType: req.VehicleType,
	})
	if err != nil {
		writeAllocationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTripView(*t))
}

func (h *RiderHandler) GetTrip(c *gin.Context) {
	t, err := h.trips.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeTripError(c, err)
		return
	}
	if string(t.RiderID) != middleware.CallerUID(c) {
		writeError(c, http.StatusForbidden, "not your trip")
		return
	}
	c.JSON(http.StatusOK, toTripView(*t))
}

func (h *RiderHandler) ListMyTrips(c *gin.Context) {
	trips, err := h.trips.ListByRider(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": toTripViews(trips)})
}

func (h *RiderHandler) Cancel(c *gin.Context) {
	err := h.engine.Cancel(c.Request.Context(),
		types.ID(c.Param("id")),
		types.ID(middleware.CallerUID(c)),
	)
	if err != nil {
		writeAllocationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": trip.StatusCancelled})
}
