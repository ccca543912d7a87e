// README: Driver-facing endpoints: registration, availability, offers, trip lifecycle.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rachana28/DHAPP-BACKEND/internal/http/middleware"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/allocation"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/driver"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/trip"
	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

type DriverHandler struct {
	engine  *allocation.Engine
	drivers *driver.Service
	trips   *trip.Service
}

func NewDriverHandler(engine *allocation.Engine, drivers *driver.Service, trips *trip.Service) *DriverHandler {
	return &DriverHandler{engine: engine, drivers: drivers, trips: trips}
}

type registerDriverReq struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	LicenseNumber string `json:"license_number"`
	Fleet         string `json:"fleet"`
	VehicleType   string `json:"vehicle_type"`
}

func (h *DriverHandler) Register(c *gin.Context) {
	var req registerDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.drivers.Register(c.Request.Context(), driver.RegisterCommand{
		UserID:        types.ID(middleware.CallerUID(c)),
		Name:          req.Name,
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
		Fleet:         driver.Fleet(req.Fleet),
		VehicleType:   req.VehicleType,
	})
	if err != nil {
		writeDriverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDriverView(*d))
}

func (h *DriverHandler) List(c *gin.Context) {
	fleet := driver.Fleet(c.DefaultQuery("fleet", string(driver.FleetRide)))
	if fleet != driver.FleetRide && fleet != driver.FleetTow {
		writeError(c, http.StatusBadRequest, "unknown fleet")
		return
	}
	list, err := h.drivers.List(c.Request.Context(), fleet)
	if err != nil {
		writeDriverError(c, err)
		return
	}
	views := make([]driverView, len(list))
	for i, d := range list {
		views[i] = toDriverView(d)
	}
	c.JSON(http.StatusOK, gin.H{"drivers": views})
}

type setAvailabilityReq struct {
	Status string `json:"status"`
}

func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req setAvailabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, ok := h.callerDriver(c)
	if !ok {
		return
	}
	if err := h.drivers.SetAvailability(c.Request.Context(), d.ID, driver.Status(req.Status)); err != nil {
		writeDriverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

type offerView struct {
	OfferID   string    `json:"offer_id"`
	Tier      int       `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
	Trip      tripView  `json:"trip"`
}

func (h *DriverHandler) ListOffers(c *gin.Context) {
	d, ok := h.callerDriver(c)
	if !ok {
		return
	}
	views, err := h.engine.PendingOffers(c.Request.Context(), d.ID)
	if err != nil {
		writeAllocationError(c, err)
		return
	}
	out := make([]offerView, len(views))
	for i, v := range views {
		out[i] = offerView{
			OfferID:   string(v.Offer.ID),
			Tier:      v.Offer.Tier,
			CreatedAt: v.Offer.CreatedAt,
			Trip:      toTripView(v.Trip),
		}
	}
	c.JSON(http.StatusOK, gin.H{"offers": out})
}

func (h *DriverHandler) Accept(c *gin.Context) {
	d, ok := h.callerDriver(c)
	if !ok {
		return
	}
	tripID, err := h.engine.Accept(c.Request.Context(), types.ID(c.Param("id")), d.ID)
	if err != nil {
		writeAllocationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip_id": tripID, "status": trip.StatusAccepted})
}

func (h *DriverHandler) Reject(c *gin.Context) {
	d, ok := h.callerDriver(c)
	if !ok {
		return
	}
	if err := h.engine.Reject(c.Request.Context(), types.ID(c.Param("id")), d.ID); err != nil {
		writeAllocationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": trip.OfferRejected})
}

func (h *DriverHandler) Start(c *gin.Context) {
	d, ok := h.callerDriver(c)
	if !ok {
		return
	}
	if err := h.trips.Start(c.Request.Context(), types.ID(c.Param("id")), d.ID); err != nil {
		writeTripError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": trip.StatusInProgress})
}

func (h *DriverHandler) Complete(c *gin.Context) {
	d, ok := h.callerDriver(c)
	if !ok {
		return
	}
	if err := h.trips.Complete(c.Request.Context(), types.ID(c.Param("id")), d.ID); err != nil {
		writeTripError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": trip.StatusCompleted})
}

func (h *DriverHandler) ListMyTrips(c *gin.Context) {
	d, ok := h.callerDriver(c)
	if !ok {
		return
	}
	trips, err := h.trips.ListByDriver(c.Request.Context(), d.ID)
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": toTripViews(trips)})
}

// callerDriver resolves the authenticated user to their driver profile.
// Writes the error response itself when resolution fails.
func (h *DriverHandler) callerDriver(c *gin.Context) (*driver.Driver, bool) {
	d, err := h.drivers.GetByUser(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		if errors.Is(err, driver.ErrNotFound) {
			writeError(c, http.StatusForbidden, "driver profile required")
			return nil, false
		}
		writeError(c, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return d, true
}
