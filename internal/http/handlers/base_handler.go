// README: Shared handler utilities: JSON views and error-to-status mapping.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rachana28/DHAPP-BACKEND/internal/modules/allocation"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/driver"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/trip"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

func writeAllocationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, allocation.ErrInvalid):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, allocation.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, allocation.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, allocation.ErrConflict):
		writeError(c, http.StatusConflict, "offer no longer valid")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeTripError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, trip.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, trip.ErrInvalidState), errors.Is(err, trip.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeDriverError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, driver.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, driver.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

type tripView struct {
	TripID      string    `json:"trip_id"`
	Fleet       string    `json:"fleet"`
	VehicleType string    `json:"vehicle_type,omitempty"`
	Status      string    `json:"status"`
	DriverID    string    `json:"driver_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTripView(t trip.Trip) tripView {
	v := tripView{
		TripID:      string(t.ID),
		Fleet:       string(t.Fleet),
		VehicleType: t.VehicleType,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
	}
	if t.DriverID != nil {
		v.DriverID = string(*t.DriverID)
	}
	return v
}

func toTripViews(trips []trip.Trip) []tripView {
	views := make([]tripView, len(trips))
	for i, t := range trips {
		views[i] = toTripView(t)
	}
	return views
}

type driverView struct {
	DriverID    string  `json:"driver_id"`
	Name        string  `json:"name"`
	Fleet       string  `json:"fleet"`
	VehicleType string  `json:"vehicle_type,omitempty"`
	Status      string  `json:"status"`
	Rating      float64 `json:"rating"`
}

func toDriverView(d driver.Driver) driverView {
	return driverView{
		DriverID:    string(d.ID),
		Name:        d.Name,
		Fleet:       string(d.Fleet),
		VehicleType: d.VehicleType,
		Status:      string(d.Status),
		Rating:      d.Rating,
	}
}
