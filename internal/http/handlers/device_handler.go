// README: Push-device registration endpoint.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rachana28/DHAPP-BACKEND/internal/http/middleware"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/device"
	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

type DeviceHandler struct {
	devices device.Store
}

func NewDeviceHandler(devices device.Store) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

type registerDeviceReq struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (h *DeviceHandler) Register(c *gin.Context) {
	var req registerDeviceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.devices.Register(c.Request.Context(), &device.Device{
		ID:        types.ID(uuid.NewString()),
		UserID:    types.ID(middleware.CallerUID(c)),
		Token:     req.Token,
		Platform:  req.Platform,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, device.ErrBadToken) {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	c.Status(http.StatusNoContent)
}
