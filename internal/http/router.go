// README: HTTP route registration and middleware wiring.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rachana28/DHAPP-BACKEND/internal/http/handlers"
	"github.com/rachana28/DHAPP-BACKEND/internal/http/middleware"
	"github.com/rachana28/DHAPP-BACKEND/internal/infra"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/allocation"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/device"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/driver"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/trip"
)

type RouterDeps struct {
	Engine   *allocation.Engine
	Drivers  *driver.Service
	Trips    *trip.Service
	Devices  device.Store
	Verifier infra.TokenVerifier
	Log      *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	rider := handlers.NewRiderHandler(deps.Engine, deps.Trips)
	api.POST("/trips", rider.RequestTrip)
	api.GET("/trips", rider.ListMyTrips)
	api.GET("/trips/:id", rider.GetTrip)
	api.POST("/trips/:id/cancel", rider.Cancel)

	dh := handlers.NewDriverHandler(deps.Engine, deps.Drivers, deps.Trips)
	api.POST("/drivers", dh.Register)
	api.GET("/drivers", dh.List)

	drv := api.Group("", middleware.RequireRole("driver"))
	drv.POST("/drivers/availability", dh.SetAvailability)
	drv.GET("/drivers/offers", dh.ListOffers)
	drv.GET("/drivers/trips", dh.ListMyTrips)
	drv.POST("/drivers/trips/:id/start", dh.Start)
	drv.POST("/drivers/trips/:id/complete", dh.Complete)
	drv.POST("/offers/:id/accept", dh.Accept)
	drv.POST("/offers/:id/reject", dh.Reject)

	devh := handlers.NewDeviceHandler(deps.Devices)
	api.POST("/devices", devh.Register)

	return r
}
