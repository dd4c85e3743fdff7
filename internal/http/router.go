// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vilamourachauffeurs/dispatch/internal/http/handlers"
	"github.com/vilamourachauffeurs/dispatch/internal/http/middleware"
	"github.com/vilamourachauffeurs/dispatch/internal/infra"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/booking"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/fleet"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/notification"
	"github.com/vilamourachauffeurs/dispatch/internal/modules/report"
)

type RouterDeps struct {
	Verifier      infra.TokenVerifier
	Booking       *booking.Service
	Fleet         *fleet.Service
	Notifications *notification.Service
	Reports       *report.Service
	AI            *handlers.AIHandler
}

func NewRouter(deps RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(deps.Verifier, deps.Fleet))

	bookingHandler := handlers.NewBookingHandler(deps.Booking)
	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings", bookingHandler.List)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.PATCH("/bookings/:id", bookingHandler.Update)
	api.POST("/bookings/:id/status", bookingHandler.ChangeStatus)
	api.POST("/bookings/:id/assign", middleware.RequireAdmin(), bookingHandler.Assign)
	api.GET("/bookings/:id/events", bookingHandler.Events)

	fleetHandler := handlers.NewFleetHandler(deps.Fleet)
	api.POST("/drivers", middleware.RequireAdmin(), fleetHandler.CreateDriver)
	api.GET("/drivers", middleware.RequireAdmin(), fleetHandler.ListDrivers)
	api.GET("/drivers/:id", fleetHandler.GetDriver)
	api.PATCH("/drivers/:id", middleware.RequireAdmin(), fleetHandler.UpdateDriver)
	api.POST("/drivers/presence", fleetHandler.Heartbeat)
	api.DELETE("/drivers/presence", fleetHandler.Offline)
	api.POST("/partners", middleware.RequireAdmin(), fleetHandler.CreatePartner)
	api.GET("/partners", middleware.RequireAdmin(), fleetHandler.ListPartners)
	api.PATCH("/partners/:id", middleware.RequireAdmin(), fleetHandler.UpdatePartner)
	api.POST("/operators", middleware.RequireAdmin(), fleetHandler.CreateOperator)
	api.GET("/operators", middleware.RequireAdmin(), fleetHandler.ListOperators)
	api.PATCH("/operators/:id", middleware.RequireAdmin(), fleetHandler.UpdateOperator)
	api.POST("/users", middleware.RequireAdmin(), fleetHandler.CreateUser)

	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)
	api.GET("/notifications", notificationHandler.List)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)
	api.POST("/notifications/tokens", notificationHandler.RegisterToken)

	reportHandler := handlers.NewReportHandler(deps.Reports)
	api.GET("/reports/daily", middleware.RequireAdmin(), reportHandler.Daily)
	api.GET("/reports/daily.pdf", middleware.RequireAdmin(), reportHandler.DailyPDF)

	if deps.AI != nil {
		api.POST("/ai/suggest-driver", middleware.RequireAdmin(), deps.AI.SuggestDriver)
		api.POST("/ai/summarize-notes", middleware.RequireAdmin(), deps.AI.SummarizeNotes)
	}

	return r
}
