package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"turcrm/internal/authz"
	"turcrm/internal/handlers"
	"turcrm/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	metricsHandler http.Handler,
	healthHandler *handlers.HealthHandler,
	leadHandler *handlers.LeadHandler,
	touristHandler *handlers.TouristHandler,
	eventHandler *handlers.EventHandler,
	formHandler *handlers.FormHandler,
	documentHandler *handlers.DocumentHandler,
	preferenceHandler *handlers.PreferenceHandler,
	boardHandler *handlers.BoardHandler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(metricsHandler))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	public := r.Group("/api/public")
	{
		public.GET("/forms/:id", formHandler.GetPublic)
		public.POST("/forms/:id/submit", formHandler.Submit)
	}

	// ---- protected
	api := r.Group("/api", middleware.AuthMiddleware(jwtSecret), middleware.ReadOnlyGuard())
	elevated := middleware.RequireRoles(authz.CatalogEditors...)

	// LEADS
	leads := api.Group("/leads")
	{
		leads.GET("", leadHandler.List)
		leads.GET("/board", leadHandler.Board)
		leads.GET("/stats", leadHandler.Stats)
		leads.POST("", leadHandler.Create)
		leads.GET("/:id", leadHandler.GetByID)
		leads.PATCH("/:id", leadHandler.Update)
		leads.DELETE("/:id", leadHandler.Delete)
		leads.POST("/:id/status", leadHandler.ChangeStatus)
		leads.POST("/:id/archive", leadHandler.Archive)
		leads.POST("/:id/unarchive", leadHandler.Unarchive)
		leads.POST("/:id/cities/toggle", leadHandler.ToggleCity)

		leads.GET("/:id/tourists", touristHandler.List)
		leads.POST("/:id/tourists", touristHandler.Create)
		leads.POST("/:id/tourists/:touristId/primary", touristHandler.SetPrimary)

		leads.GET("/:id/documents", documentHandler.List)
		leads.GET("/:id/documents/contract", documentHandler.Contract)
		leads.GET("/:id/documents/booking-sheet", documentHandler.BookingSheet)
	}

	// TOURISTS
	tourists := api.Group("/tourists")
	{
		tourists.PATCH("/:id", touristHandler.Update)
		tourists.DELETE("/:id", touristHandler.Delete)
		tourists.POST("/:id/visits", touristHandler.CreateVisit)
		tourists.PATCH("/:id/visits/:visitId", touristHandler.UpdateVisit)
		tourists.DELETE("/:id/visits/:visitId", touristHandler.DeleteVisit)
	}

	// EVENTS (запись: ops/mgmt/admin)
	events := api.Group("/events")
	{
		events.GET("", eventHandler.List)
		events.POST("", elevated, eventHandler.Create)
		events.GET("/:id", eventHandler.GetByID)
		events.PATCH("/:id", elevated, eventHandler.Update)
		events.DELETE("/:id", elevated, eventHandler.Delete)
		events.GET("/:id/participants", eventHandler.Participants)
		events.GET("/:id/summary", eventHandler.Summary)
		events.GET("/:id/summary/export", eventHandler.ExportSummary)
	}

	// FORMS (конструктор: ops/mgmt/admin)
	forms := api.Group("/forms")
	{
		forms.GET("", formHandler.List)
		forms.POST("", elevated, formHandler.Create)
		forms.GET("/:id", formHandler.GetByID)
		forms.PATCH("/:id", elevated, formHandler.Update)
		forms.DELETE("/:id", elevated, formHandler.Delete)
		forms.POST("/:id/fields", elevated, formHandler.AddField)
		forms.PATCH("/:id/fields/:fieldId", elevated, formHandler.UpdateField)
		forms.DELETE("/:id/fields/:fieldId", elevated, formHandler.DeleteField)
		forms.PUT("/:id/fields/order", elevated, formHandler.ReorderFields)
		forms.GET("/:id/submissions", formHandler.Submissions)
	}

	// PREFERENCES
	api.GET("/preferences/:key", preferenceHandler.Get)
	api.PUT("/preferences/:key", preferenceHandler.Put)

	// WS
	api.GET("/ws/board", boardHandler.Stream)

	return r
}
