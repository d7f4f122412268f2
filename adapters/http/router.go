package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khoahotran/talent-portfolio/pkg/auth"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type Handlers struct {
	Profile  *ProfileHandler
	Share    *ShareHandler
	Template *TemplateHandler
	Preview  *PreviewHandler
	Snapshot *SnapshotHandler
	Bank     *BankHandler
}

// NewRouter wires the API. metricsHandler may be nil to serve the default
// prometheus registry.
func NewRouter(h Handlers, jwtSvc *auth.JWTService, log logger.Logger, metricsHandler http.Handler) *gin.Engine {
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ErrorMiddleware(log))
	router.HandleMethodNotAllowed = true

	router.GET("/metrics", gin.WrapH(metricsHandler))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
		api.GET("/templates", h.Template.ListTemplates)

		snapshots := api.Group("/snapshots")
		{
			snapshots.GET("/:id", OptionalAuthMiddleware(jwtSvc), h.Snapshot.View)
			snapshots.PUT("/:id", h.Snapshot.RejectWrite)
			snapshots.PATCH("/:id", h.Snapshot.RejectWrite)
			snapshots.DELETE("/:id", h.Snapshot.RejectWrite)
			snapshots.GET("", AuthMiddleware(jwtSvc, log), h.Snapshot.ListReceived)
		}

		owner := api.Group("/owner")
		owner.Use(AuthMiddleware(jwtSvc, log), RequireRole(auth.RoleTalent))
		{
			owner.GET("/profile", h.Profile.GetProfile)
			owner.PUT("/profile", h.Profile.UpdateProfile)

			owner.GET("/share-config", h.Share.GetShareConfig)
			owner.PUT("/share-config", h.Share.UpdateShareConfig)

			owner.GET("/templates/:template_id/state", h.Template.GetState)
			owner.PUT("/templates/:template_id/state", h.Template.SaveState)

			owner.GET("/preview", h.Preview.Preview)

			owner.POST("/snapshots", h.Snapshot.Publish)
			owner.GET("/snapshots", h.Snapshot.ListOwn)

			owner.POST("/bank", h.Bank.Upload)
			owner.GET("/bank", h.Bank.List)
		}
	}

	return router
}
