package transport

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/renatodap/snapmod-sub000/internal/transport/middleware"
)

func InitRoutes(imgHandler *ImageHandler, historyHandler *HistoryHandler, presetHandler *PresetHandler, timeout time.Duration) *gin.Engine {
	router := gin.New()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(timeout))

	api := router.Group("/api")
	{
		api.GET("/filters", imgHandler.GetParameters)
		api.POST("/filters/preview", imgHandler.Preview)

		sessions := api.Group("/sessions/:session")
		{
			sessions.POST("/versions", imgHandler.UploadImage)
			sessions.GET("/versions", imgHandler.ListVersions)
			sessions.DELETE("/versions", imgHandler.ClearSession)
			sessions.POST("/render", imgHandler.Render)
		}

		versions := api.Group("/versions")
		{
			versions.GET("/search", imgHandler.SearchVersions)
			versions.GET("/export", imgHandler.ExportVersions)
			versions.POST("/import", imgHandler.ImportVersions)
			versions.GET("/:id", imgHandler.GetVersion)
			versions.GET("/:id/image", imgHandler.GetVersionImage)
			versions.PATCH("/:id", imgHandler.RenameVersion)
			versions.POST("/:id/favorite", imgHandler.ToggleFavorite)
			versions.DELETE("/:id", imgHandler.DeleteVersion)
		}

		history := api.Group("/history")
		{
			history.GET("", historyHandler.ListHistory)
			history.POST("", historyHandler.RecordPrompt)
			history.DELETE("", historyHandler.ClearHistory)
			history.GET("/search", historyHandler.SearchHistory)
			history.GET("/export", historyHandler.ExportHistory)
			history.POST("/import", historyHandler.ImportHistory)
			history.POST("/:id/favorite", historyHandler.ToggleFavorite)
			history.DELETE("/:id", historyHandler.DeleteHistory)
		}

		presets := api.Group("/presets")
		{
			presets.GET("", presetHandler.ListPresets)
			presets.POST("", presetHandler.CreatePreset)
			presets.GET("/builtin", presetHandler.GetBuiltin)
			presets.GET("/export", presetHandler.ExportPresets)
			presets.POST("/import", presetHandler.ImportPresets)
			presets.POST("/combine", presetHandler.CombinePresets)
			presets.GET("/:id", presetHandler.GetPreset)
			presets.PUT("/:id", presetHandler.UpdatePreset)
			presets.DELETE("/:id", presetHandler.DeletePreset)
			presets.POST("/:id/favorite", presetHandler.ToggleFavorite)
			presets.POST("/:id/use", presetHandler.UsePreset)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "snapmod",
		})
	})
	return router
}
