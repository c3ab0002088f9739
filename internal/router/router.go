package router

import (
	"github.com/cozyss/snail-herald/internal/config"
	"github.com/cozyss/snail-herald/internal/handler"
	"github.com/cozyss/snail-herald/internal/middleware"
	"github.com/cozyss/snail-herald/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRouter wires the service layer and mounts the API routes.
func SetupRouter(cfg *config.Config, db *gorm.DB, log *zap.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	delays := service.NewDelayStore(db)
	welcome := service.NewWelcomeStore(db)
	scheduler := service.NewScheduler(db, delays, service.SystemClock(), service.SystemRand())
	ledger := service.NewLedger(db, service.SystemClock())
	board := service.NewBoard(db, ledger)

	jwtSecret := cfg.JWT.Secret

	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours, cfg.Security.BcryptCost, scheduler, welcome, log)
	messageHandler := handler.NewMessageHandler(scheduler)
	featureHandler := handler.NewFeatureHandler(board, ledger)
	userHandler := handler.NewUserHandler(db)
	adminHandler := handler.NewAdminHandler(db, delays, welcome, scheduler)

	api := r.Group("/api")

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtSecret, db))

	protected.GET("/me", userHandler.GetMe)
	protected.GET("/users/search", userHandler.Search)

	protected.POST("/messages", messageHandler.Send)
	protected.GET("/messages", messageHandler.List)
	protected.POST("/messages/:id/read", messageHandler.MarkRead)
	protected.POST("/messages/read-all", messageHandler.MarkAllRead)
	protected.DELETE("/messages/:id", messageHandler.Delete)

	protected.POST("/features", featureHandler.Create)
	protected.GET("/features", featureHandler.List)
	protected.POST("/features/:id/vote", featureHandler.Vote)
	protected.GET("/features/points", featureHandler.Points)
	protected.DELETE("/features/:id", middleware.AdminMiddleware(), featureHandler.Delete)

	admin := protected.Group("/admin")
	admin.Use(middleware.AdminMiddleware())

	admin.GET("/delay-settings", adminHandler.GetDelaySettings)
	admin.PUT("/delay-settings", adminHandler.UpdateDelaySettings)
	admin.POST("/announcements", adminHandler.SendAnnouncement)
	admin.GET("/users", adminHandler.ListUserStats)
	admin.GET("/users/export", adminHandler.ExportUserStats)
	admin.GET("/welcome-template", adminHandler.GetWelcomeTemplate)
	admin.PUT("/welcome-template", adminHandler.UpdateWelcomeTemplate)

	return r
}
