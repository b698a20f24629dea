package api

import (
	"net/http"
	"time"

	"github.com/skillsync/skillsync/api/handlers"
	"github.com/skillsync/skillsync/api/middleware"
	"github.com/skillsync/skillsync/configs"
	"github.com/skillsync/skillsync/pkg/cache"
	"github.com/skillsync/skillsync/pkg/chat"
	"github.com/skillsync/skillsync/pkg/filter"
	"github.com/skillsync/skillsync/pkg/matching"
	"github.com/skillsync/skillsync/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies 路由依赖
type Dependencies struct {
	Config      *configs.Config
	Logger      *zap.Logger
	Tokens      *utils.JWTManager
	Users       handlers.UserRepository
	Connections handlers.ConnectionRepository
	Messages    handlers.MessageRepository
	Study       handlers.StudyRepository
	Matcher     *matching.Matcher
	Cache       cache.Store
	Filter      *filter.ContentFilterService
	Chat        *chat.Service
}

// SetupRouter 设置API路由
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger

	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20
	router.Use(middleware.RequestID(), middleware.Logger(log), middleware.Recovery(log))
	router.Use(cors.New(corsConfig(cfg.Server.AllowOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.Static("/uploads", cfg.Server.UploadDir)

	// 公共API
	public := router.Group("/api")

	// 需要认证的API
	authorized := router.Group("/api")
	authorized.Use(middleware.Auth(deps.Tokens, deps.Users))

	handlers.NewUserHandler(deps.Users, deps.Tokens, deps.Matcher, deps.Cache, cfg.Matching.CandidatePool,
		handlers.Uploads{Dir: cfg.Server.UploadDir, URLPrefix: "/uploads", MaxBytes: cfg.Server.MaxUploadMB << 20},
		log).RegisterRoutes(public, authorized)
	handlers.NewConnectionHandler(deps.Connections, deps.Users, log).RegisterRoutes(authorized)
	handlers.NewMessageHandler(deps.Messages, deps.Users, deps.Chat, cfg.Server.AllowOrigins, log).RegisterRoutes(authorized)
	handlers.NewStudyHandler(deps.Study, deps.Users, log).RegisterRoutes(authorized)

	NewMatchingHandler(deps.Matcher, deps.Users).RegisterRoutes(authorized)
	NewContentFilterHandler(deps.Filter).RegisterRoutes(authorized)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowWebSockets:  true,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		allowAll = allowAll || o == "*"
	}
	if allowAll {
		cfg.AllowOriginFunc = func(string) bool { return true }
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
