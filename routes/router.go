package routes

import (
	"net/http"
	"time"

	"story4u-backend/cache"
	"story4u-backend/handlers"
	"story4u-backend/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server 是HTTP服务器的封装
type Server struct {
	*http.Server
}

// SetupRouter 设置和配置Gin路由
func SetupRouter(d handlers.Deps) *gin.Engine {
	api := handlers.NewAPI(d)

	router := gin.New()
	router.Use(handlers.Recovery(d.Log), handlers.RequestLogger(d.Log, d.Metrics))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "x-access-token"},
		ExposeHeaders:    []string{"Content-Length", "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", "Retry-After"},
		AllowCredentials: !allowsAny(d.Config.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))

	if d.Files != nil {
		router.Static("/resources/static/assets/uploads", d.Files.Dir())
	}

	var (
		authed   = api.RequireAuth()
		optional = api.OptionalAuth()
		read     = api.RateLimit(cache.ClassRead)
		write    = api.RateLimit(cache.ClassWrite)
		user     = api.RequireRole(models.RoleUser)
		admin    = api.RequireRole(models.RoleAdmin)
		super    = api.RequireRole(models.RoleSuperAdmin)
	)

	r := router.Group("/api")
	{
		// 健康检查和指标端点
		r.GET("/health", api.HealthCheck)
		r.GET("/status", api.SystemStatus)
		r.GET("/metrics", api.MetricsHandler)

		r.Use(api.GlobalRateLimit())

		authRoutes := r.Group("/auth")
		{
			login := api.RateLimit(cache.ClassLogin)
			authRoutes.POST("/bootstrap", login, api.Bootstrap)
			authRoutes.POST("/login", login, api.Login)
			authRoutes.GET("/logout", read, api.Logout)
			authRoutes.GET("/me", authed, read, api.Me)
			authRoutes.POST("/register", authed, api.RateLimit(cache.ClassUserCreate), super, api.Register)
			authRoutes.GET("/users", authed, read, super, api.ListUsers)
			authRoutes.PUT("/users/:id/role", authed, api.RejectSelfTarget("id"), write, super, api.UpdateRole)
		}

		gifs := r.Group("/gif")
		{
			gifs.POST("/addUpdate", authed, write, user, api.SaveGif)
			gifs.GET("", optional, read, api.ListGifs)
			gifs.GET("/:id", optional, read, api.GetGif)
			gifs.DELETE("/:id", authed, write, super, api.DeleteGif)
		}

		posts := r.Group("/satsang")
		{
			posts.POST("/addUpdate", authed, write, admin, api.SavePost)
			posts.GET("", optional, read, api.ListPosts)
			posts.GET("/archived", authed, read, api.ListArchivedPosts)
			posts.GET("/:id", optional, read, api.GetPost)
			posts.POST("/:id/archive", authed, write, admin, api.ArchivePost)
			posts.POST("/:id/restore", authed, write, admin, api.RestorePost)
			posts.DELETE("/:id", authed, write, super, api.DeletePost)
		}

		surveys := r.Group("/surveys")
		{
			surveys.POST("", authed, write, admin, api.SaveSurvey)
			surveys.GET("", optional, read, api.ListSurveys)
			surveys.GET("/:id", optional, read, api.GetSurvey)
			surveys.POST("/:id/vote", api.RateLimit(cache.ClassVote), api.Vote)
			surveys.GET("/:id/ws", read, api.SurveyLive)
			surveys.DELETE("/:id", authed, write, super, api.DeleteSurvey)
		}

		r.POST("/upload", authed, api.RateLimit(cache.ClassUpload), api.Upload)
		r.GET("/files", optional, read, api.ListFiles)
		r.GET("/files/:name", optional, read, api.DownloadFile)
	}

	return router
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// StartServer 在单独的goroutine中启动HTTP服务器
func StartServer(router *gin.Engine, port string, log *zap.Logger) *Server {
	addr := ":" + port
	srv := &Server{
		&http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	go func() {
		log.Info("服务器启动", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	return srv
}
