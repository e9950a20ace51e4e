package handlers

import (
	"time"

	"story4u-backend/auth"
	"story4u-backend/cache"
	"story4u-backend/config"
	"story4u-backend/metrics"
	"story4u-backend/service"
	"story4u-backend/storage"
	"story4u-backend/websocket"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Deps 构造处理器所需的依赖，全部在启动时显式注入
type Deps struct {
	Config  *config.Config
	Log     *zap.Logger
	DB      *gorm.DB
	Tokens  *auth.TokenService
	Users   *service.UserService
	Gifs    *service.GifService
	Posts   *service.PostService
	Surveys *service.SurveyService
	Limiter *cache.WindowRateLimiter
	Files   *storage.Local
	Hub     *websocket.Hub
	Metrics *metrics.Metrics
}

// API 持有所有HTTP处理器和中间件
type API struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	tokens  *auth.TokenService
	users   *service.UserService
	gifs    *service.GifService
	posts   *service.PostService
	surveys *service.SurveyService
	limiter *cache.WindowRateLimiter
	global  *rate.Limiter
	files   *storage.Local
	hub     *websocket.Hub
	ws      *websocket.Handler
	metrics *metrics.Metrics
	started time.Time
}

// NewAPI 根据依赖创建API
func NewAPI(d Deps) *API {
	registerValidators()
	a := &API{
		cfg:     d.Config,
		log:     d.Log,
		db:      d.DB,
		tokens:  d.Tokens,
		users:   d.Users,
		gifs:    d.Gifs,
		posts:   d.Posts,
		surveys: d.Surveys,
		limiter: d.Limiter,
		files:   d.Files,
		hub:     d.Hub,
		metrics: d.Metrics,
		started: time.Now(),
	}
	if d.Hub != nil {
		a.ws = websocket.NewHandler(d.Hub, d.Config.CORSOrigins, d.Log.Named("ws"))
	}
	if d.Config.EnableGlobalLimit {
		a.global = rate.NewLimiter(rate.Limit(d.Config.GlobalRate), d.Config.GlobalBurst)
	}
	return a
}
