package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"story4u-backend/auth"
	"story4u-backend/cache"
	"story4u-backend/config"
	"story4u-backend/database"
	"story4u-backend/handlers"
	"story4u-backend/metrics"
	"story4u-backend/models"
	"story4u-backend/repository"
	"story4u-backend/routes"
	"story4u-backend/service"
	"story4u-backend/storage"
	"story4u-backend/websocket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	tokens *auth.TokenService
	files  *storage.Local
}

type envOption func(*config.Config, map[cache.Class]cache.Rule)

func withRule(class cache.Class, rule cache.Rule) envOption {
	return func(_ *config.Config, rules map[cache.Class]cache.Rule) { rules[class] = rule }
}

func withMaxUpload(n int64) envOption {
	return func(cfg *config.Config, _ map[cache.Class]cache.Rule) { cfg.MaxUploadBytes = n }
}

// setupTestEnvironment 每个测试使用独立的内存SQLite数据库和完整路由
func setupTestEnvironment(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Environment:    "test",
		JWTSecret:      "test-secret",
		DBDriver:       "sqlite",
		RateLimitStore: "memory",
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 12 << 20,
		BaseURL:        "http://localhost:8090",
		CORSOrigins:    []string{"*"},
	}
	rules := cache.DefaultRules()
	for _, opt := range opts {
		opt(cfg, rules)
	}

	ctx, cancel := context.WithCancel(context.Background())
	log := zap.NewNop()
	hub := websocket.NewHub(log)
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		_ = sqlDB.Close()
	})

	files, err := storage.NewLocal(cfg.UploadDir, cfg.BaseURL, cfg.MaxUploadBytes)
	require.NoError(t, err)

	tokens := auth.NewTokenService(cfg.JWTSecret)
	router := routes.SetupRouter(handlers.Deps{
		Config:  cfg,
		Log:     log,
		DB:      db,
		Tokens:  tokens,
		Users:   service.NewUserService(repository.NewUserRepository(db), tokens, cache.NewLocalLockService(), log),
		Gifs:    service.NewGifService(repository.NewGifRepository(db)),
		Posts:   service.NewPostService(repository.NewPostRepository(db)),
		Surveys: service.NewSurveyService(repository.NewSurveyRepository(db)),
		Limiter: cache.NewWindowRateLimiter(cache.NewMemoryWindowStore(), rules),
		Files:   files,
		Hub:     hub,
		Metrics: metrics.New(),
	})

	return &testEnv{router: router, db: db, tokens: tokens, files: files}
}

// createUser 直接写入数据库并返回其令牌
func (e *testEnv) createUser(t *testing.T, email string, role models.Role) (*models.User, string) {
	t.Helper()
	hash, err := auth.HashPassword("password1")
	require.NoError(t, err)
	u := &models.User{Name: "Test", Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, e.db.Create(u).Error)
	token, err := e.tokens.Issue(u.ID)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "handlers-test")
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Errors    []string        `json:"errors"`
	Auth      bool            `json:"auth"`
	Token     *string         `json:"token"`
	LoginUser string          `json:"loginUser"`
	Role      string          `json:"role"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	env := decode(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, v), rec.Body.String())
}
