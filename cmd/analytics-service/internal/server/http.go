package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/conf"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/service"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/auth"
	pkgerrors "github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/errors"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/health"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/middleware"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/monitoring"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/observability"
)

const serviceName = "analytics-service"

// Logger 日志接口
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// HTTPServer HTTP 服务器
type HTTPServer struct {
	engine    *gin.Engine
	service   *service.ChatService
	health    *health.HealthChecker
	logger    Logger
	startTime time.Time
}

// NewHTTPServer 创建 HTTP 服务器
// redisClient 为 nil 时不启用限流。
func NewHTTPServer(
	cfg *conf.Config,
	srv *service.ChatService,
	jwtManager *auth.JWTManager,
	checker *health.HealthChecker,
	redisClient *redis.Client,
	logger Logger,
) *HTTPServer {
	// 设置 Gin 模式
	gin.SetMode(gin.ReleaseMode)

	s := &HTTPServer{
		engine:    gin.New(),
		service:   srv,
		health:    checker,
		logger:    logger,
		startTime: time.Now(),
	}

	s.registerMiddlewares(cfg, jwtManager)
	s.registerRoutes(cfg, redisClient)

	return s
}

// registerMiddlewares 注册中间件
func (s *HTTPServer) registerMiddlewares(cfg *conf.Config, jwtManager *auth.JWTManager) {
	s.engine.Use(gin.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(observability.GinMiddleware(serviceName))
	s.engine.Use(monitoring.GinMetrics(serviceName))
	s.engine.Use(s.requestLogger())
	s.engine.Use(s.corsMiddleware())
	s.engine.Use(middleware.TenantAuth(jwtManager, cfg.Auth.SkipPaths...))
}

// requestLogger 请求日志中间件
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("tenant_id", c.GetString(middleware.GinTenantIDKey)),
			zap.String("request_id", c.GetString(middleware.GinRequestIDKey)),
		)
	}
}

// corsMiddleware CORS 中间件
func (s *HTTPServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// registerRoutes 注册路由
func (s *HTTPServer) registerRoutes(cfg *conf.Config, redisClient *redis.Client) {
	chat := s.engine.Group("/api/v1/chat")
	if cfg.Resilience.RateLimit.Enabled && redisClient != nil {
		chat.Use(middleware.RateLimiter(middleware.RateLimiterConfig{
			RedisClient: redisClient,
			MaxRequests: cfg.Resilience.RateLimit.Limit,
			Window:      cfg.Resilience.RateLimit.Window,
			KeyPrefix:   cfg.Cache.KeyPrefix + ":rate_limit",
			Logger:      zapLogger(s.logger),
		}))
	}
	{
		chat.POST("/churn", s.chat)
		chat.GET("/catalog", s.catalog)
		chat.POST("/metrics/:key", s.executeMetric)
	}

	// 健康检查
	s.engine.GET("/health", s.healthCheck)
	s.engine.GET("/ready", s.readinessCheck)
}

// chat 处理聊天消息
func (s *HTTPServer) chat(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, pkgerrors.NewBadRequest("invalid request body"))
		return
	}

	reply, err := s.service.Chat(c.Request.Context(), c.GetString(middleware.GinTenantIDKey), &req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

// executeMetric 按键执行指标
func (s *HTTPServer) executeMetric(c *gin.Context) {
	var req service.ExecuteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, pkgerrors.NewBadRequest("invalid request body"))
			return
		}
	}

	reply, err := s.service.ExecuteMetric(c.Request.Context(), c.GetString(middleware.GinTenantIDKey), c.Param("key"), &req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

// catalog 列出目录
func (s *HTTPServer) catalog(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Catalog())
}

// respondError 将错误转换为统一错误响应
func (s *HTTPServer) respondError(c *gin.Context, err error) {
	status, resp := pkgerrors.FromError(err)
	resp.WithRequestID(c.GetString(middleware.GinRequestIDKey)).
		WithTraceID(observability.TraceID(c.Request.Context())).
		WithRequest(c.Request.Method, c.Request.URL.Path)

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("tenant_id", c.GetString(middleware.GinTenantIDKey)),
			zap.Error(err),
		)
	}

	c.JSON(status, resp)
}

// Engine 返回 Gin 引擎
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// healthCheck 存活检查
func (s *HTTPServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  health.StatusHealthy,
		"service": serviceName,
		"time":    time.Now().Format(time.RFC3339),
	})
}

// readinessCheck 就绪检查
func (s *HTTPServer) readinessCheck(c *gin.Context) {
	report := s.health.Readiness(c.Request.Context(), serviceName, s.startTime)
	status := http.StatusOK
	if !report.Ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func zapLogger(l Logger) *zap.Logger {
	if zl, ok := l.(*zap.Logger); ok {
		return zl
	}
	return zap.NewNop()
}
