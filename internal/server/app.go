package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sazalo101/mindis/internal/auth"
	"github.com/sazalo101/mindis/internal/config"
	"github.com/sazalo101/mindis/internal/history"
	"github.com/sazalo101/mindis/internal/insight"
	"github.com/sazalo101/mindis/internal/models"
)

const (
	authUserKey     = "authUser"
	requestIDHeader = "X-Request-ID"
)

// Services are the domain components the HTTP layer drives.
type Services struct {
	Users    *auth.Service
	Tokens   *auth.TokenIssuer
	History  *history.Repository
	Insights *insight.Service
}

type App struct {
	cfg      config.Config
	users    *auth.Service
	tokens   *auth.TokenIssuer
	history  *history.Repository
	insights *insight.Service
	logger   *slog.Logger
}

type AuthUser struct {
	ID int64
}

func New(cfg config.Config, services Services, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:      cfg,
		users:    services.Users,
		tokens:   services.Tokens,
		history:  services.History,
		insights: services.Insights,
		logger:   logger,
	}
}

func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(a.requestLogger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", a.health)

	api := router.Group(a.cfg.APIPrefix)
	api.Use(a.requestTimeout())
	api.POST("/register", a.register)
	api.POST("/login", a.login)
	api.POST("/logout", a.logout)

	protected := api.Group("")
	protected.Use(a.authMiddleware())
	protected.GET("/me", a.me)
	protected.POST("/mood", a.addMood)
	protected.GET("/mood", a.listMoods)
	protected.GET("/mood/stats", a.moodStats)
	protected.GET("/mood/export", a.exportMoodsCSV)
	protected.POST("/journal", a.addJournalEntry)
	protected.GET("/journal", a.listJournalEntries)
	protected.POST("/journal/reply", a.journalReply)
	protected.POST("/insights", a.generateInsight)
	protected.GET("/insights", a.listInsights)
	protected.GET("/dashboard", a.dashboard)

	return router
}

func (a *App) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "mindi-api",
	})
}

// requestLogger tags each request with an id and logs it once finished.
func (a *App) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		started := time.Now()
		c.Next()

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(started).Milliseconds(),
		}
		if user, ok := authUserFromContext(c); ok {
			attrs = append(attrs, "user_id", user.ID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		a.logger.Log(c.Request.Context(), level, "http request", attrs...)
	}
}

// requestTimeout bounds the whole request so a hung upstream cannot pin a
// worker.
func (a *App) requestTimeout() gin.HandlerFunc {
	timeout := a.cfg.RequestTimeout()
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (a *App) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			writeError(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		tokenString := strings.TrimSpace(authHeader[len("Bearer "):])
		if tokenString == "" {
			writeError(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		userID, err := a.tokens.Parse(tokenString)
		if err != nil {
			_ = c.Error(err)
			writeError(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		c.Set(authUserKey, AuthUser{ID: userID})
		c.Next()
	}
}

func authUserFromContext(c *gin.Context) (AuthUser, bool) {
	raw, ok := c.Get(authUserKey)
	if !ok {
		return AuthUser{}, false
	}
	user, ok := raw.(AuthUser)
	return user, ok
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// writeServiceError maps a domain error onto a status code. Unexpected
// failures are reported with fallback and recorded on the context for the
// request log.
func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		writeError(c, http.StatusBadRequest, clientMessage(err))
	case errors.Is(err, models.ErrAuthFailure):
		writeError(c, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, models.ErrNotFound):
		writeError(c, http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrDuplicateIdentity):
		writeError(c, http.StatusConflict, "Username or email already exists")
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, fallback)
	}
}

func clientMessage(err error) string {
	message := strings.TrimPrefix(err.Error(), models.ErrInvalidArgument.Error()+": ")
	if message == "" {
		return "Invalid request"
	}
	return strings.ToUpper(message[:1]) + message[1:]
}

func mustJSON(c *gin.Context, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// queryInt reads a positive integer query parameter. Missing values use
// fallback; anything else that is not a positive integer is rejected.
func queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		writeError(c, http.StatusBadRequest, key+" must be a positive integer")
		return 0, false
	}
	return value, true
}
