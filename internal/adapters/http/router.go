package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dkeye/watchbridge/internal/adapters/signal"
	"github.com/dkeye/watchbridge/internal/app/orch"
	"github.com/dkeye/watchbridge/internal/config"
	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var startedAt = time.Now()

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware keeps a stable client token in the cookie session.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get("ct").(string)
		if token == "" {
			token = genClientToken()
			session.Set("ct", token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save client session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("BridgeSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(startedAt).String(),
			"state":  o.Transport.CurrentState(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ctrl := signal.NewChannelWSController(o, cfg.SendBuffer, cfg.ReadLimit, cfg.PingPeriod)
	limiter := signal.NewActivationLimiter(cfg.Activation.Limit, cfg.Activation.Interval)

	api := r.Group("/api")

	api.GET("/ws/channel/*name", func(c *gin.Context) {
		ctrl.HandleChannel(ctx, c)
	})
	api.POST("/channel/*name", func(c *gin.Context) {
		handleCommand(c, o)
	})

	api.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, o.Status())
	})
	api.POST("/session/activate", func(c *gin.Context) {
		if !limiter.Allow(c.GetString("client_token")) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many activation attempts"})
			return
		}
		state := o.Activate()
		c.JSON(http.StatusAccepted, gin.H{"state": state})
	})
	api.POST("/session/deactivate", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"state": o.Deactivate()})
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

func handleCommand(c *gin.Context, o *orch.Orchestrator) {
	name := signal.ChannelName(c)
	var call core.MethodCall
	if err := c.ShouldBindJSON(&call); err != nil || call.Method == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid method call"})
		return
	}

	res, err := o.HandleCommand(c.Request.Context(), name, call)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	switch res.Status {
	case core.StatusNotImplemented:
		c.JSON(http.StatusNotImplemented, res)
	case core.StatusInvalidArguments:
		c.JSON(http.StatusBadRequest, res)
	default:
		c.JSON(http.StatusOK, res)
	}
}
