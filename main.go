package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/planfill/planfill-server/handlers"
	"github.com/planfill/planfill-server/internal/allowlist"
	"github.com/planfill/planfill-server/internal/config"
	"github.com/planfill/planfill-server/internal/database"
	"github.com/planfill/planfill-server/internal/device"
	"github.com/planfill/planfill-server/internal/oauth"
	"github.com/planfill/planfill-server/internal/plans"
	"github.com/planfill/planfill-server/internal/storage"
	"github.com/planfill/planfill-server/internal/token"
	"github.com/planfill/planfill-server/pkg/logger"
	"github.com/planfill/planfill-server/pkg/metrics"
	"github.com/planfill/planfill-server/pkg/middleware"
)

const version = "v0.1.0"

var startTime = time.Now()

func main() {
	// logging can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: store=%s plans=%s redis=%v mongo=%v",
		cfg.Auth.DeviceStore, cfg.Plans.Backend, cfg.Redis.Host != "", cfg.MongoDB.URI != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(corsMiddleware(cfg.Server.CORSAllow))

	// Connect to Redis early so both the device store and the rate limiter
	// can use it when configured
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Device session store: memory by default, Redis for multi-instance
	// deployments
	var store device.Store
	switch cfg.Auth.DeviceStore {
	case "redis":
		if redisClient == nil {
			logger.Fatalf("DEVICE_STORE=redis but Redis is unreachable")
		}
		store = device.NewRedisStore(redisClient, "device:")
	default:
		mem := device.NewMemoryStore()
		go func() {
			for range time.Tick(time.Minute) {
				if n := mem.Sweep(10 * time.Minute); n > 0 {
					logger.Debugf("swept %d stale device sessions", n)
				}
			}
		}()
		store = mem
	}

	// Allow-list gate: fail-closed, reloaded from disk when the file changes
	gate := allowlist.NewGate(cfg.Auth.AllowlistPath)
	if gate.Len() == 0 {
		logger.Warnf("allow-list at %s is empty or unreadable, all logins will be denied", cfg.Auth.AllowlistPath)
	}

	codec := token.NewCodec([]byte(cfg.Auth.SigningSecret), cfg.Auth.TokenTTL)

	redirectURL := cfg.Server.BaseURL + "/v1/auth/callback"
	var exchanger device.Exchanger
	if cfg.OAuth.AllowInsecure {
		logger.Warnf("ALLOW_INSECURE_OAUTH is set: ID-token signatures are NOT verified. Never run this in production.")
		exchanger = oauth.NewInsecureExchanger(cfg.OAuth.AuthURL, cfg.OAuth.TokenURL, cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, redirectURL)
	} else {
		ex, err := oauth.NewExchanger(context.Background(), cfg.OAuth.Issuer, cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, redirectURL)
		if err != nil {
			logger.Fatalf("failed to initialize OIDC exchanger: %v", err)
		}
		exchanger = ex
	}

	deviceSvc := device.NewService(store, gate, exchanger, codec,
		cfg.Auth.SessionTTL, cfg.Auth.PollInterval, cfg.Server.BaseURL+"/v1/auth/verify")

	// Plan catalogue: JSON files on disk by default, Mongo when configured.
	// Script bodies can additionally come from an object-store bucket.
	var planRepo plans.Repository
	switch cfg.Plans.Backend {
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		cancel()
		if err != nil {
			logger.Fatalf("failed to connect to MongoDB: %v", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		planRepo = plans.NewMongoRepo(client.Database(cfg.MongoDB.Database))
	default:
		var source plans.ScriptSource
		if cfg.Plans.ScriptsSource == "bucket" {
			st, err := storage.NewMinIOStorage(storage.LoadMinIOConfig())
			if err != nil {
				logger.Fatalf("failed to initialize script bucket: %v", err)
			}
			source = plans.BucketSource{Store: st}
		}
		planRepo = plans.NewFileRepo(cfg.Plans.DataDir, source)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the pieces a login needs are in place
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["allowlist"] = gate.Len() > 0
		if !deps["allowlist"] {
			ready = false
		}
		if cfg.Auth.DeviceStore == "redis" || (cfg.RateLimit.Enabled && cfg.RateLimit.UseRedis) {
			deps["redis"] = redisClient != nil && redisClient.Ping(c.Request.Context()).Err() == nil
			if !deps["redis"] {
				ready = false
			}
		}

		status := gin.H{"deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			status["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		c.JSON(http.StatusOK, status)
	})

	v1 := r.Group("/v1")
	handlers.NewAuthHandler(deviceSvc).Register(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(codec, gate))
	handlers.NewPlansHandler(planRepo, version).Register(protected)
	protected.GET("/me", func(c *gin.Context) {
		email, _ := c.Get("email")
		c.JSON(http.StatusOK, gin.H{"email": email})
	})

	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting planfill-server %s on %s", version, addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

// corsMiddleware answers preflights and sets the allow-origin header.
// With no configured origins everything is allowed (dev mode).
func corsMiddleware(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allow := "*"
		if len(allowed) > 0 {
			allow = ""
			for _, a := range allowed {
				if strings.EqualFold(a, origin) {
					allow = origin
					break
				}
			}
		}
		if allow != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allow)
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
