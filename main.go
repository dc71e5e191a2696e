package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/twitteroauth/auth-service/handlers"
	"github.com/twitteroauth/auth-service/internal/auth"
	"github.com/twitteroauth/auth-service/internal/config"
	"github.com/twitteroauth/auth-service/internal/database"
	"github.com/twitteroauth/auth-service/internal/handshake"
	"github.com/twitteroauth/auth-service/internal/mailer"
	"github.com/twitteroauth/auth-service/internal/storage"
	"github.com/twitteroauth/auth-service/internal/twitter"
	"github.com/twitteroauth/auth-service/internal/users"
	"github.com/twitteroauth/auth-service/pkg/logger"
	"github.com/twitteroauth/auth-service/pkg/metrics"
	"github.com/twitteroauth/auth-service/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v twitter=%v smtp=%v minio=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Twitter.ConsumerKey != "", cfg.SMTP.Host != "", cfg.MinIO.Endpoint != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	// Connect to Redis early: the handshake store and the rate limiter use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
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

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// shared runtime services used by handlers/readiness
	var userSvc *users.Service
	var userRepo users.Repository

	// readiness endpoint — return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["users"] = userSvc != nil
		if userSvc == nil {
			ready = false
		}
		deps["twitter"] = cfg.Twitter.ConsumerKey != "" && cfg.Twitter.ConsumerSecret != ""
		if !deps["twitter"] {
			ready = false
		}
		deps["redis"] = redisClient != nil || cfg.Redis.Host == ""

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": fmt.Sprintf("%s", time.Since(startTime))})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": fmt.Sprintf("%s", time.Since(startTime))})
	})

	ctx := context.Background()

	// MongoDB-backed user store. Retry/backoff to tolerate startup races.
	if cfg.MongoDB.URI != "" {
		client, errConn := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB: %v", errConn)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			usersCol := client.Database(cfg.MongoDB.Database).Collection("users")
			repo := users.NewMongoRepository(usersCol)
			if err := repo.EnsureIndexes(ctx); err != nil {
				logger.Warnf("failed to ensure user indexes: %v", err)
			}
			userRepo = repo
			userSvc = users.NewService(userRepo)
		}
	}

	// Handshake correlation store: Redis when available, in-memory otherwise.
	var handshakes handshake.Store
	if redisClient != nil {
		handshakes = handshake.NewRedisStore(redisClient, "handshake:")
	} else {
		logger.Warnf("using in-memory handshake store; concurrent replicas need Redis")
		handshakes = handshake.NewMemoryStore()
	}

	// Outbound email, decoupled from request handling.
	var dispatcher *mailer.Dispatcher
	if cfg.SMTP.Host != "" {
		dispatcher = mailer.NewDispatcher(mailer.NewSMTPNotifier(cfg.SMTP), 64)
		defer dispatcher.Close()
	} else {
		logger.Warnf("SMTP not configured; transactional email disabled")
	}

	// Avatar mirroring into object storage (optional).
	var avatars *storage.AvatarStore
	if cfg.MinIO.Endpoint != "" {
		avatars, err = storage.NewAvatarStore(cfg.MinIO)
		if err != nil {
			logger.Warnf("avatar storage unavailable: %v", err)
			avatars = nil
		}
	}

	// Register auth handlers if the user store is available
	if userSvc != nil {
		twitterClient := twitter.NewClient(cfg.Twitter.ConsumerKey, cfg.Twitter.ConsumerSecret, cfg.Twitter.Timeout)
		var notifier auth.Notifier
		if dispatcher != nil {
			notifier = dispatcher
		}
		var mirror auth.AvatarMirror
		if avatars != nil {
			mirror = avatars
		}
		authSvc := auth.NewService(cfg, userSvc, twitterClient, handshakes, notifier, mirror)
		h := handlers.NewAuthHandler(cfg, authSvc, userSvc)
		h.Register(r.Group("/"))
		h.RegisterProtected(r.Group("/api/v1"))
	} else {
		logger.Warnf("auth handlers not registered because the user store is unavailable")
	}

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Config summary: mongo=%v redis=%v jwt_secret_set=%v env=%s", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.JWT.Secret != "", cfg.Server.Environment)
	logger.Infof("Starting auth service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
