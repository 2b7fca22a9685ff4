package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/docs"
	"github.com/BillMorio/Video-Agent-sub002/internal/auth"
	"github.com/BillMorio/Video-Agent-sub002/internal/client"
	"github.com/BillMorio/Video-Agent-sub002/internal/config"
	"github.com/BillMorio/Video-Agent-sub002/internal/handler"
	"github.com/BillMorio/Video-Agent-sub002/internal/middleware"
	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/provider"
	"github.com/BillMorio/Video-Agent-sub002/internal/service"
	"github.com/BillMorio/Video-Agent-sub002/internal/store"
	"github.com/BillMorio/Video-Agent-sub002/internal/storyboard"
	ws "github.com/BillMorio/Video-Agent-sub002/internal/websocket"
	"github.com/BillMorio/Video-Agent-sub002/internal/worker"
	"github.com/BillMorio/Video-Agent-sub002/pkg/response"
)

//go:generate swag init --dir ../../ --generalInfo cmd/server/main.go --output ../../docs --outputTypes go --parseInternal

// @title          Video Agent API
// @version        1.0
// @description    Scene production API: storyboard segmentation, per-scene asset generation and final stitching.
// @BasePath       /
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(&cfg.Server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	redisUp := true
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisUp = false
		log.Warn().Err(err).Msg("redis not available, production queue and rate limits are degraded")
	}

	st, closeStore, err := openStore(&cfg.Store, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeStore()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	validate := validator.New()

	// Progress hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	// External clients; optional ones stay nil interfaces when unconfigured
	localRenderer := client.NewLocalRenderClient(&cfg.Render)

	var storage client.StorageClient
	if r2, err := client.NewR2Client(&cfg.R2); err != nil {
		log.Warn().Err(err).Msg("object storage disabled")
	} else {
		storage = r2
	}

	var cloud client.CloudRenderer
	if cr := client.NewCloudRenderClient(&cfg.Render); cr.IsConfigured() {
		cloud = cr
	}

	heygen := client.NewHeyGenClient(&cfg.HeyGen)
	pexels := client.NewPexelsClient(&cfg.Pexels)
	wavespeed := client.NewWavespeedClient(&cfg.Wavespeed)
	google := client.NewGoogleClient(&cfg.Google)

	registry := buildRegistry(cfg, localRenderer, storage, heygen, pexels, wavespeed, google)

	var planner storyboard.Planner
	if cfg.OpenAI.APIKey != "" {
		planner = storyboard.NewOpenAIPlanner(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	}
	segmenter := storyboard.NewSegmenter(storyboardBounds(&cfg.Storyboard), planner)

	// Initialize services
	orchestrator := service.NewOrchestratorService(st, registry, hub)
	projects := service.NewProjectService(st, segmenter, service.ProjectDefaults{AvatarID: cfg.HeyGen.DefaultAvatarID})
	production := service.NewProductionService(st, orchestrator, asynqClient, cfg.Scheduler.StaleAfter)
	stitch := service.NewStitchService(st, localRenderer, cloud, storage, service.StitchSettings{
		DefaultLightLeakURL: cfg.Render.DefaultLightLeakURL,
		FPS:                 cfg.Render.FPS,
		TransitionFrames:    cfg.Render.TransitionFrames,
		MirrorToStorage:     cfg.Render.MirrorToStorage,
	}, hub)

	// Initialize handlers
	handlers := &handler.Handlers{
		Project:    handler.NewProjectHandler(projects, orchestrator, validate),
		Production: handler.NewProductionHandler(production, orchestrator, projects),
		Stitch:     handler.NewStitchHandler(stitch, validate),
		Storyboard: handler.NewStoryboardHandler(projects, validate),
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, time.Duration(cfg.JWT.Expiration)*time.Hour)
	if cfg.OIDC.Issuer != "" {
		discoverCtx, cancelDiscover := context.WithTimeout(ctx, 30*time.Second)
		verifier, err := auth.NewJWKSVerifier(discoverCtx, cfg.OIDC.Issuer, cfg.OIDC.Audience)
		cancelDiscover()
		if err != nil {
			log.Warn().Err(err).Str("issuer", cfg.OIDC.Issuer).Msg("oidc verifier unavailable, accepting shared-secret tokens only")
		} else {
			authMiddleware.WithVerifier(verifier)
			log.Info().Str("issuer", cfg.OIDC.Issuer).Msg("oidc token verification enabled")
		}
	}
	authenticate := authMiddleware.Authenticate()
	if cfg.Gateway.Enabled {
		authenticate = middleware.GatewayAuthMiddleware()
	}
	var limits handler.Limits
	if redisUp {
		rateLimiter := middleware.NewRateLimiter(redisClient)
		limits = handler.Limits{
			Init:       rateLimiter.InitLimit(cfg.RateLimit.InitPerHour),
			Production: rateLimiter.ProductionLimit(cfg.RateLimit.ProductionPerMin),
			Stitch:     rateLimiter.StitchLimit(cfg.RateLimit.StitchPerHour),
		}
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"redis":     redisUp,
				"store":     cfg.Store.Driver,
				"storage":   storage != nil,
				"cloud":     cloud != nil,
				"heygen":    heygen.IsConfigured(),
				"pexels":    pexels.IsConfigured(),
				"wavespeed": wavespeed.IsConfigured(),
				"google":    google.IsConfigured(),
				"planner":   planner != nil,
			},
		})
	})

	// Swagger UI
	if cfg.Server.ApiDomain != "" {
		docs.SwaggerInfo.Host = cfg.Server.ApiDomain
	}
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	// Gateway forward auth
	app.Get("/auth/verify", authMiddleware.ForwardAuth())

	// API routes
	handlers.Mount(app.Group("/api", authenticate), limits)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if !cfg.Gateway.Enabled {
			if _, err := authMiddleware.Identify(c.Query("token")); err != nil {
				return response.Unauthorized(c, "Invalid or missing token")
			}
		}
		return c.Next()
	})

	app.Get("/ws/projects/:projectId", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("projectId"))
	}))

	// Start Asynq worker server
	workerServer := newWorkerServer(cfg, redisOpt)
	go func() {
		mux := asynq.NewServeMux()
		mux.HandleFunc(service.TaskTypeAdvance, worker.NewProductionWorker(production).ProcessTask)
		if err := workerServer.Run(mux); err != nil {
			log.Error().Err(err).Msg("asynq worker stopped")
		}
	}()

	// Scheduled sweep
	var scheduler *worker.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = worker.NewScheduler(cfg.Scheduler.SweepSpec, production)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create scheduler")
		}
		scheduler.Start()
		log.Info().Str("spec", cfg.Scheduler.SweepSpec).Msg("production sweep scheduled")
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("shutting down server")
		if scheduler != nil {
			scheduler.Stop()
		}
		workerServer.Shutdown()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
		cancel()
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Str("env", cfg.Server.Env).Msg("server starting")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func setupLogger(cfg *config.ServerConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openStore opens the configured persistence driver
func openStore(cfg *config.StoreConfig, redisClient *redis.Client) (store.Store, func(), error) {
	switch cfg.Driver {
	case "redis":
		log.Info().Msg("using redis store")
		return store.NewRedisStore(redisClient), func() {}, nil
	default:
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, nil, err
			}
		}
		st, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite store")
		return st, func() { _ = st.Close() }, nil
	}
}

// buildRegistry binds one adapter per visual type
func buildRegistry(
	cfg *config.Config,
	renderer client.MediaRenderer,
	storage client.StorageClient,
	heygen *client.HeyGenClient,
	pexels *client.PexelsClient,
	wavespeed *client.WavespeedClient,
	google *client.GoogleClient,
) *provider.Registry {
	poller := client.NewPoller()

	var expander provider.PromptExpander
	if cfg.Google.ExpandPrompt && google.IsConfigured() {
		expander = google
	}

	registry := provider.NewRegistry()
	registry.Register(model.VisualARoll, provider.NewAvatarAdapter(poller, heygen, renderer, storage, provider.PollSettings{
		Interval: cfg.Poll.HeyGenInterval,
		MaxWait:  cfg.Poll.HeyGenMaxWait,
	}))
	registry.Register(model.VisualBRoll, provider.NewStockAdapter(pexels, renderer, cfg.Render.ConformStockToSceneLength))
	registry.Register(model.VisualImage, provider.NewImageAdapter(poller, wavespeed, provider.PollSettings{
		Interval: cfg.Poll.WavespeedInterval,
		MaxWait:  cfg.Poll.WavespeedMaxWait,
	}, provider.ImageOptions{
		Expander: expander,
		Renderer: renderer,
		Storage:  storage,
		KenBurns: cfg.Render.KenBurns,
	}))
	registry.Register(model.VisualGraphics, provider.NewGraphicsAdapter(poller, google, google, storage, provider.PollSettings{
		Interval: cfg.Poll.VeoInterval,
		MaxWait:  cfg.Poll.VeoMaxWait,
	}))
	return registry
}

// storyboardBounds overlays the configured windows on the defaults
func storyboardBounds(cfg *config.StoryboardConfig) storyboard.Bounds {
	b := storyboard.DefaultBounds()
	if cfg.WordsPerSecond > 0 {
		b.WordsPerSecond = cfg.WordsPerSecond
	}
	set := func(vt model.VisualType, lo, hi float64) {
		r := b.Durations[vt]
		if lo > 0 {
			r.Min = lo
		}
		if hi > 0 {
			r.Max = hi
		}
		b.Durations[vt] = r
	}
	set(model.VisualARoll, 0, cfg.ARollMax)
	set(model.VisualBRoll, cfg.BRollMin, cfg.BRollMax)
	set(model.VisualImage, cfg.ImageMin, cfg.ImageMax)
	set(model.VisualGraphics, cfg.GraphicsMin, cfg.GraphicsMax)
	return b
}

func newWorkerServer(cfg *config.Config, redisOpt asynq.RedisClientOpt) *asynq.Server {
	level := asynq.InfoLevel
	if cfg.Server.LogLevel == "debug" {
		level = asynq.DebugLevel
	}
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			service.QueueProduction: 1,
		},
		Logger:   asynqLogger{},
		LogLevel: level,
	})
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
