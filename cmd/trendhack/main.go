package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/trendhack/dashboard/app/controllers"
	"github.com/trendhack/dashboard/app/repository"
	apiv1 "github.com/trendhack/dashboard/internal/api/v1"
	"github.com/trendhack/dashboard/internal/pkg/billing"
	"github.com/trendhack/dashboard/internal/pkg/cache"
	"github.com/trendhack/dashboard/internal/pkg/database"
	"github.com/trendhack/dashboard/internal/pkg/env"
	"github.com/trendhack/dashboard/internal/pkg/hcaptcha"
	"github.com/trendhack/dashboard/internal/pkg/jobqueue"
	"github.com/trendhack/dashboard/internal/pkg/mail"
	"github.com/trendhack/dashboard/internal/pkg/mediastore"
	"github.com/trendhack/dashboard/internal/pkg/oauth"
	"github.com/trendhack/dashboard/internal/pkg/realtime"
	"github.com/trendhack/dashboard/internal/pkg/router"
	"github.com/trendhack/dashboard/internal/pkg/session"
	"github.com/trendhack/dashboard/internal/pkg/statistics"
)

func main() {
	app, shutdown := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	shutdown()
	if err != nil {
		log.Fatal(err)
	}
}

// NewApplication wires the whole service. When the database stays
// unreachable the app only serves the unavailable screen.
func NewApplication() (*fiber.App, func()) {
	env.SetupEnvFile()

	stripe, err := billing.NewStripeClientFromEnv()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	basePath := findBasePath()
	app := fiber.New(fiber.Config{
		AppName:   "Trend Hack",
		BodyLimit: 8 * 1024 * 1024,
	})

	// ignore favicon requests; the web client ships its own icon
	app.Use(favicon.New(favicon.Config{
		URL:          "/favicon.ico",
		CacheControl: "public, max-age=604800",
	}))

	// recovery and logging
	app.Use(recover.New(), logger.New())

	db, err := database.SetupDatabase()
	if err != nil {
		log.Printf("Starting in fallback mode: %v", err)
		router.InstallFallback(app)
		return app, func() {}
	}

	redisClient := cache.SetupCache()
	repos := repository.NewFactory(db).GetRepositories()

	ctx, cancel := context.WithCancel(context.Background())

	sessions := session.NewSessionStore(redisClient)
	oauth.Setup(redisClient)

	hub := realtime.NewHub()
	go func() {
		if err := hub.Run(ctx, redisClient); err != nil {
			log.Printf("Realtime hub stopped: %v", err)
		}
	}()
	broker := realtime.NewBroker(redisClient)

	metrics := statistics.NewService(repos.Credit, repos.Request, cache.New(redisClient))
	queue := jobqueue.NewQueue(redisClient, env.GetEnvInt("JOB_WORKERS", 3))
	mirror := setupMirror(ctx)

	processors := &jobqueue.Processors{
		Metrics:  metrics,
		Mirror:   mirror,
		Profiles: repos.Profile,
		Videos:   repos.Video,
	}
	processors.RegisterAll(queue)

	manager := jobqueue.NewManager(queue, repos.Profile, mirror)
	if err := manager.Start(); err != nil {
		log.Fatalf("Job manager: %v", err)
	}

	var captcha controllers.CaptchaVerifier
	if v := hcaptcha.NewVerifierFromEnv(); v != nil {
		captcha = v
	}

	ctrl := controllers.New(controllers.Dependencies{
		Repos:     repos,
		Sessions:  sessions,
		Mailer:    mail.NewSMTPMailerFromEnv(),
		Captcha:   captcha,
		Publisher: broker,
		Hub:       hub,
		Jobs:      queue,
		Metrics:   metrics,
		Checkout:  stripe,
		Queue:     queue,
		Sweeper:   manager,
		BaseURL:   publicBaseURL(),
	})

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "change-me"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPIFile := basePath + "public/docs/v1/openapi.yml"
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: openAPIFile,
		Path:     "v1",
	}))

	contract, err := apiv1.LoadContract(ctx, openAPIFile)
	if err != nil {
		log.Printf("Pipeline request validation disabled: %v", err)
	}

	// ROUTER
	err = router.InstallRouter(app, ctrl, sessions, router.Options{
		PipelineSecret: env.GetEnv("PIPELINE_SECRET", ""),
		Contract:       contract,
	})
	if err != nil {
		log.Fatalf("Installing routes failed: %v", err)
	}

	shutdown := func() {
		cancel()
		manager.Stop()
		closeRedis(redisClient)
	}
	return app, shutdown
}

// setupMirror returns a mirror that is disabled unless S3 is fully configured.
func setupMirror(ctx context.Context) *mediastore.Mirror {
	cfg, err := mediastore.LoadConfig()
	if err != nil {
		log.Printf("Media mirroring disabled: %v", err)
		return mediastore.NewMirror(&mediastore.Config{}, nil)
	}
	if !cfg.IsEnabled() {
		return mediastore.NewMirror(cfg, nil)
	}
	client, err := mediastore.NewClient(ctx, cfg)
	if err != nil {
		log.Printf("Media mirroring disabled: %v", err)
		return mediastore.NewMirror(cfg, nil)
	}
	return mediastore.NewMirror(cfg, client)
}

func publicBaseURL() string {
	if domain := env.GetEnv("PUBLIC_DOMAIN", ""); domain != "" {
		return domain
	}
	return "http://localhost:" + env.GetEnv("APP_PORT", "4000")
}

func findBasePath() string {
	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/trendhack to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			return path
		}
	}
	panic("Could not find project root directory")
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		log.Printf("Closing redis: %v", err)
	}
}
