package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/ManuelReschke/Reakage/app/repository"
	"github.com/ManuelReschke/Reakage/internal/pkg/blobstore"
	"github.com/ManuelReschke/Reakage/internal/pkg/cache"
	"github.com/ManuelReschke/Reakage/internal/pkg/database"
	"github.com/ManuelReschke/Reakage/internal/pkg/env"
	"github.com/ManuelReschke/Reakage/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/Reakage/internal/pkg/livequery"
	"github.com/ManuelReschke/Reakage/internal/pkg/reports"
	"github.com/ManuelReschke/Reakage/internal/pkg/router"
	"github.com/ManuelReschke/Reakage/internal/pkg/statistics"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/reakage to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	setupServices(basePath)

	// init fiber app
	app := fiber.New(fiber.Config{
		Views: html.New(basePath+"views", ".html"),
		// a photo plus the form fields
		BodyLimit: int(imageprocessor.MaxBytes()) + 1<<20,
	})

	// ignore favicon requests, the app ships an SVG logo only
	app.Use(favicon.New(favicon.Config{
		URL:          "/favicon.ico",
		CacheControl: "public, max-age=604800",
	}))

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New(monitor.Config{Title: "Reakage Metrics"}))

	// static files
	app.Static("/", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// static uploads, only used by the local blob store
	if local, ok := blobstore.GetStore().(*blobstore.LocalStore); ok {
		app.Static("/uploads", local.Dir(), fiber.Static{
			CacheDuration: 10 * time.Second,
			Compress:      false,
			MaxAge:        604800, // 7 days
		})
	}

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}

// setupServices wires repositories, blob storage, the live-query feed and
// the report and statistics services.
func setupServices(basePath string) {
	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := blobstore.LoadConfig()
	if err != nil {
		log.Fatalf("[Storage] %v", err)
	}
	if cfg.Driver == blobstore.DriverLocal && !filepath.IsAbs(cfg.UploadsDir) {
		cfg.UploadsDir = basePath + cfg.UploadsDir
	}
	store, err := blobstore.New(ctx, cfg)
	if err != nil {
		log.Fatalf("[Storage] %v", err)
	}
	blobstore.SetStore(store)

	var feed livequery.Feed
	if cache.IsAvailable() {
		feed = livequery.NewRedisFeed(cache.GetClient())
	} else {
		log.Println("[LiveQuery] Redis unavailable, falling back to in-process notifications")
		feed = livequery.NewMemoryFeed()
	}

	reports.SetService(reports.NewService(repos.Report, store, feed,
		reports.WithMaxPhotoBytes(imageprocessor.MaxBytes()),
	))
	statistics.SetService(statistics.NewService(repos.Report, repos.User, statistics.RedisCache()))
}
