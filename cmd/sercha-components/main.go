package main

// @title           Sercha Components API
// @version         1.0
// @description     Component index, search and visual-code correlation for frontend codebases.

// @contact.name   Sercha OSS
// @contact.url    https://github.com/custodia-labs/sercha-components/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-components/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-components/internal/adapters/driven/cdp"
	"github.com/custodia-labs/sercha-components/internal/adapters/driven/filesystem"
	"github.com/custodia-labs/sercha-components/internal/adapters/driven/jsonstore"
	"github.com/custodia-labs/sercha-components/internal/adapters/driven/memory"
	"github.com/custodia-labs/sercha-components/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/sercha-components/internal/adapters/driven/redis"
	"github.com/custodia-labs/sercha-components/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-components/internal/config"
	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-components/internal/core/services"
	"github.com/custodia-labs/sercha-components/internal/extractors"
	"github.com/custodia-labs/sercha-components/internal/runtime"
	"github.com/custodia-labs/sercha-components/internal/watcher"
)

var version = "dev"

// automationCheckInterval is how often the CDP endpoint is re-pinged in api mode
const automationCheckInterval = 30 * time.Second

// pingFunc adapts a function to http.Pinger
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Command line arg overrides RUN_MODE
	if len(os.Args) > 1 {
		cfg.Mode = os.Args[1]
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
	}

	log.Printf("sercha-components %s starting in %s mode", version, cfg.Mode)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// Token mode needs nothing but the secret
	authService := newAuthService(cfg)
	if cfg.Mode == config.ModeToken {
		runToken(ctx, cfg, authService)
		return
	}

	checks := make(map[string]http.Pinger)

	// ===== Initialize PostgreSQL (optional) =====
	var db *postgres.DB
	if cfg.DatabaseURL != "" {
		log.Println("Connecting to PostgreSQL...")
		db, err = postgres.Open(ctx, postgres.Options{URL: cfg.DatabaseURL})
		if err != nil {
			log.Fatalf("Failed to open history database: %v", err)
		}
		defer db.Close()
		checks["postgres"] = db
		log.Println("PostgreSQL connected and schema initialized")
	}

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		checks["redis"] = pingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		log.Println("Redis connected")
	}

	// ===== Distributed Lock (Redis, then PostgreSQL advisory locks, then in-process) =====
	var lock driven.DistributedLock
	lockBackend := "local"
	switch {
	case redisClient != nil:
		lock = redisadapter.NewLock(redisClient)
		lockBackend = "redis"
	case db != nil:
		lock = postgres.NewAdvisoryLock(db)
		lockBackend = "postgres"
	default:
		lock = memory.NewLock()
	}
	log.Printf("Using %s index lock", lockBackend)

	// ===== Loaded-index cache (Redis if available, otherwise in-process LRU) =====
	var cache driven.IndexCache
	cacheBackend := "memory"
	if redisClient != nil {
		cache = redisadapter.NewIndexCache(redisClient, cfg.CacheTTL())
		cacheBackend = "redis"
	} else {
		cache = memory.NewIndexCache(cfg.Index.CacheSize, cfg.CacheTTL())
	}
	log.Printf("Using %s index cache", cacheBackend)

	// ===== Index history (PostgreSQL only) =====
	var history driven.IndexHistoryStore
	if db != nil {
		history = postgres.NewHistoryStore(db)
	}

	runtimeConfig := domain.NewRuntimeConfig(lockBackend, cacheBackend, history != nil)
	runtimeServices := runtime.NewServices(runtimeConfig)
	defer runtimeServices.Close()

	// ===== Services (core business logic) =====
	indexer := services.NewIndexer(services.IndexerConfig{
		FileSystem: filesystem.New(),
		Extractors: extractors.DefaultRegistry(),
		Options: services.IndexerOptions{
			SourceDir:   cfg.Index.SourceDir,
			PagesDirs:   cfg.Index.PagesDirs,
			Extensions:  cfg.Index.Extensions,
			SkipDirs:    cfg.Index.SkipDirs,
			ManifestRel: "package.json",
			Concurrency: cfg.Index.Concurrency,
		},
		Logger: slog.Default(),
	})
	indexService := services.NewIndexService(services.IndexServiceConfig{
		Indexer: indexer,
		Store:   jsonstore.New(cfg.Index.ArtifactPath, slog.Default()),
		Cache:   cache,
		History: history,
		Lock:    lock,
		Logger:  slog.Default(),
	})

	log.Printf("Runtime config: lock_backend=%s, cache_backend=%s, history=%t",
		runtimeConfig.LockBackend,
		runtimeConfig.CacheBackend,
		runtimeConfig.HistoryEnabled)

	switch cfg.Mode {
	case config.ModeIndex:
		runIndex(ctx, cfg, indexService)

	case config.ModeWatch:
		runWatch(ctx, cfg, indexService)

	case config.ModeAPI:
		if cfg.CDP.Endpoint != "" {
			setupAutomation(ctx, cfg, runtimeServices)
			checks["automation"] = pingFunc(func(ctx context.Context) error {
				if !runtimeServices.CheckAutomation(ctx) {
					return domain.ErrAutomationUnavailable
				}
				return nil
			})
			go monitorAutomation(ctx, runtimeServices)
		} else {
			log.Println("CDP_ENDPOINT not set, page analysis disabled")
		}

		searchService := services.NewSearchService(indexService)
		correlationService := services.NewCorrelationService(services.CorrelationServiceConfig{
			Indexes:  indexService,
			Services: runtimeServices,
			Timeout:  cfg.AutomationTimeout(),
			Logger:   slog.Default(),
		})
		runAPI(ctx, cfg, authService, indexService, searchService, correlationService, checks)

	default:
		log.Fatalf("Unknown mode: %s (use: api, index, watch or token)", cfg.Mode)
	}
}

// newAuthService returns nil when no API secret is configured, which leaves the API open
func newAuthService(cfg *config.Config) driving.AuthService {
	if cfg.APISecret == "" {
		return nil
	}
	return services.NewAuthService(auth.NewAdapter(cfg.APISecret))
}

func setupAutomation(ctx context.Context, cfg *config.Config, rt *runtime.Services) {
	automation, err := cdp.NewAutomation(cdp.Config{
		Endpoint: cfg.CDP.Endpoint,
		Logger:   slog.Default(),
	})
	if err != nil {
		log.Fatalf("Invalid CDP endpoint: %v", err)
	}

	// Registered even when unreachable so the monitor can bring it back
	rt.SetPageAutomation(automation)
	if rt.CheckAutomation(ctx) {
		log.Printf("Page automation connected at %s", cfg.CDP.Endpoint)
	} else {
		log.Printf("Warning: page automation at %s is unreachable (page analysis will fail until it answers)", cfg.CDP.Endpoint)
	}
}

// monitorAutomation re-pings the CDP endpoint and logs availability changes
func monitorAutomation(ctx context.Context, rt *runtime.Services) {
	ticker := time.NewTicker(automationCheckInterval)
	defer ticker.Stop()

	available := rt.Config().AutomationAvailable()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := rt.CheckAutomation(ctx)
			if now != available {
				slog.Info("page automation availability changed", "available", now)
				available = now
			}
		}
	}
}

func runAPI(
	ctx context.Context,
	cfg *config.Config,
	authService driving.AuthService,
	indexService driving.IndexService,
	searchService driving.SearchService,
	correlationService driving.CorrelationService,
	checks map[string]http.Pinger,
) {
	if authService == nil {
		log.Println("Warning: API_SECRET not set, API authentication disabled")
	}
	roots := cfg.AllowedProjectRoots()
	if roots == nil {
		log.Println("Warning: neither PROJECT_ROOTS nor PROJECT_PATH set, API accepts any project_path")
	}

	server := http.NewServer(
		http.Config{
			Host:               cfg.Server.Host,
			Port:               cfg.Server.Port,
			Version:            version,
			DefaultProjectPath: cfg.ProjectPath,
			ProjectRoots:       roots,
			AllowedOrigins:     cfg.Server.AllowedOrigins,
			Logger:             slog.Default(),
		},
		authService,
		indexService,
		searchService,
		correlationService,
		checks,
	)

	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// runIndex indexes the project once and prints the metadata as JSON
func runIndex(ctx context.Context, cfg *config.Config, indexService driving.IndexService) {
	start := time.Now()
	index, err := indexService.Index(ctx, cfg.ProjectPath)
	if err != nil {
		log.Fatalf("Indexing failed: %v", err)
	}

	log.Printf("Indexed %d components and %d pages (%s) in %v",
		index.Metadata.ComponentsCount,
		index.Metadata.PagesCount,
		index.Metadata.Framework,
		time.Since(start).Round(time.Millisecond))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(index.Metadata); err != nil {
		log.Fatalf("Failed to write summary: %v", err)
	}
}

// runWatch indexes once, then re-indexes on every debounced change until shutdown
func runWatch(ctx context.Context, cfg *config.Config, indexService driving.IndexService) {
	if _, err := indexService.Index(ctx, cfg.ProjectPath); err != nil {
		log.Printf("Warning: initial index failed: %v", err)
	}

	w, err := watcher.New(watcher.Config{
		ProjectPath: cfg.ProjectPath,
		Dirs:        append([]string{cfg.Index.SourceDir}, cfg.Index.PagesDirs...),
		Extensions:  cfg.Index.Extensions,
		SkipDirs:    cfg.Index.SkipDirs,
		Manifest:    "package.json",
		Debounce:    cfg.Debounce(),
		Indexes:     indexService,
		Logger:      slog.Default(),
	})
	if err != nil {
		log.Fatalf("Failed to create watcher: %v", err)
	}

	if err := w.Run(ctx); err != nil {
		log.Fatalf("Watcher error: %v", err)
	}
	log.Println("Watcher stopped")
}

// runToken prints a signed API token to stdout
func runToken(ctx context.Context, cfg *config.Config, authService driving.AuthService) {
	token, err := authService.IssueToken(ctx, cfg.Token.Subject, domain.Role(cfg.Token.Role), cfg.TokenTTL())
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
