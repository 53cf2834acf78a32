// Command monitor-ai-host is the process entry point: it loads
// configuration, opens the telemetry store, wires the scheduler, the
// WebSocket broadcast hub, the plugin API gateway and the read API onto one
// HTTP server, and blocks until an OS signal requests shutdown.
package main

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pcfengzi/monitor-ai-bot/internal/api"
	"github.com/pcfengzi/monitor-ai-bot/internal/auth"
	_ "github.com/pcfengzi/monitor-ai-bot/internal/builtin"
	"github.com/pcfengzi/monitor-ai-bot/internal/cache"
	"github.com/pcfengzi/monitor-ai-bot/internal/config"
	"github.com/pcfengzi/monitor-ai-bot/internal/events"
	"github.com/pcfengzi/monitor-ai-bot/internal/gateway"
	"github.com/pcfengzi/monitor-ai-bot/internal/ingest"
	"github.com/pcfengzi/monitor-ai-bot/internal/logger"
	"github.com/pcfengzi/monitor-ai-bot/internal/pluginhost"
	"github.com/pcfengzi/monitor-ai-bot/internal/telemetry"
	ws "github.com/pcfengzi/monitor-ai-bot/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger isn't initialized yet; a bad config is a startup
		// failure the operator needs on stderr regardless of log format.
		os.Stderr.WriteString("monitor-ai-host: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Initialize(getEnv("MONITOR_AI_LOG_LEVEL", "info"), getEnv("MONITOR_AI_LOG_PRETTY", "") == "true")
	log := logger.GetLogger()

	store, err := telemetry.Open(telemetry.Config{
		Driver: telemetry.Driver(cfg.DBDriver),
		DSN:    cfg.DBURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open telemetry store")
	}
	defer store.Close()

	redisCache, err := openCache(cfg.CacheURL)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize cache, continuing without caching")
		redisCache, _ = cache.NewCache(cache.Config{Enabled: false})
	}
	defer redisCache.Close()

	publisher, err := events.NewPublisher(events.Config{URL: cfg.NATSURL}, *logger.Plugin())
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to NATS, alert fan-out disabled")
	}
	if publisher != nil {
		defer publisher.Close()
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct JWT manager")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := ingest.New()
	defer ch.Close()

	hub := ws.NewHub(*logger.WebSocket())
	go hub.Run()

	broadcast := api.BridgeIngestToHub(hub, *logger.WebSocket())
	consume := api.NewIngestConsumer(store, *logger.Database(), broadcast)
	go ch.Run(ctx, consume)

	discovery := pluginhost.NewDiscovery(cfg.ResolvedPluginDir(), *logger.Plugin())
	scheduler := pluginhost.NewScheduler(discovery, pluginhost.GlobalRegistry().All(), store, ch, *logger.Plugin(), cfg.TickInterval)
	go scheduler.Run(ctx)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gateway.CORSMiddleware())

	handler := api.NewHandler(store, *logger.HTTP(), publisher)
	handler.RegisterRoutes(router, api.RequireBearerToken(jwtManager), redisCache)

	streamHandler := api.NewStreamHandler(hub, *logger.WebSocket())
	streamHandler.RegisterRoutes(router)

	gw := gateway.New(store, *logger.HTTP())
	gw.SetAPIKeyHashes(cfg.GatewayAPIKeyHashes)
	gw.RegisterRoutes(router)

	if cfg.AdminTOTPSecret != "" {
		admin := api.NewAdminHandler(jwtManager, cfg.AdminTOTPSecret, *logger.HTTP())
		admin.RegisterRoutes(router)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("read API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("read API server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutdown signal received")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("read API server forced to shutdown")
	} else {
		log.Info().Msg("read API server stopped gracefully")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func openCache(cacheURL string) (*cache.Cache, error) {
	if cacheURL == "" {
		return cache.NewCache(cache.Config{Enabled: false})
	}

	host, port, db := "localhost", "6379", 0
	password := ""

	if u, err := url.Parse(cacheURL); err == nil && u.Host != "" {
		host = u.Hostname()
		if p := u.Port(); p != "" {
			port = p
		}
		if pw, ok := u.User.Password(); ok {
			password = pw
		}
		if len(u.Path) > 1 {
			if n, err := strconv.Atoi(u.Path[1:]); err == nil {
				db = n
			}
		}
	} else {
		host = cacheURL
	}

	return cache.NewCache(cache.Config{
		Host:     host,
		Port:     port,
		Password: password,
		DB:       db,
		Enabled:  true,
	})
}
