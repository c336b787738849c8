package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YelzhanWeb/comandas/internal/adapter/logger"
	"github.com/YelzhanWeb/comandas/internal/adapter/memory"
	"github.com/YelzhanWeb/comandas/internal/adapter/postgres"
	"github.com/YelzhanWeb/comandas/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/comandas/internal/adapter/rest"
	"github.com/YelzhanWeb/comandas/internal/app/backoffice"
	"github.com/YelzhanWeb/comandas/internal/app/favorites"
	"github.com/YelzhanWeb/comandas/internal/app/monitor"
	"github.com/YelzhanWeb/comandas/internal/app/orderstore"
	"github.com/YelzhanWeb/comandas/internal/app/session"
	"github.com/YelzhanWeb/comandas/internal/config"
	"github.com/YelzhanWeb/comandas/internal/domain"
	"github.com/YelzhanWeb/comandas/internal/interfaces"
	"github.com/YelzhanWeb/comandas/internal/realtime"

	httpAdapter "github.com/YelzhanWeb/comandas/internal/adapter/http"
	redisAdapter "github.com/YelzhanWeb/comandas/internal/adapter/redis"
)

func main() {
	mode := flag.String("mode", "", "Service mode: api-server, sync-client, notification-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	port := flag.Int("port", 0, "HTTP port (api-server), overrides config")
	storage := flag.String("storage", "postgres", "Order storage for api-server: postgres or memory")
	username := flag.String("username", "", "Sign in as this user (sync-client)")
	password := flag.String("password", "", "Password for --username (sync-client)")
	sessionBackend := flag.String("session", "memory", "Session storage for sync-client: memory or redis")
	terminal := flag.String("terminal", "default", "Terminal id, names the stored session (sync-client)")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	lgr := logger.NewWithWriter(*mode, os.Stdout, logger.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "api-server":
		runAPIServer(ctx, cfg, lgr, *storage)

	case "sync-client":
		runSyncClient(ctx, cfg, lgr, *sessionBackend, *terminal, *username, *password)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, cfg, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runAPIServer(ctx context.Context, cfg *config.Config, lgr logger.Logger, storage string) {
	var (
		orders interfaces.OrderRepository
		favs   interfaces.FavoriteRepository
		users  interfaces.UserRepository
	)

	switch storage {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("Failed to prepare schema: %v", err)
		}
		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})

		orders = postgres.NewOrderRepository(db)
		favs = postgres.NewFavoriteRepository(db)
		users = postgres.NewUserRepository(db)

	case "memory":
		store := memory.NewStore()
		orders = memory.NewOrderRepository(store)
		favs = memory.NewFavoriteRepository(store)
		users = memory.NewUserRepository(store)

	default:
		log.Fatalf("Invalid storage: %s", storage)
	}

	service := backoffice.NewService(orders, favs, users, lgr)
	api := httpAdapter.NewServer(service, lgr)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("API server started on port %d", cfg.Server.Port), "startup", map[string]interface{}{
		"port":    cfg.Server.Port,
		"storage": storage,
	})

	go func() {
		<-ctx.Done()
		lgr.Info("shutdown_initiated", "Shutting down API server", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runSyncClient(ctx context.Context, cfg *config.Config, lgr logger.Logger, backend, terminal, username, password string) {
	var storage session.Storage
	switch backend {
	case "memory":
		storage = memory.NewSessionStore()
	case "redis":
		rdb, err := redisAdapter.Initialize(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		storage = redisAdapter.NewSessionStore(rdb, terminal, cfg.Redis.SessionTTL)
	default:
		log.Fatalf("Invalid session storage: %s", backend)
	}

	sessions := session.NewManager(storage, lgr)
	client := rest.NewClient(cfg.API.BaseURL, cfg.API.Timeout, sessions, lgr)

	sess, err := sessions.Current(ctx)
	if username != "" || errors.Is(err, domain.ErrNoSession) {
		sess, err = sessions.SignIn(ctx, client, username, password)
	}
	if err != nil {
		log.Fatalf("Failed to sign in: %v", err)
	}

	notifier := rabbitmq.NewNotifier(cfg.RabbitMQ, realtime.NewHub(0), lgr)
	go func() {
		if err := notifier.Run(ctx); err != nil {
			lgr.Error("notifier_error", "Realtime connection abandoned", "runtime", nil, err)
		}
	}()

	favs := favorites.NewToggle(client, sessions, lgr)
	if err := favs.Load(ctx, sess.User.ID); err != nil {
		lgr.Warn("favorites_load_failed", "Could not load favorites", "startup", nil, err)
	}

	store := orderstore.NewStore(client, notifier, sessions, lgr)
	updates, unwatch := store.Watch()
	defer unwatch()

	if err := store.StartSync(ctx, sess.User.ID); err != nil {
		log.Fatalf("Failed to start order sync: %v", err)
	}
	defer store.Stop()

	lgr.Info("service_started", "Sync client started", "startup", map[string]interface{}{
		"user_id":   sess.User.ID,
		"role":      int(sess.User.Role),
		"favorites": len(favs.List()),
	})

	for {
		select {
		case <-ctx.Done():
			lgr.Info("shutdown_initiated", "Shutting down sync client", "shutdown", nil)
			return
		case orders := <-updates:
			lgr.Info("orders_synced", "Order list replaced", "", map[string]interface{}{
				"total":   len(orders),
				"active":  len(orderstore.Active(orders)),
				"history": len(orderstore.History(orders)),
			})
		}
	}
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	notifier := rabbitmq.NewNotifier(cfg.RabbitMQ, realtime.NewHub(0), lgr)
	go func() {
		if err := notifier.Run(ctx); err != nil {
			lgr.Error("notifier_error", "Realtime connection abandoned", "runtime", nil, err)
		}
	}()

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	monitor.NewPrinter(os.Stdout, lgr).Run(ctx, notifier,
		domain.ChannelOrderChanged, domain.ChannelStatusChanged, domain.ChannelCharts, domain.ChannelUsers)

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}
