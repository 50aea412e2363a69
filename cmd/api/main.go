package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "adminapi/api/swagger" // swagger docs
	"adminapi/internal/config"
	"adminapi/internal/database"
	"adminapi/internal/handler"
	"adminapi/internal/repository"
	"adminapi/internal/repository/memory"
	"adminapi/internal/service"
	"adminapi/internal/websocket"
	"adminapi/pkg/broker"
	"adminapi/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const shutdownTimeout = 10 * time.Second

// @title           Admin API
// @version         1.0
// @description     Role-based administration of users, competitor stores and field tours.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.New("configs/.env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		File:       cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
	})

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	gin.SetMode(cfg.HTTP.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	events := service.FanOut{hub}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(log, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = append(events, service.NewProducerPublisher(producer))
		log.WithField("topic", cfg.Kafka.Topic).Info("publishing change events to kafka")
	}

	// Repository -> Service -> Handler
	hasher := service.BcryptHasher{}
	rbac := service.NewRBACService(repos, hasher, events)
	authSvc := service.NewAuthService(repos.Users, rbac, hasher, cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)

	if cfg.Seed.Defaults {
		err := service.NewSeeder(repos, rbac).Seed(ctx, service.SeedOptions{
			AdminEmail:    cfg.Seed.AdminEmail,
			AdminPassword: cfg.Seed.AdminPassword,
		})
		if err != nil {
			return fmt.Errorf("seed defaults: %w", err)
		}
		log.Info("default permissions and roles seeded")
	}

	if !cfg.Auth.Enabled {
		log.Warn("AUTH_ENABLED=false: permission checks are disabled")
	}

	router := handler.NewRouter(log, handler.RouterConfig{
		AuthEnabled: cfg.Auth.Enabled,
		TokenTTL:    cfg.Auth.JWTTTL,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	}, handler.Services{
		RBAC:      rbac,
		Stores:    service.NewStoreService(repos, events),
		Tours:     service.NewTourService(repos, events),
		Auth:      authSvc,
		Dashboard: service.NewDashboardService(repos),
		Audit:     service.NewAuditService(repos.Audit),
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(hub, c, authSvc)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStorage(ctx context.Context, cfg config.Config, log *logrus.Logger) (repository.Repositories, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.NewRepositories(memory.NewStore()), nil
	}

	db, err := database.NewConnection(ctx, cfg.Postgres.DSNString(), database.Options{
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
		MaxIdleConns: cfg.Postgres.MaxIdleConns,
		LogSQL:       cfg.Postgres.LogSQL,
	}, log)
	if err != nil {
		return repository.Repositories{}, err
	}
	log.Info("connected to postgres")

	if err := database.Migrate(db); err != nil {
		return repository.Repositories{}, err
	}
	return repository.NewRepositories(db), nil
}
