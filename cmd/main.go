package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"prediction-venue/internal/auth"
	"prediction-venue/internal/blockchain"
	"prediction-venue/internal/config"
	"prediction-venue/internal/database"
	"prediction-venue/internal/events"
	"prediction-venue/internal/handlers"
	"prediction-venue/internal/jobs"
	"prediction-venue/internal/lock"
	"prediction-venue/internal/logger"
	"prediction-venue/internal/oracle"
	"prediction-venue/internal/services"
	"prediction-venue/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("venue stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth.InitJWT(cfg.App.JWTSecret)

	if err := database.Connect(cfg); err != nil {
		return err
	}
	db := database.GetDB()
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	zl.Info("database ready", zap.String("driver", cfg.Database.Driver))

	// Collateral
	var (
		collateral token.Token
		virtual    *token.VirtualToken
		spl        *blockchain.SPLToken
	)
	switch cfg.Collateral.Kind {
	case "spl":
		client, err := blockchain.NewSolanaClient(
			blockchain.RPCEndpoint(cfg.Collateral.Network),
			cfg.Collateral.ServerWalletPrivateKey,
			zl,
		)
		if err != nil {
			return err
		}
		spl, err = blockchain.NewSPLToken(client, cfg.Collateral.MintAddress, zl)
		if err != nil {
			return err
		}
		collateral = spl
	default:
		virtual = token.NewVirtualToken(db, cfg.Collateral.VenueAccount)
		collateral = virtual
	}
	zl.Info("collateral ready", zap.String("kind", cfg.Collateral.Kind), zap.String("custodian", collateral.Custodian()))

	// Oracle
	var (
		outcomes oracle.Oracle
		manual   *oracle.Manual
	)
	switch cfg.Oracle.Kind {
	case "http":
		outcomes = oracle.NewHTTP(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Secret, cfg.Oracle.Timeout)
	default:
		manual = oracle.NewManual(db)
		outcomes = manual
	}

	// Locks and event fan-out
	hub := events.NewHub(cfg.Server.AllowedOrigins, zl)
	publishers := events.Multi{events.NewLogPublisher(zl), hub}
	var locker lock.Locker = lock.NewLocalLocker()

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to reach redis: %w", err)
		}
		locker = lock.Chain{locker, lock.NewRedisLocker(rdb, cfg.Redis.LockTTL)}
		publishers = append(publishers, events.NewRedisPublisher(rdb))
		zl.Info("redis enabled", zap.String("addr", cfg.Redis.Addr))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kp.Close()
		publishers = append(publishers, kp)
		zl.Info("kafka enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// Services
	deps := services.Deps{
		DB:     db,
		Token:  collateral,
		Locker: locker,
		Logger: zl,
	}
	registry := services.NewMarketRegistry(deps, cfg.App.OperatorWallet)
	book := services.NewOrderBook(deps)
	matching := services.NewOrderMatchingService(deps)
	amm := services.NewAMMService(deps)
	settlement := services.NewSettlementService(deps, outcomes)
	admin := services.NewAdminService(deps)
	authService := services.NewAuthService(deps)

	// Jobs
	scheduler := jobs.NewScheduler(zl)
	if err := scheduler.Add(ctx, cfg.Jobs.SettlementSpec, jobs.NewSettlementJob(settlement, zl)); err != nil {
		return err
	}
	dispatcher := events.NewDispatcher(db, publishers, zl)
	if err := scheduler.Add(ctx, cfg.Jobs.DispatchSpec, jobs.NewDispatchJob(dispatcher, zl)); err != nil {
		return err
	}

	// HTTP
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := &handlers.Router{
		Auth:           handlers.NewAuthHandler(authService, zl),
		Markets:        handlers.NewMarketHandler(registry, book, settlement),
		Trading:        handlers.NewTradingHandler(matching, book, settlement),
		AMM:            handlers.NewAMMHandler(amm),
		Token:          handlers.NewTokenHandler(collateral, virtual, spl, zl),
		Admin:          handlers.NewAdminHandler(admin, manual, zl),
		Hub:            hub,
		Operator:       cfg.App.OperatorWallet,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            zl,
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error {
		zl.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	closeDB(db, zl)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func closeDB(db *gorm.DB, zl *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		zl.Warn("failed to close database", zap.Error(err))
	}
}
