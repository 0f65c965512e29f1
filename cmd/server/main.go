package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/accounts/api/handler"
	"github.com/fastygo/accounts/internal/config"
	"github.com/fastygo/accounts/internal/infrastructure/boltdb"
	"github.com/fastygo/accounts/internal/infrastructure/mail"
	"github.com/fastygo/accounts/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/accounts/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/accounts/internal/infrastructure/redis"
	"github.com/fastygo/accounts/internal/middleware"
	"github.com/fastygo/accounts/internal/router"
	"github.com/fastygo/accounts/internal/security"
	"github.com/fastygo/accounts/internal/services/lifecycle"
	"github.com/fastygo/accounts/pkg/httpcontext"
	"github.com/fastygo/accounts/pkg/logger"
	"github.com/fastygo/accounts/repository"
	boltRepo "github.com/fastygo/accounts/repository/bolt"
	pgRepo "github.com/fastygo/accounts/repository/postgres"
	redisRepo "github.com/fastygo/accounts/repository/redis"
	accountUC "github.com/fastygo/accounts/usecase/account"
	authUC "github.com/fastygo/accounts/usecase/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx := context.Background()
	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)

	accounts, err := openAccountStore(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("account store unavailable", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.RegisterCloser("redis", redisClient)
	sessions := redisRepo.NewSessionRepository(redisClient, cfg.JWT.RefreshTTL)

	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	signer, err := security.NewSigner(cfg.Signing.Secret)
	if err != nil {
		zapLogger.Fatal("signer setup failed", zap.Error(err))
	}
	tokens, err := security.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		zapLogger.Fatal("token issuer setup failed", zap.Error(err))
	}
	notifier, err := mail.New(cfg.Mail, zapLogger)
	if err != nil {
		zapLogger.Fatal("notifier setup failed", zap.Error(err))
	}

	accountUseCase := accountUC.New(accounts, hasher, signer, notifier, cfg.Verification.BaseURL, zapLogger)
	authUseCase := authUC.New(accounts, sessions, hasher, tokens, zapLogger)

	mon := monitor.New(0, zapLogger)
	mon.Register("store", accounts)
	mon.Register("redis", sessions)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Account: apiHandler.NewAccountHandler(accountUseCase, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(accountUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers, middleware.JWTAuth(tokens, zapLogger))

	server := &fasthttp.Server{
		Handler:      router.Handler(r, middleware.AccessLog(zapLogger)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	manager.Run("http_server", func() error {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		return server.ListenAndServe(cfg.Address())
	})
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	if err := manager.Wait(appCtx); err != nil {
		zapLogger.Error("server stopped unexpectedly", zap.Error(err))
	}

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openAccountStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (repository.AccountRepository, error) {
	if cfg.Store.Driver == config.StoreDriverBolt {
		db, err := boltdb.Open(cfg.Bolt.Path, boltRepo.BucketNames()...)
		if err != nil {
			return nil, err
		}
		manager.RegisterCloser("bolt", db)
		zapLogger.Info("using bolt account store", zap.String("path", cfg.Bolt.Path))
		return boltRepo.NewAccountRepository(db), nil
	}

	if err := pgInfra.RunMigrations(cfg.Database, cfg.Migrations, zapLogger); err != nil {
		return nil, err
	}
	pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
	if err != nil {
		return nil, err
	}
	manager.Register("postgres", func(context.Context) error {
		pool.Close()
		return nil
	})
	return pgRepo.NewAccountRepository(pool), nil
}
