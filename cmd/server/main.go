// Command server runs the ledger API. Every external system is optional:
// without postgres, redis, or kafka the binary falls back to in-memory
// stores, which is the development and test configuration.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"ryegate/internal/audit"
	"ryegate/internal/auth"
	"ryegate/internal/docs"
	"ryegate/internal/kyc"
	"ryegate/internal/notes"
	"ryegate/internal/oracle"
	"ryegate/internal/platform/config"
	"ryegate/internal/platform/httpserver"
	"ryegate/internal/platform/logger"
	"ryegate/internal/rbac"
	"ryegate/internal/relay"
	httptransport "ryegate/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		roleStore   rbac.Store   = rbac.NewInMemoryStore()
		kycStore    kyc.Store    = kyc.NewInMemoryStore()
		oracleStore oracle.Store = oracle.NewInMemoryStore()
		docStore    docs.Store   = docs.NewInMemoryStore()
	)

	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connect failed", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()
		for _, schema := range []string{rbac.Schema, kyc.Schema, oracle.Schema, docs.Schema} {
			if _, err := pool.Exec(ctx, schema); err != nil {
				log.Error("schema migration failed", "error", err.Error())
				os.Exit(1)
			}
		}
		roleStore = rbac.NewPostgresStore(pool)
		kycStore = kyc.NewPostgresStore(pool)
		oracleStore = oracle.NewPostgresStore(pool)
		docStore = docs.NewPostgresStore(pool)
		log.Info("using postgres stores")
	}

	kycMetrics := kyc.NewMetrics()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("redis url invalid", "error", err.Error())
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		kycStore = kyc.NewRedisCache(kycStore, client, cfg.KYCCacheTTL, kycMetrics)
		log.Info("kyc lookups cached in redis", "ttl", cfg.KYCCacheTTL.String())
	}

	// Audit events flow through a buffered channel so engine operations
	// never block on the sink.
	var auditSink audit.Sink = audit.NewInMemoryStore()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers)
		if err != nil {
			log.Error("kafka connect failed", "error", err.Error())
			os.Exit(1)
		}
		defer kafkaSink.Close()
		auditSink = kafkaSink
		log.Info("audit events published to kafka", "topic", audit.Topic)
	}
	auditInbox := make(chan audit.Event, 256)
	auditWorker := audit.NewWorker(auditSink, auditInbox)
	publisher := audit.NewPublisher(audit.ChannelSink(auditInbox), log)

	roles, err := rbac.NewService(ctx, roleStore, cfg.BootstrapAdmins...)
	if err != nil {
		log.Error("rbac bootstrap failed", "error", err.Error())
		os.Exit(1)
	}
	kycSvc := kyc.NewService(kycStore, roles, kycMetrics)
	oracleSvc := oracle.NewService(oracleStore, roles)
	docsSvc := docs.NewService(docStore, roles)

	reserve := notes.NewMockReserve()
	ledger := notes.NewLedger(notes.Config{
		MaxSupply:     cfg.MaxSupply,
		LedgerAddress: cfg.LedgerAddress,
		Reserve:       reserve,
		KYC:           kycSvc,
		Reports:       oracleSvc,
		Roles:         roles,
		Audit:         publisher,
		Metrics:       notes.NewMetrics(),
		Logger:        log,
	})

	var relaySvc *relay.Relay
	if cfg.RevenueAPIURL != "" {
		relaySvc = relay.New(relay.Config{
			Oracle:          oracleSvc,
			Caller:          cfg.RelayCaller,
			APIURL:          cfg.RevenueAPIURL,
			APIKey:          cfg.RevenueAPIKey,
			SlackWebhookURL: cfg.SlackWebhookURL,
			Logger:          log,
		})
		log.Info("revenue relay enabled", "caller", cfg.RelayCaller.String())
	}

	jwtSvc := auth.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	handler := httptransport.NewHandler(kycSvc, oracleSvc, docsSvc, ledger, roles, relaySvc, log)
	router := httptransport.NewRouter(handler, jwtSvc, log)
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting ryegate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := auditWorker.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
