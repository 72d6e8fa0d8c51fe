// Command server runs the document notarization service: the record service,
// the wallet boundary, the ledger client, and the notarization orchestrator
// behind one HTTP surface.
//
// Backends degrade gracefully for local development: without Postgres, Redis,
// MinIO, or Kafka configured, everything runs on in-process stores and an
// in-process signing agent.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"hati/internal/audit"
	"hati/internal/document"
	"hati/internal/document/files"
	documenthandler "hati/internal/document/handler"
	docstore "hati/internal/document/store"
	"hati/internal/jwtauth"
	"hati/internal/ledger"
	"hati/internal/notary"
	notaryhandler "hati/internal/notary/handler"
	notarymetrics "hati/internal/notary/metrics"
	notarystore "hati/internal/notary/store"
	"hati/internal/platform/config"
	"hati/internal/platform/database"
	"hati/internal/platform/httpserver"
	"hati/internal/platform/logger"
	"hati/internal/platform/metrics"
	"hati/internal/platform/redis"
	httptransport "hati/internal/transport/http"
	"hati/internal/wallet"
	wallethandler "hati/internal/wallet/handler"
	"hati/pkg/contenthash"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	hashAlg, err := contenthash.Parse(cfg.Notary.HashAlgorithm)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence. Nil handles select the in-memory backends.
	db, err := database.Open(cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("postgres connected")
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	var docStore docstore.Store = docstore.NewMemory()
	if db != nil {
		docStore = docstore.NewPostgres(db)
	}

	var fileStore files.FileStore = files.NewMemory()
	if cfg.MinIO.Endpoint != "" {
		fileStore, err = files.NewMinIO(cfg.MinIO)
		if err != nil {
			return err
		}
		log.Info("minio connected", "bucket", cfg.MinIO.Bucket)
	}

	var receiptStore notarystore.ReceiptStore = notarystore.NewMemory(cfg.Notary.ReceiptTTL)
	if redisClient != nil {
		receiptStore = notarystore.NewRedis(redisClient, cfg.Notary.ReceiptTTL)
	}

	// Audit trail: events flow through a worker so slow sinks stay off the
	// request path. Sink preference: Kafka, then Postgres, then memory.
	var auditSink audit.Appender = audit.NewMemoryStore()
	if len(cfg.Audit.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Audit)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		auditSink = kafkaSink
		log.Info("audit sink: kafka", "topic", cfg.Audit.Topic)
	} else if db != nil {
		auditSink = audit.NewPostgresStore(db)
	}
	auditInbox := make(chan audit.Event, 256)
	auditPub := audit.NewPublisher(auditInbox, log)
	auditWorker := audit.NewWorker(auditSink, auditInbox, log)

	// Wallet boundary. The RPC provider polls a signing agent daemon; without
	// one configured, the in-process mock provider signs for development.
	var provider wallet.Provider
	var rpcProvider *wallet.RPCProvider
	if cfg.Wallet.RPCURL != "" {
		rpcProvider = wallet.NewRPCProvider(cfg.Wallet.RPCURL, cfg.Wallet.AccountsPollInterval, log)
		provider = rpcProvider
	} else {
		provider = wallet.NewMockProvider(cfg.Wallet.MockAddress)
		log.Warn("no wallet provider configured, using in-process mock signer")
	}
	connector := wallet.NewConnector(provider, log)
	defer connector.Close()

	appMetrics := metrics.New()
	docService := document.NewService(docStore, fileStore, hashAlg, auditPub, appMetrics, log)
	ledgerClient := ledger.NewClient(cfg.Ledger, connector, log)
	orchestrator := notary.NewOrchestrator(
		docService,
		ledgerClient,
		connector,
		receiptStore,
		hashAlg,
		auditPub,
		notarymetrics.New(),
		log,
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Documents:    documenthandler.New(docService, log),
		Notary:       notaryhandler.New(orchestrator, log),
		Wallet:       wallethandler.New(connector, auditPub, log),
		JWTValidator: jwtauth.New(cfg.Server.JWTSigningKey),
		Metrics:      appMetrics,
		Logger:       log,
		DB:           db,
		Redis:        redisClient,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting hati", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := auditWorker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if rpcProvider != nil {
		g.Go(func() error {
			err := rpcProvider.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
