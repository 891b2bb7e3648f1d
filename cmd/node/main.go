package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/openwager/wagerd/params"
	"github.com/openwager/wagerd/pkg/api"
	"github.com/openwager/wagerd/pkg/bet"
	"github.com/openwager/wagerd/pkg/escrow"
	"github.com/openwager/wagerd/pkg/ledger"
	"github.com/openwager/wagerd/pkg/metrics"
	"github.com/openwager/wagerd/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// ---- Ledger ----
	store, err := ledger.NewStore(cfg.Node.DataDir)
	if err != nil {
		sugar.Fatalw("store_init_failed", "data_dir", cfg.Node.DataDir, "err", err)
	}
	defer store.Close()
	sugar.Infow("store_opened", "data_dir", cfg.Node.DataDir)

	// ---- Processor ----
	custody := escrow.NewCustody(cfg.Protocol.ProgramID, cfg.Protocol.TokenProgramID)
	processor := bet.NewProcessor(store, custody, util.RealClock{}, cfg.Protocol.ProgramID, sugar)

	m := metrics.New()
	processor.Metrics = m

	// ---- Devnet bootstrap ----
	// Seeds an oracle feed, a native-payment market and funded accounts so
	// the node is usable immediately with no external chain state.
	if cfg.Node.Devnet {
		if err := seedDevnet(store, cfg, sugar); err != nil {
			sugar.Fatalw("devnet_seed_failed", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Metrics Server ----
	go func() {
		if err := m.StartServer(cfg.Node.MetricsAddr, sugar); err != nil {
			sugar.Fatalw("metrics_server_failed", "err", err)
		}
	}()

	// ---- API Server ----
	apiServer := api.NewServer(processor, store, sugar)
	go func() {
		if err := apiServer.Start(cfg.Node.APIAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("node_started",
		"api_addr", cfg.Node.APIAddr,
		"metrics_addr", cfg.Node.MetricsAddr,
		"program_id", cfg.Protocol.ProgramID,
		"devnet", cfg.Node.Devnet)

	<-ctx.Done()
	sugar.Info("shutting down")
}
