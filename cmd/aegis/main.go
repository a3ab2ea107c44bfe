package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Div1912/Ageis/internal/agent"
	"github.com/Div1912/Ageis/internal/chain"
	"github.com/Div1912/Ageis/internal/config"
	"github.com/Div1912/Ageis/internal/decisionlog"
	"github.com/Div1912/Ageis/internal/engine"
	"github.com/Div1912/Ageis/internal/executor"
	"github.com/Div1912/Ageis/internal/logger"
	"github.com/Div1912/Ageis/internal/pricefeed"
	"github.com/Div1912/Ageis/internal/state"
	"github.com/Div1912/Ageis/internal/types"
	"github.com/Div1912/Ageis/internal/web"
)

var forceDryRun bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "aegis",
		Short: "Autonomous liquidity position manager",
		Long: "AEGIS monitors a concentrated-liquidity position and rebalances it " +
			"through atomic transaction groups when the economics justify the move.",
	}
	rootCmd.PersistentFlags().BoolVar(&forceDryRun, "dry-run", false,
		"evaluate and log decisions without submitting transactions")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the monitoring loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false)
		},
	}
	onceCmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single monitoring cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(true)
		},
	}
	rootCmd.AddCommand(runCmd, onceCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run is the shared entry point for the run and once commands.
func run(single bool) error {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))
	log.Info().Msg("AEGIS agent starting...")

	dryRun := forceDryRun || config.AgentMnemonic == ""
	if dryRun && !forceDryRun {
		log.Warn().Msg("AGENT_MNEMONIC not set: running in DRY-RUN mode, no transactions will be submitted")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := buildAgent(ctx, dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build agent")
	}
	defer cleanup()

	log.Info().
		Uint64("appID", config.AppID).
		Dur("pollInterval", config.PollInterval).
		Float64("costBenefitMultiplier", config.Strategy.CostBenefitMultiplier).
		Float64("decisionThreshold", config.Strategy.DecisionThreshold).
		Bool("dryRun", dryRun).
		Msg("Agent configured")

	if single {
		a.RunCycle(ctx)
		return nil
	}

	// --- 2. Web Server ---
	webServer := web.NewWebServer(config.WebPort, a)
	go func() {
		log.Info().Str("port", config.WebPort).Msg("Starting web server")
		if err := webServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 3. Monitoring Loop ---
	a.RunLoop(ctx, config.PollInterval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Web server shutdown failed")
	}

	log.Info().Msg("AEGIS agent stopped")
	return nil
}

// buildAgent wires the chain clients, data sources, decision sinks and the
// engine into one agent. The returned cleanup closes everything that was
// successfully opened.
func buildAgent(ctx context.Context, dryRun bool) (*agent.Agent, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Chain node connection.
	algodClient, err := chain.NewAlgodClient(config.AlgodURL, config.AlgodToken)
	if err != nil {
		return nil, cleanup, err
	}
	if round, err := chain.CurrentRound(ctx, algodClient); err != nil {
		log.Warn().Err(err).Msg("Node unreachable at startup, continuing with cached data")
	} else {
		log.Info().Uint64("round", round).Str("node", config.AlgodURL).Msg("Node connected")
	}

	positionReader, err := chain.NewPositionReader(algodClient, config.AppID)
	if err != nil {
		return nil, cleanup, err
	}

	// Optional last-good-price cache.
	var redisClient *redis.Client
	if config.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", config.RedisAddr).
				Msg("Redis unreachable, price cache disabled")
			redisClient.Close()
			redisClient = nil
		} else {
			c := redisClient
			closers = append(closers, func() { c.Close() })
		}
	}

	priceReader, err := pricefeed.NewReader(config.PriceFeedURL, config.PriceFallback, redisClient)
	if err != nil {
		return nil, cleanup, err
	}

	poolStats, err := pricefeed.NewStaticPoolStats(types.PoolStats{
		FeeRate:     config.PoolFeeRate,
		Liquidity:   config.PoolLiquidity,
		TickSpacing: config.PoolTickSpacing,
	})
	if err != nil {
		return nil, cleanup, err
	}

	// Executor, only outside dry-run mode.
	var rebalanceExecutor agent.RebalanceExecutor
	if !dryRun {
		signer, err := chain.NewDelegatedSigner(algodClient, config.AgentMnemonic)
		if err != nil {
			return nil, cleanup, err
		}
		log.Info().Str("address", signer.Address()).Msg("Delegated signer ready")

		submitter, err := chain.NewSubmitter(algodClient)
		if err != nil {
			return nil, cleanup, err
		}

		rebalanceExecutor, err = executor.NewBuilder(executor.Config{
			HoldingAppID:        config.AppID,
			ExchangeAppID:       config.ExchangeAppID,
			ExchangePoolAddress: config.ExchangePoolAddress,
			USDCAssetID:         config.USDCAssetID,
			SwapInputMicro:      config.SwapInputMicro,
			MaxSlippagePct:      config.Strategy.MaxSlippagePct,
			MaxWaitRounds:       config.MaxWaitRounds,
		}, signer, submitter)
		if err != nil {
			return nil, cleanup, err
		}
	}

	// Decision log: durable file primary, best-effort mirrors.
	fileSink, err := decisionlog.NewFileSink(config.DecisionLogFile)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, func() { fileSink.Close() })

	var mirrors []decisionlog.Appender
	if config.DBHost != "" {
		dbCfg := state.DBConfig{
			Host: config.DBHost, Port: config.DBPort,
			User: config.DBUser, Password: config.DBPassword,
			DBName: config.DBName, SSLMode: config.DBSSLMode,
		}
		if err := state.InitDB(dbCfg); err != nil {
			log.Warn().Err(err).Msg("Database unreachable, decision mirror disabled")
		} else if err := state.EnsureSchema(); err != nil {
			log.Warn().Err(err).Msg("Schema setup failed, decision mirror disabled")
			state.CloseDB()
		} else {
			closers = append(closers, state.CloseDB)
			mirrors = append(mirrors, decisionlog.NewPostgresMirror())
		}
	}
	if len(config.KafkaBrokers) > 0 {
		publisher, err := decisionlog.NewKafkaPublisher(config.KafkaBrokers, config.KafkaTopic)
		if err != nil {
			log.Warn().Err(err).Msg("Kafka unreachable, decision events disabled")
		} else {
			closers = append(closers, func() { publisher.Close() })
			mirrors = append(mirrors, publisher)
		}
	}

	recorder, err := decisionlog.NewRecorder(fileSink, mirrors...)
	if err != nil {
		return nil, cleanup, err
	}

	a, err := agent.New(agent.Config{
		Position: positionReader,
		Price:    priceReader,
		Pool:     poolStats,
		Executor: rebalanceExecutor,
		Recorder: recorder,
		Engine:   engine.New(config.Strategy, nil),
		DryRun:   dryRun,
	})
	if err != nil {
		return nil, cleanup, err
	}
	return a, cleanup, nil
}
