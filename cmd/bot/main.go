package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/infrastructure/approval"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/infrastructure/broker"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/infrastructure/control"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/infrastructure/logger"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/infrastructure/storage"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/metrics"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/usecase"
	"github.com/Akhileshal96/Trident-Trade-Bot-Aura/internal/web"
)

type Config struct {
	Symbols   []string `yaml:"symbols"`
	Benchmark string   `yaml:"benchmark"`

	Candles struct {
		Interval     string `yaml:"interval"`
		LookbackDays int    `yaml:"lookback_days"`
	} `yaml:"candles"`

	Loop struct {
		CycleIntervalSec int `yaml:"cycle_interval_sec"`
		SymbolPacingSec  int `yaml:"symbol_pacing_sec"`
		PausePollSec     int `yaml:"pause_poll_sec"`
	} `yaml:"loop"`

	Session struct {
		NoNewEntries string `yaml:"no_new_entries"`
		ForcedClose  string `yaml:"forced_close"`
		Timezone     string `yaml:"timezone"`
	} `yaml:"session"`

	Risk   usecase.RiskLimits   `yaml:"risk"`
	Signal usecase.SignalConfig `yaml:"signal"`

	Sizing struct {
		Policy  string  `yaml:"policy"`
		Capital float64 `yaml:"capital"`
		RiskPct float64 `yaml:"risk_pct"`
	} `yaml:"sizing"`

	Approval struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"approval"`

	Telegram struct {
		AdminIDs     []int64 `yaml:"admin_ids"`
		StartRunning bool    `yaml:"start_running"`
	} `yaml:"telegram"`

	Server struct {
		MetricsPort int `yaml:"metrics_port"`
	} `yaml:"server"`

	Storage struct {
		DBPath   string `yaml:"db_path"`
		TradeCSV string `yaml:"trade_csv"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if len(cfg.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	if cfg.Benchmark == "" {
		return fmt.Errorf("benchmark must be set")
	}
	if cfg.Candles.Interval == "" || cfg.Candles.LookbackDays <= 0 {
		return fmt.Errorf("candles.interval and candles.lookback_days must be set")
	}
	return cfg.Risk.Validate()
}

func requireEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("missing required environment variable %s", name)
	}
	return v, nil
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := validateConfig(cfg); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	kiteKey, err := requireEnv("KITE_API_KEY")
	if err != nil {
		log.Fatal("configuration error", zap.Error(err))
	}
	kiteToken, err := requireEnv("KITE_ACCESS_TOKEN")
	if err != nil {
		log.Fatal("configuration error", zap.Error(err))
	}
	telegramToken, err := requireEnv("TELEGRAM_BOT_TOKEN")
	if err != nil {
		log.Fatal("configuration error", zap.Error(err))
	}
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if cfg.Approval.Enabled && openaiKey == "" {
		log.Fatal("configuration error", zap.String("missing", "OPENAI_API_KEY (approval gate enabled)"))
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DBPath, log)
	if err != nil {
		log.Fatal("failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	audit := storage.NewFanoutSink(store, storage.NewCSVTradeLog(cfg.Storage.TradeCSV, log))

	kite := broker.NewKiteAdapter(kiteKey, kiteToken, "", log)
	gate := approval.NewOpenAIGate(openaiKey, cfg.Approval.Enabled, log)

	remote := control.NewTelegramControl(telegramToken, cfg.Telegram.AdminIDs, store, log)
	remote.SetRunning(cfg.Telegram.StartRunning)

	ledger := usecase.NewRiskLedger(cfg.Risk, audit, log)
	signals := usecase.NewSignalGenerator(cfg.Signal, log)
	classifier := usecase.NewContextClassifier(kite, cfg.Benchmark, cfg.Candles.Interval, cfg.Candles.LookbackDays, log)

	sizer, err := usecase.NewSizer(cfg.Sizing.Policy, cfg.Sizing.Capital, cfg.Sizing.RiskPct, cfg.Risk.StopLossPct)
	if err != nil {
		log.Fatal("invalid sizing config", zap.Error(err))
	}

	orch, err := usecase.NewTradeOrchestrator(
		usecase.OrchestratorConfig{
			Symbols:           cfg.Symbols,
			Interval:          cfg.Candles.Interval,
			LookbackDays:      cfg.Candles.LookbackDays,
			CycleInterval:     time.Duration(cfg.Loop.CycleIntervalSec) * time.Second,
			SymbolPacing:      time.Duration(cfg.Loop.SymbolPacingSec) * time.Second,
			PausePoll:         time.Duration(cfg.Loop.PausePollSec) * time.Second,
			NoNewEntriesAfter: cfg.Session.NoNewEntries,
			ForcedCloseAfter:  cfg.Session.ForcedClose,
			Timezone:          cfg.Session.Timezone,
		},
		kite, kite, gate, remote, audit, ledger, signals, classifier, sizer, log,
	)
	if err != nil {
		log.Fatal("invalid orchestrator config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Live price feed: best-effort observability, the loop itself always
	// quotes over REST.
	go startTicker(ctx, cfg, kite, log)

	go remote.Poll(ctx)

	if cfg.Server.MetricsPort > 0 {
		srv := web.NewServer(cfg.Server.MetricsPort, ledger, remote, store, log)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error("web server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- orch.Run(ctx)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutdown signal received")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			log.Error("trade loop exited", zap.Error(err))
		}
	}
	log.Info("bot stopped")
}

func startTicker(ctx context.Context, cfg *Config, kite *broker.KiteAdapter, log *zap.Logger) {
	tokens := make([]int64, 0, len(cfg.Symbols))
	symbolByToken := make(map[int64]string, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		token, err := kite.ResolveToken(ctx, s)
		if err != nil {
			log.Warn("ticker: token resolution failed", zap.String("symbol", s), zap.Error(err))
			continue
		}
		tokens = append(tokens, token)
		symbolByToken[token] = s
	}
	if len(tokens) == 0 {
		return
	}

	ticker := broker.NewKiteTicker(kite.APIKey(), kite.AccessToken(), log)
	ticker.OnPriceUpdate(func(token int64, ltp float64) {
		if symbol, ok := symbolByToken[token]; ok {
			metrics.LastPrice.WithLabelValues(symbol).Set(ltp)
		}
	})
	defer ticker.Close()

	// Reconnect with backoff while the process lives.
	for ctx.Err() == nil {
		if err := ticker.Connect(tokens); err != nil {
			log.Warn("ticker connect failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(30 * time.Second):
		}
	}
}
