package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rextempo/LiqPro-AI-sub004/internal/config"
	"github.com/rextempo/LiqPro-AI-sub004/internal/emitter"
	"github.com/rextempo/LiqPro-AI-sub004/internal/engine"
	"github.com/rextempo/LiqPro-AI-sub004/internal/logging"
	"github.com/rextempo/LiqPro-AI-sub004/internal/model"
	"github.com/rextempo/LiqPro-AI-sub004/internal/provider"
	"github.com/rextempo/LiqPro-AI-sub004/internal/recorder"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	logger, err := logging.New()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("liqpro watcher starting")

	// Init provider
	httpProvider := provider.NewHTTPProvider(cfg.Provider.BaseURL, cfg.Provider.APIKey)
	var notifier provider.ChangeNotifier
	if cfg.Provider.WebsocketURL != "" {
		notifier = provider.NewWSNotifier(cfg.Provider.WebsocketURL, logger)
		logger.Info("push notifications enabled", zap.String("ws_url", cfg.Provider.WebsocketURL))
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init engine
	eng, err := engine.New(engine.OptionsFromConfig(cfg), engine.Deps{
		Provider: httpProvider,
		Notifier: notifier,
		Peers:    httpProvider,
		Recorder: rec,
		Registry: emitter.NewRegistry(),
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("init engine: %v", err)
	}

	// Webhook delivery for downstream consumers
	if cfg.Alert.WebhookURL != "" {
		sink := emitter.NewWebhookSink(cfg.Alert.WebhookURL, logger)
		eng.Registry().OnWhaleActivity(func(evt *model.WhaleActivityEvent) {
			if err := sink.Send(context.Background(), "whale_activity", evt); err != nil {
				logger.Error("webhook whale delivery failed", zap.Error(err))
			}
		})
		eng.Registry().OnMarketAnalysis(func(evt *model.MarketAnalysisEvent) {
			if err := sink.Send(context.Background(), "market_analysis", evt); err != nil {
				logger.Error("webhook analysis delivery failed", zap.Error(err))
			}
		})
		logger.Info("webhook sink registered", zap.String("url", cfg.Alert.WebhookURL))
	}
	eng.Registry().OnError(func(address string, err error) {
		logger.Warn("pool surveillance error", zap.String("pool", address), zap.Error(err))
	})

	if err := eng.Start(); err != nil {
		log.Fatalf("start engine: %v", err)
	}
	defer eng.Stop()

	for _, address := range cfg.Pools {
		if err := eng.AddPool(address); err != nil {
			logger.Error("add pool", zap.String("pool", address), zap.Error(err))
		}
	}
	logger.Info("watch-list initialized", zap.Int("pools", len(cfg.Pools)))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping")
}
