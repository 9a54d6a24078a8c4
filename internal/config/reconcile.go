package config

import (
	"errors"
	"log"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ReconcileConfig holds the operator-tunable reconciliation knobs.
type ReconcileConfig struct {
	WindowDays        int `mapstructure:"windowDays"`
	BatchLimit        int `mapstructure:"batchLimit"`
	SearchCandidates  int `mapstructure:"searchCandidates"`
	ProviderPageLimit int `mapstructure:"providerPageLimit"`
}

func DefaultReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		WindowDays:        7,
		BatchLimit:        100,
		SearchCandidates:  10,
		ProviderPageLimit: 100,
	}
}

// ReconcileConfigHolder serves the current config and swaps it on file change.
type ReconcileConfigHolder struct {
	current atomic.Value // holds ReconcileConfig
}

func NewReconcileConfigHolder() (*ReconcileConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("reconcile")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/ledgerlink")
	v.AddConfigPath("./config")

	cfg := DefaultReconcileConfig()
	holder := &ReconcileConfigHolder{}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		holder.current.Store(cfg)
		return holder, nil
	}

	if err := v.UnmarshalKey("reconcile", &cfg); err != nil {
		return nil, err
	}
	if err := validateReconcileConfig(cfg); err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultReconcileConfig()
		if err := v.UnmarshalKey("reconcile", &updated); err != nil {
			log.Printf("[reconcile-config] reload failed: %v", err)
			return
		}
		if err := validateReconcileConfig(updated); err != nil {
			log.Printf("[reconcile-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[reconcile-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ReconcileConfigHolder) Get() ReconcileConfig {
	return h.current.Load().(ReconcileConfig)
}

func validateReconcileConfig(cfg ReconcileConfig) error {
	if cfg.WindowDays <= 0 {
		return errors.New("reconcile.windowDays must be positive")
	}
	if cfg.BatchLimit <= 0 {
		return errors.New("reconcile.batchLimit must be positive")
	}
	if cfg.SearchCandidates <= 0 {
		return errors.New("reconcile.searchCandidates must be positive")
	}
	return nil
}
