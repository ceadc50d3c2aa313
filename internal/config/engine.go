package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EngineConfig carries the constants the profitability formulas depend on.
type EngineConfig struct {
	ShippingCostPerOrder     float64 `mapstructure:"shippingCostPerOrder"`
	ReturnProcessingFee      float64 `mapstructure:"returnProcessingFee"`
	ForwardShippingCost      float64 `mapstructure:"forwardShippingCost"`
	ReverseShippingCost      float64 `mapstructure:"reverseShippingCost"`
	CostFallbackRatio        float64 `mapstructure:"costFallbackRatio"`
	ProductCostFallbackRatio float64 `mapstructure:"productCostFallbackRatio"`
	DefaultOpsPercent        float64 `mapstructure:"defaultOpsPercent"`
	BurnWindowDays           float64 `mapstructure:"burnWindowDays"`
	DaysOfStockSentinel      float64 `mapstructure:"daysOfStockSentinel"`
	InventoryWarningRatio    float64 `mapstructure:"inventoryWarningRatio"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ShippingCostPerOrder:     250,
		ReturnProcessingFee:      150,
		ForwardShippingCost:      250,
		ReverseShippingCost:      250,
		CostFallbackRatio:        0.6,
		ProductCostFallbackRatio: 0.4,
		DefaultOpsPercent:        5,
		BurnWindowDays:           30,
		DaysOfStockSentinel:      999,
		InventoryWarningRatio:    0.5,
	}
}

type EngineConfigHolder struct {
	current atomic.Value // holds EngineConfig
}

// NewStaticEngineConfigHolder returns a holder that never reloads.
func NewStaticEngineConfigHolder(cfg EngineConfig) *EngineConfigHolder {
	holder := &EngineConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewEngineConfigHolder(log *zap.Logger) (*EngineConfigHolder, error) {
	log = log.Named("config.engine")
	v := viper.New()

	v.SetConfigName("engine")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/profitlens")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PROFITLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultEngineConfig()
	v.SetDefault("engine.shippingCostPerOrder", defaults.ShippingCostPerOrder)
	v.SetDefault("engine.returnProcessingFee", defaults.ReturnProcessingFee)
	v.SetDefault("engine.forwardShippingCost", defaults.ForwardShippingCost)
	v.SetDefault("engine.reverseShippingCost", defaults.ReverseShippingCost)
	v.SetDefault("engine.costFallbackRatio", defaults.CostFallbackRatio)
	v.SetDefault("engine.productCostFallbackRatio", defaults.ProductCostFallbackRatio)
	v.SetDefault("engine.defaultOpsPercent", defaults.DefaultOpsPercent)
	v.SetDefault("engine.burnWindowDays", defaults.BurnWindowDays)
	v.SetDefault("engine.daysOfStockSentinel", defaults.DaysOfStockSentinel)
	v.SetDefault("engine.inventoryWarningRatio", defaults.InventoryWarningRatio)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg EngineConfig
	if err := v.UnmarshalKey("engine", &cfg); err != nil {
		return nil, err
	}
	if err := ValidateEngineConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticEngineConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated EngineConfig
		if err := v.UnmarshalKey("engine", &updated); err != nil {
			log.Warn("engine config reload failed", zap.Error(err))
			return
		}
		if err := ValidateEngineConfig(updated); err != nil {
			log.Warn("invalid engine config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("engine config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *EngineConfigHolder) Get() EngineConfig {
	if h == nil {
		return DefaultEngineConfig()
	}
	cfg, ok := h.current.Load().(EngineConfig)
	if !ok {
		return DefaultEngineConfig()
	}
	return cfg
}

func ValidateEngineConfig(cfg EngineConfig) error {
	if cfg.ShippingCostPerOrder < 0 || cfg.ReturnProcessingFee < 0 ||
		cfg.ForwardShippingCost < 0 || cfg.ReverseShippingCost < 0 {
		return errors.New("engine shipping and return costs cannot be negative")
	}
	if cfg.CostFallbackRatio < 0 || cfg.CostFallbackRatio > 1 {
		return errors.New("engine.costFallbackRatio must be within [0,1]")
	}
	if cfg.ProductCostFallbackRatio < 0 || cfg.ProductCostFallbackRatio > 1 {
		return errors.New("engine.productCostFallbackRatio must be within [0,1]")
	}
	if cfg.DefaultOpsPercent < 0 || cfg.DefaultOpsPercent > 100 {
		return errors.New("engine.defaultOpsPercent must be within [0,100]")
	}
	if cfg.BurnWindowDays <= 0 {
		return errors.New("engine.burnWindowDays must be positive")
	}
	if cfg.DaysOfStockSentinel <= 0 {
		return errors.New("engine.daysOfStockSentinel must be positive")
	}
	if cfg.InventoryWarningRatio <= 0 {
		return errors.New("engine.inventoryWarningRatio must be positive")
	}
	return nil
}
