package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultEngineConfigIsValid(t *testing.T) {
	require.NoError(t, ValidateEngineConfig(DefaultEngineConfig()))
}

func TestValidateEngineConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*EngineConfig)
	}{
		{"negative shipping", func(c *EngineConfig) { c.ShippingCostPerOrder = -1 }},
		{"cost ratio above one", func(c *EngineConfig) { c.CostFallbackRatio = 1.2 }},
		{"product ratio negative", func(c *EngineConfig) { c.ProductCostFallbackRatio = -0.1 }},
		{"ops percent above hundred", func(c *EngineConfig) { c.DefaultOpsPercent = 101 }},
		{"zero burn window", func(c *EngineConfig) { c.BurnWindowDays = 0 }},
		{"zero sentinel", func(c *EngineConfig) { c.DaysOfStockSentinel = 0 }},
		{"zero warning ratio", func(c *EngineConfig) { c.InventoryWarningRatio = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultEngineConfig()
			tc.mutate(&cfg)
			assert.Error(t, ValidateEngineConfig(cfg))
		})
	}
}

func TestEngineConfigHolderFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	holder, err := NewEngineConfigHolder(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultEngineConfig(), holder.Get())
}

func TestEngineConfigHolderNilSafe(t *testing.T) {
	var holder *EngineConfigHolder
	assert.Equal(t, DefaultEngineConfig(), holder.Get())
}
