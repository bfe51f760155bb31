// Package config loads the vault tier configuration from YAML or falls back
// to the built-in tier set.
package config

import (
	"flag"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/stellarvault/internal/domain"
	"github.com/vadiminshakov/stellarvault/internal/registry"
)

// StrategyConfig describes one yield venue of a tier.
type StrategyConfig struct {
	Kind              string `yaml:"kind"`
	AllocationPercent uint8  `yaml:"allocation_percent"`
	APYBasisPoints    uint16 `yaml:"apy_bps"`
}

// TierConfig describes one risk tier.
type TierConfig struct {
	RiskLevel       string           `yaml:"risk_level"`
	InsuranceFeeBps uint16           `yaml:"insurance_fee_bps"`
	Strategies      []StrategyConfig `yaml:"strategies"`
}

// Config is the full runtime configuration.
type Config struct {
	// Platform selects the ledger backend: "horizon" or "simulate".
	Platform          string       `yaml:"platform"`
	HorizonURL        string       `yaml:"horizon_url"`
	NetworkPassphrase string       `yaml:"network_passphrase"`
	VaultAddress      string       `yaml:"vault_address"`
	ListenAddr        string       `yaml:"listen_addr"`
	WalDir            string       `yaml:"wal_dir"`
	Tiers             []TierConfig `yaml:"tiers"`
}

// Default returns the built-in configuration: the original three tiers
// against Horizon testnet.
func Default() Config {
	return Config{
		Platform:          "horizon",
		HorizonURL:        "https://horizon-testnet.stellar.org",
		NetworkPassphrase: "Test SDF Network ; September 2015",
		ListenAddr:        ":8080",
		WalDir:            "./wal",
		Tiers: []TierConfig{
			{
				RiskLevel:       "low",
				InsuranceFeeBps: 50,
				Strategies: []StrategyConfig{
					{Kind: "yieldblox_lending", AllocationPercent: 100, APYBasisPoints: 350},
				},
			},
			{
				RiskLevel:       "medium",
				InsuranceFeeBps: 100,
				Strategies: []StrategyConfig{
					{Kind: "aqua_liquidity_pool", AllocationPercent: 60, APYBasisPoints: 850},
					{Kind: "yieldblox_lending", AllocationPercent: 40, APYBasisPoints: 400},
				},
			},
			{
				RiskLevel:       "high",
				InsuranceFeeBps: 200,
				Strategies: []StrategyConfig{
					{Kind: "money_market", AllocationPercent: 100, APYBasisPoints: 1500},
				},
			},
		},
	}
}

// Get parses flags and loads the configuration, layering a YAML file over the
// defaults when -config is provided.
func Get() (Config, error) {
	path := flag.String("config", "", "path to yaml config")
	flag.Parse()

	cfg := Default()
	if *path == "" {
		return cfg, nil
	}

	f, err := os.ReadFile(*path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", *path)
	}
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", *path)
	}

	if _, err := cfg.TierConfigs(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// TierConfigs converts and validates the tier section into registry configs.
// Strategy percentages that do not sum to 100 are rejected here, before any
// vault exists.
func (c Config) TierConfigs() ([]registry.TierConfig, error) {
	if len(c.Tiers) == 0 {
		return nil, errors.Wrap(domain.ErrInvalidConfiguration, "no tiers configured")
	}

	tiers := make([]registry.TierConfig, 0, len(c.Tiers))
	for _, tier := range c.Tiers {
		risk, err := domain.ParseRiskLevel(tier.RiskLevel)
		if err != nil {
			return nil, errors.Wrap(domain.ErrInvalidConfiguration, err.Error())
		}

		var sum int
		strategies := make([]domain.Strategy, 0, len(tier.Strategies))
		for _, s := range tier.Strategies {
			kind, err := domain.ParseStrategyKind(s.Kind)
			if err != nil {
				return nil, errors.Wrap(domain.ErrInvalidConfiguration, err.Error())
			}
			sum += int(s.AllocationPercent)
			strategies = append(strategies, domain.Strategy{
				Kind:              kind,
				AllocationPercent: s.AllocationPercent,
				APYBasisPoints:    s.APYBasisPoints,
			})
		}
		if sum != 100 {
			return nil, errors.Wrapf(domain.ErrInvalidConfiguration, "tier %s: strategy allocations sum to %d, want 100", tier.RiskLevel, sum)
		}

		tiers = append(tiers, registry.TierConfig{
			RiskLevel:       risk,
			InsuranceFeeBps: tier.InsuranceFeeBps,
			Strategies:      strategies,
		})
	}
	return tiers, nil
}
