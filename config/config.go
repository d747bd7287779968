package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"stakevault/crypto"
	"stakevault/native/stake"
)

// Config holds the daemon configuration loaded from TOML.
type Config struct {
	RPCAddress     string   `toml:"RPCAddress"`
	DataDir        string   `toml:"DataDir"`
	Env            string   `toml:"Env"`
	LogFile        string   `toml:"LogFile"`
	LogMaxSizeMB   int      `toml:"LogMaxSizeMB"`
	PeriodDays     []uint64 `toml:"PeriodDays"`
	RewardRateBps  uint64   `toml:"RewardRateBps"`
	AccrualSeconds uint64   `toml:"AccrualSeconds"`
	ForfeitPolicy  string   `toml:"ForfeitPolicy"`
	Authority      string   `toml:"Authority"`
	ModuleAddress  string   `toml:"ModuleAddress"`
	StakingSymbol  string   `toml:"StakingSymbol"`
	RewardSymbol   string   `toml:"RewardSymbol"`
	OracleRateNum  int64    `toml:"OracleRateNum"`
	OracleRateDen  int64    `toml:"OracleRateDen"`
	// OracleMaxQuoteAgeSeconds bounds the age of an accepted price quote.
	// Zero disables the freshness check.
	OracleMaxQuoteAgeSeconds uint64 `toml:"OracleMaxQuoteAgeSeconds"`
}

// Default returns the baseline configuration used when no file is present.
func Default() *Config {
	return &Config{
		RPCAddress:     "127.0.0.1:8645",
		DataDir:        "./stakevault-data",
		Env:            "dev",
		PeriodDays:     []uint64{30, 60, 90},
		RewardRateBps:  10,
		AccrualSeconds: stake.SecondsPerDay,
		ForfeitPolicy:  string(stake.ForfeitPartial),
		StakingSymbol:  "VLT",
		RewardSymbol:   "RWD",
		OracleRateNum:  1,
		OracleRateDen:  1,

		OracleMaxQuoteAgeSeconds: 300,
	}
}

// Load reads the configuration from the given path, falling back to defaults
// when the file does not exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot operate with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress required")
	}
	if len(c.PeriodDays) == 0 {
		return fmt.Errorf("config: at least one staking period tier required")
	}
	for _, days := range c.PeriodDays {
		if days == 0 {
			return fmt.Errorf("config: staking period tier must be positive")
		}
	}
	if c.RewardRateBps == 0 {
		return fmt.Errorf("config: RewardRateBps must be positive")
	}
	switch stake.ForfeitPolicy(c.ForfeitPolicy) {
	case stake.ForfeitPartial, stake.ForfeitAll:
	default:
		return fmt.Errorf("config: unknown ForfeitPolicy %q", c.ForfeitPolicy)
	}
	if strings.TrimSpace(c.StakingSymbol) == "" || strings.TrimSpace(c.RewardSymbol) == "" {
		return fmt.Errorf("config: token symbols required")
	}
	if c.OracleRateDen <= 0 || c.OracleRateNum <= 0 {
		return fmt.Errorf("config: oracle rate must be positive")
	}
	if c.Authority != "" {
		if _, err := crypto.DecodeAddress(c.Authority); err != nil {
			return fmt.Errorf("config: invalid Authority address: %w", err)
		}
	}
	if c.ModuleAddress != "" {
		if _, err := crypto.DecodeAddress(c.ModuleAddress); err != nil {
			return fmt.Errorf("config: invalid ModuleAddress: %w", err)
		}
	}
	return nil
}

// StakeParams converts the configuration into engine parameters.
func (c *Config) StakeParams() stake.Params {
	return stake.Params{
		PeriodDays:     append([]uint64(nil), c.PeriodDays...),
		RewardRateBps:  c.RewardRateBps,
		AccrualSeconds: c.AccrualSeconds,
		Forfeit:        stake.ForfeitPolicy(c.ForfeitPolicy),
	}
}
