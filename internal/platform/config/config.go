package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string
	RedisURL    string

	PostgresMaxOpenConns int

	OwnerAddress       common.Address
	DistributorAddress common.Address
	RouterAddress      common.Address
	TokenAddress       common.Address
	LegacyTokenAddress common.Address
	TotalSupply        *uint256.Int

	// LegacyRouterAddress is exempt from the legacy ledger's transfer cap.
	// It defaults to the distributor so migrations can pull any amount.
	LegacyRouterAddress common.Address

	SweepTokens        []common.Address
	SweepInterval      time.Duration
	OutboxPollInterval time.Duration

	EnableFeeSweeper  bool
	EnableOutboxRelay bool
}

// Load reads an optional .env file, then the process environment. Values
// already present in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "humanity"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	owner, err := envAddress("HMN_OWNER_ADDRESS", "0x00000000000000000000000000000000000000b0")
	if err != nil {
		return Config{}, err
	}
	distributor, err := envAddress("HMN_DISTRIBUTOR_ADDRESS", "0x00000000000000000000000000000000000000d0")
	if err != nil {
		return Config{}, err
	}
	router, err := envAddress("HMN_ROUTER_ADDRESS", "")
	if err != nil {
		return Config{}, err
	}
	legacyRouter, err := envAddress("HMN_LEGACY_ROUTER_ADDRESS", distributor.Hex())
	if err != nil {
		return Config{}, err
	}
	token, err := envAddress("HMN_TOKEN_ADDRESS", "0x00000000000000000000000000000000000000a1")
	if err != nil {
		return Config{}, err
	}
	legacyToken, err := envAddress("HMN_LEGACY_TOKEN_ADDRESS", "0x00000000000000000000000000000000000000a2")
	if err != nil {
		return Config{}, err
	}

	supply := defaultSupply()
	if raw := strings.TrimSpace(os.Getenv("HMN_TOTAL_SUPPLY")); raw != "" {
		supply, err = uint256.FromDecimal(raw)
		if err != nil {
			return Config{}, fmt.Errorf("HMN_TOTAL_SUPPLY: %w", err)
		}
	}

	var sweepTokens []common.Address
	for _, value := range strings.Split(os.Getenv("HMN_SWEEP_TOKENS"), ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if !common.IsHexAddress(value) {
			return Config{}, fmt.Errorf("HMN_SWEEP_TOKENS: invalid address %q", value)
		}
		sweepTokens = append(sweepTokens, common.HexToAddress(value))
	}
	if len(sweepTokens) == 0 {
		sweepTokens = []common.Address{token}
	}

	sweepInterval, err := envDuration("HMN_SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return Config{}, err
	}
	pollInterval, err := envDuration("OUTBOX_POLL_INTERVAL", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	maxOpenConns, err := envInt("POSTGRES_MAX_OPEN_CONNS", 10)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		RedisURL:    os.Getenv("REDIS_URL"),

		PostgresMaxOpenConns: maxOpenConns,

		OwnerAddress:       owner,
		DistributorAddress: distributor,
		RouterAddress:      router,
		TokenAddress:       token,
		LegacyTokenAddress: legacyToken,
		TotalSupply:        supply,

		LegacyRouterAddress: legacyRouter,

		SweepTokens:        sweepTokens,
		SweepInterval:      sweepInterval,
		OutboxPollInterval: pollInterval,

		EnableFeeSweeper:  envBool("ENABLE_FEE_SWEEPER", true),
		EnableOutboxRelay: envBool("ENABLE_OUTBOX_RELAY", true),
	}, nil
}

func defaultSupply() *uint256.Int {
	supply := uint256.NewInt(900_000_000)
	return supply.Mul(supply, new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18)))
}

func envAddress(name string, fallback string) (common.Address, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		raw = fallback
	}
	if raw == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", name, raw)
	}
	return common.HexToAddress(raw), nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s: must be positive", name)
	}
	return value, nil
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s: must be positive", name)
	}
	return value, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
