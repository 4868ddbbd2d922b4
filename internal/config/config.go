package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	ServiceName string
	Version     string
	Environment string
	APIKey      string // API key for authentication

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Reputation engine tuning
	BalancedToleranceBps      int    // symmetric band for the "+1 both sides" rule
	OvervaluationThresholdBps int    // penalty threshold for inflated offers
	BalancedRewardDelta       int    // score delta for a balanced trade
	OvervaluationPenaltyDelta int    // score delta for an overvalued offer
	GiveawayPolicy            string // "neutral" or "reward"

	// Trade lifecycle tuning
	PlatformFeeBps         int
	DeliveryConfirmWindow  time.Duration
	RatingWindow           time.Duration
	DisputeResponseWindow  time.Duration
	DeadlineSweepInterval  time.Duration
	EscrowCallTimeout      time.Duration
	AutoCloseOutcome       string // default resolution for unanswered disputes
	AutoCloseRefundSplitBps int
}

// Giveaway policy values
const (
	GiveawayPolicyNeutral = "neutral"
	GiveawayPolicyReward  = "reward"
)

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		ServiceName: getEnv("SERVICE_NAME", "swapcrate-core"),
		Version:     getEnv("SERVICE_VERSION", "dev"),
		Environment: getEnv("ENVIRONMENT", "dev"),
		APIKey:      getEnv("API_KEY", ""),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBName:      getEnv("DB_NAME", "swapcrate"),

		GiveawayPolicy:   getEnv("REPUTATION_GIVEAWAY_POLICY", GiveawayPolicyNeutral),
		AutoCloseOutcome: getEnv("DISPUTE_AUTOCLOSE_OUTCOME", "PARTIAL_REFUND"),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", DefaultPort); err != nil {
		return nil, err
	}
	if cfg.BalancedToleranceBps, err = getEnvInt("REPUTATION_BALANCED_TOLERANCE_BPS", DefaultBalancedToleranceBps); err != nil {
		return nil, err
	}
	if cfg.OvervaluationThresholdBps, err = getEnvInt("REPUTATION_OVERVALUATION_THRESHOLD_BPS", DefaultOvervaluationThresholdBps); err != nil {
		return nil, err
	}
	if cfg.BalancedRewardDelta, err = getEnvInt("REPUTATION_BALANCED_REWARD", DefaultBalancedRewardDelta); err != nil {
		return nil, err
	}
	if cfg.OvervaluationPenaltyDelta, err = getEnvInt("REPUTATION_OVERVALUATION_PENALTY", DefaultOvervaluationPenaltyDelta); err != nil {
		return nil, err
	}
	if cfg.PlatformFeeBps, err = getEnvInt("PLATFORM_FEE_BPS", DefaultPlatformFeeBps); err != nil {
		return nil, err
	}
	if cfg.AutoCloseRefundSplitBps, err = getEnvInt("DISPUTE_AUTOCLOSE_REFUND_SPLIT_BPS", DefaultAutoCloseRefundSplitBps); err != nil {
		return nil, err
	}
	if cfg.DeliveryConfirmWindow, err = getEnvDuration("TRADE_DELIVERY_CONFIRM_WINDOW", DefaultDeliveryConfirmWindow); err != nil {
		return nil, err
	}
	if cfg.RatingWindow, err = getEnvDuration("TRADE_RATING_WINDOW", DefaultRatingWindow); err != nil {
		return nil, err
	}
	if cfg.DisputeResponseWindow, err = getEnvDuration("DISPUTE_RESPONSE_WINDOW", DefaultDisputeResponseWindow); err != nil {
		return nil, err
	}
	if cfg.DeadlineSweepInterval, err = getEnvDuration("DEADLINE_SWEEP_INTERVAL", DefaultDeadlineSweepInterval); err != nil {
		return nil, err
	}
	if cfg.EscrowCallTimeout, err = getEnvDuration("ESCROW_CALL_TIMEOUT", DefaultEscrowCallTimeout); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects configurations that would break lifecycle invariants
func (c *Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY environment variable must be set for security")
	}
	if c.BalancedToleranceBps < 0 {
		return fmt.Errorf("REPUTATION_BALANCED_TOLERANCE_BPS must be >= 0")
	}
	if c.OvervaluationThresholdBps <= c.BalancedToleranceBps {
		return fmt.Errorf("overvaluation threshold (%d bps) must exceed balanced tolerance (%d bps)",
			c.OvervaluationThresholdBps, c.BalancedToleranceBps)
	}
	if c.GiveawayPolicy != GiveawayPolicyNeutral && c.GiveawayPolicy != GiveawayPolicyReward {
		return fmt.Errorf("invalid REPUTATION_GIVEAWAY_POLICY: %s", c.GiveawayPolicy)
	}
	if c.AutoCloseRefundSplitBps < 0 || c.AutoCloseRefundSplitBps > 10000 {
		return fmt.Errorf("DISPUTE_AUTOCLOSE_REFUND_SPLIT_BPS must be within [0, 10000]")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return n, nil
}

// getEnvDuration retrieves a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return d, nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
