package config

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	Datafast     DatafastConfig
	DeUna        DeUnaConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Pricing.ParseVolumeTiers(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BCOMMERCE_APP_ENV" required:"true"`
	Port         string `envconfig:"BCOMMERCE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BCOMMERCE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BCOMMERCE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BCOMMERCE_DB_DSN"`
	Driver string `envconfig:"BCOMMERCE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BCOMMERCE_DB_HOST"`
	LegacyPort     int    `envconfig:"BCOMMERCE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BCOMMERCE_DB_USER"`
	LegacyPassword string `envconfig:"BCOMMERCE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BCOMMERCE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BCOMMERCE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BCOMMERCE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BCOMMERCE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BCOMMERCE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BCOMMERCE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BCOMMERCE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BCOMMERCE_REDIS_ADDR"`
	Password     string        `envconfig:"BCOMMERCE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BCOMMERCE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BCOMMERCE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BCOMMERCE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BCOMMERCE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BCOMMERCE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BCOMMERCE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BCOMMERCE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BCOMMERCE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BCOMMERCE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PricingConfig drives the deterministic totals computation.
type PricingConfig struct {
	IVARatePercent float64 `envconfig:"BCOMMERCE_PRICING_IVA_PERCENT" default:"15"`

	// Ascending quantity tiers, "minQty:percent" pairs, e.g. "5:5,10:10".
	VolumeTiers string `envconfig:"BCOMMERCE_PRICING_VOLUME_TIERS" default:"3:5,5:8,6:10,10:15"`

	SingleSellerShippingPercent float64 `envconfig:"BCOMMERCE_PRICING_SHIPPING_SINGLE_SELLER_PERCENT" default:"80"`
	MultiSellerShippingPercent  float64 `envconfig:"BCOMMERCE_PRICING_SHIPPING_MULTI_SELLER_PERCENT" default:"40"`

	DefaultShippingCostCents int `envconfig:"BCOMMERCE_PRICING_DEFAULT_SHIPPING_COST_CENTS" default:"500"`
}

// VolumeTier is a quantity threshold with its discount percentage.
type VolumeTier struct {
	MinQty  int
	Percent float64
}

// ParseVolumeTiers decodes the tier table, sorted ascending by quantity.
func (p PricingConfig) ParseVolumeTiers() ([]VolumeTier, error) {
	raw := strings.TrimSpace(p.VolumeTiers)
	if raw == "" {
		return nil, nil
	}
	pairs := strings.Split(raw, ",")
	tiers := make([]VolumeTier, 0, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid volume tier %q (expected minQty:percent)", pair)
		}
		minQty, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || minQty <= 0 {
			return nil, fmt.Errorf("invalid volume tier quantity %q", parts[0])
		}
		percent, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || percent < 0 || percent > 100 {
			return nil, fmt.Errorf("invalid volume tier percent %q", parts[1])
		}
		tiers = append(tiers, VolumeTier{MinQty: minQty, Percent: percent})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinQty < tiers[j].MinQty })
	return tiers, nil
}

// CheckoutConfig bounds the checkout snapshot lifecycle and reconciliation.
type CheckoutConfig struct {
	SessionTTL           time.Duration `envconfig:"BCOMMERCE_CHECKOUT_SESSION_TTL" default:"30m"`
	SessionIndexCap      int           `envconfig:"BCOMMERCE_CHECKOUT_SESSION_INDEX_CAP" default:"5"`
	AmountToleranceCents int           `envconfig:"BCOMMERCE_CHECKOUT_AMOUNT_TOLERANCE_CENTS" default:"1"`
	ReconcileLeaseTTL    time.Duration `envconfig:"BCOMMERCE_CHECKOUT_RECONCILE_LEASE_TTL" default:"30s"`
}

type DatafastConfig struct {
	BaseURL     string        `envconfig:"BCOMMERCE_DATAFAST_BASE_URL" default:"https://eu-test.oppwa.com"`
	EntityID    string        `envconfig:"BCOMMERCE_DATAFAST_ENTITY_ID"`
	AccessToken string        `envconfig:"BCOMMERCE_DATAFAST_ACCESS_TOKEN"`
	HTTPTimeout time.Duration `envconfig:"BCOMMERCE_DATAFAST_HTTP_TIMEOUT" default:"10s"`
}

type DeUnaConfig struct {
	BaseURL     string        `envconfig:"BCOMMERCE_DEUNA_BASE_URL" default:"https://apis.deuna.io"`
	APIKey      string        `envconfig:"BCOMMERCE_DEUNA_API_KEY"`
	APISecret   string        `envconfig:"BCOMMERCE_DEUNA_API_SECRET"`
	PointOfSale string        `envconfig:"BCOMMERCE_DEUNA_POINT_OF_SALE"`
	HTTPTimeout time.Duration `envconfig:"BCOMMERCE_DEUNA_HTTP_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BCOMMERCE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
