package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	Cart         CartConfig
	Admin        AdminConfig
	Stripe       StripeConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string   `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the tokens minted by the external identity provider.
type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PricingConfig holds the shipping threshold and tax policy. Money values are
// kept as strings so they never pass through a float.
type PricingConfig struct {
	FreeShippingThreshold string `envconfig:"STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD" default:"150.00"`
	FlatShippingFee       string `envconfig:"STOREFRONT_PRICING_FLAT_SHIPPING_FEE" default:"15.00"`
	TaxPolicy             string `envconfig:"STOREFRONT_PRICING_TAX_POLICY" default:"none"`
	TaxRate               string `envconfig:"STOREFRONT_PRICING_TAX_RATE" default:"0"`
}

// Threshold returns the free-shipping threshold as a decimal.
func (p PricingConfig) Threshold() decimal.Decimal {
	return mustDecimal(p.FreeShippingThreshold)
}

// FlatFee returns the flat shipping fee as a decimal.
func (p PricingConfig) FlatFee() decimal.Decimal {
	return mustDecimal(p.FlatShippingFee)
}

// Rate returns the flat tax rate as a decimal.
func (p PricingConfig) Rate() decimal.Decimal {
	return mustDecimal(p.TaxRate)
}

func (p PricingConfig) validate() error {
	for name, raw := range map[string]string{
		EnvFreeShippingThreshold: p.FreeShippingThreshold,
		EnvFlatShippingFee:       p.FlatShippingFee,
		EnvTaxRate:               p.TaxRate,
	} {
		v, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s must be a decimal: %w", name, err)
		}
		if v.IsNegative() {
			return fmt.Errorf("%s must be >= 0", name)
		}
	}
	switch strings.ToLower(strings.TrimSpace(p.TaxPolicy)) {
	case TaxPolicyNone:
	case TaxPolicyFlat:
		if p.Rate().GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s must be between 0 and 1", EnvTaxRate)
		}
	default:
		return fmt.Errorf("%s must be one of %s, %s", EnvTaxPolicy, TaxPolicyNone, TaxPolicyFlat)
	}
	return nil
}

type CheckoutConfig struct {
	RequireAuthForOrder bool          `envconfig:"STOREFRONT_CHECKOUT_REQUIRE_AUTH" default:"true"`
	ClampToStock        bool          `envconfig:"STOREFRONT_CHECKOUT_CLAMP_TO_STOCK" default:"true"`
	PriceTolerance      string        `envconfig:"STOREFRONT_CHECKOUT_PRICE_TOLERANCE" default:"0.01"`
	SuccessURL          string        `envconfig:"STOREFRONT_CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL           string        `envconfig:"STOREFRONT_CHECKOUT_CANCEL_URL" default:"http://localhost:3000/checkout"`
	IdempotencyTTL      time.Duration `envconfig:"STOREFRONT_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

// Tolerance returns the accepted drift between submitted and computed totals.
func (c CheckoutConfig) Tolerance() decimal.Decimal {
	return mustDecimal(c.PriceTolerance)
}

type CartConfig struct {
	TTL time.Duration `envconfig:"STOREFRONT_CART_TTL" default:"720h"`
}

// AdminConfig lists the user ids allowed through the admin surface.
type AdminConfig struct {
	UserIDs []string `envconfig:"STOREFRONT_ADMIN_USER_IDS"`
}

// AllowList returns the configured admin ids as a set.
func (a AdminConfig) AllowList() map[string]struct{} {
	set := make(map[string]struct{}, len(a.UserIDs))
	for _, id := range a.UserIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

type StripeConfig struct {
	APIKey        string        `envconfig:"STOREFRONT_STRIPE_API_KEY"`
	SigningSecret string        `envconfig:"STOREFRONT_STRIPE_SIGNING_SECRET"`
	Env           string        `envconfig:"STOREFRONT_STRIPE_ENV" default:"test"`
	Currency      string        `envconfig:"STOREFRONT_STRIPE_CURRENCY" default:"usd"`
	EventTTL      time.Duration `envconfig:"STOREFRONT_STRIPE_EVENT_TTL" default:"72h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if db.DSN != "" {
		return nil
	}
	if sqlite {
		db.DSN = "file:storefront.db?cache=shared"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

func mustDecimal(raw string) decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return v
}
