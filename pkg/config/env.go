package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	TaxPolicyNone = "none"
	TaxPolicyFlat = "flat"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBPort = "STOREFRONT_DB_PORT"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBPass = "STOREFRONT_DB_PASSWORD"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvFreeShippingThreshold = "STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD"
	EnvFlatShippingFee       = "STOREFRONT_PRICING_FLAT_SHIPPING_FEE"
	EnvTaxPolicy             = "STOREFRONT_PRICING_TAX_POLICY"
	EnvTaxRate               = "STOREFRONT_PRICING_TAX_RATE"

	EnvRequireAuthForOrder = "STOREFRONT_CHECKOUT_REQUIRE_AUTH"
	EnvAdminUserIDs        = "STOREFRONT_ADMIN_USER_IDS"
	EnvUseSQLite           = "STOREFRONT_USE_SQLITE"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
