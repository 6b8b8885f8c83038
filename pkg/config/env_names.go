package config

// Environment variable names, kept in one place so tests and deploy tooling
// do not drift from the struct tags.
const (
	EnvAppEnv          = "QUICKPLATE_APP_ENV"
	EnvPort            = "QUICKPLATE_APP_PORT"
	EnvLogLevel        = "QUICKPLATE_LOG_LEVEL"
	EnvRedisURL        = "QUICKPLATE_REDIS_URL"
	EnvSquareToken     = "QUICKPLATE_SQUARE_ACCESS_TOKEN"
	EnvSquareEnv       = "QUICKPLATE_SQUARE_ENV"
	EnvSquareLocation  = "QUICKPLATE_SQUARE_LOCATION_ID"
	EnvOrderAPIBaseURL = "QUICKPLATE_ORDER_API_BASE_URL"
	EnvOrderAPITimeout = "QUICKPLATE_ORDER_API_TIMEOUT"
	EnvFeeTaxRate      = "QUICKPLATE_FEE_TAX_RATE"
	EnvFeeDelivery     = "QUICKPLATE_FEE_DELIVERY"
	EnvFeeService      = "QUICKPLATE_FEE_SERVICE"
	EnvTrackingPrefix  = "QUICKPLATE_TRACKING_TOPIC_PREFIX"
)
