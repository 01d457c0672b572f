package consts

const (
	ENV_PRODUCTION  = "production"
	ENV_DEVELOPMENT = "development"
	ENV_TEST        = "test"

	DEFAULT_CONFIG_PATH = "config.yaml"

	ENV_KEY_ENV    = "SERVICEMGR_ENV"
	ENV_KEY_CONFIG = "SERVICEMGR_CONFIG"

	KEY_TraceID = "trace_id"

	METRICS_NAMESPACE = "servicemgr"
)
