package consts

const (
	COMPONENT_LOGGING     = "logging"
	COMPONENT_TELEMETRY   = "telemetry"
	COMPONENT_PROMETHEUS  = "prometheus"
	COMPONENT_REDIS       = "redis"
	COMPONENT_STORAGE     = "storage"
	COMPONENT_BUS         = "bus"
	COMPONENT_LINK        = "link"
	COMPONENT_SUPERVISOR  = "supervisor"
	COMPONENT_HTTP_SERVER = "http_server"
)
