package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_BASE_URL points to a running gateway; the suites skip when empty
	BaseURL string `envconfig:"E2E_BASE_URL"`
	// E2E_GRPC_HEALTH_ADDR is the host:port of the gRPC health service, optional
	GrpcHealthAddr string `envconfig:"E2E_GRPC_HEALTH_ADDR"`
	// E2E_AUTH_SECRET must match the server's AUTH_SECRET when it is set
	AuthSecret string `envconfig:"E2E_AUTH_SECRET"`
	// E2E_DEBUG_JSON allows dumping full request/response bodies
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
