package config

// GatewayConfig controls request interception behaviour.
type GatewayConfig struct {
	// TrustProxyHeaders makes the rate limiter key anonymous clients by the
	// first X-Forwarded-For entry instead of the socket address.
	TrustProxyHeaders bool `env:"GATEWAY_TRUST_PROXY_HEADERS" envDefault:"false"`

	// InternalAPIKey authenticates internal queue endpoints via X-Api-Key.
	InternalAPIKey string `env:"GATEWAY_INTERNAL_API_KEY"`

	// MaxBodyBytes bounds request bodies read by the gateway.
	MaxBodyBytes int64 `env:"GATEWAY_MAX_BODY_BYTES" envDefault:"1048576"`
}

// Sanitize applies guardrails to gateway configuration values.
func (g *GatewayConfig) Sanitize() {
	if g.MaxBodyBytes <= 0 {
		g.MaxBodyBytes = 1 << 20
	}
}
