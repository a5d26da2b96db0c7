package ratelimit

import (
	"strings"
)

// MatchEndpoint resolves the rate-limit tier for a request. Exact path+method
// matches win; a config path ending in "/" acts as a prefix pattern (so
// "/status/" covers "/status/{id}"). Nil means the caller's default applies.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// The health check stays unmetered so monitoring never trips the limiter.
	if path == "/health" && method == "GET" {
		return &EndpointConfig{}
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") &&
			strings.HasPrefix(path, config.Path) {
			return config
		}
	}

	return nil
}
