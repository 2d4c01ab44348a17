package config

import "os"

// parseEnv overlays the deployment variables that are set and non-empty.
func parseEnv(config *Config) {
	for name, dst := range map[string]*string{
		"ADDRESS":      &config.EndpointAddrHTTP,
		"DATABASE_URL": &config.DatabaseDSN,
		"SECRET_KEY":   &config.SecretKey,
		"LOG_BACKEND":  &config.LogBackend,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
}
