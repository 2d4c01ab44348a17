package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vidkeeper/internal/flagx"
	"github.com/dmitrijs2005/vidkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
// Pointers distinguish absent keys from zero values.
type JsonConfig struct {
	EndpointAddrHTTP        string          `json:"endpoint_addr_http"`
	DatabaseDSN             string          `json:"database_dsn"`
	SecretKey               string          `json:"secret_key"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	RequestTimeout          *timex.Duration `json:"request_timeout"`
	CookieSecure            *bool           `json:"cookie_secure"`
	LogBackend              string          `json:"log_backend"`
	S3RootUser              string          `json:"s3_root_user"`
	S3RootPassword          string          `json:"s3_root_password"`
	S3Bucket                string          `json:"s3_bucket"`
	S3Region                string          `json:"s3_region"`
	S3BaseEndpoint          string          `json:"s3_base_endpoint"`
}

// parseJson overlays values from the file named by -c/-config. Keys missing
// from the file keep their current value. An unreadable or invalid file
// panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
