package config

import (
	"time"
)

// Config represents the embedded station's bootstrap configuration: enough
// to construct one core.Core and dial one CSMS. Everything the core itself
// manages at runtime (variables, profiles, transactions) lives under
// internal/variables instead, per spec.md §4.1 — this Config only covers
// what must be known before the Variable Store can even be loaded.
//
// Narrowed from the teacher's internal/config.Config (multi-station,
// MongoDB-backed, JWT-authenticated control API) to the single embedded
// station this core drives: no MongoDB, no Auth/API surface, one CSMS
// connection instead of a pool.
type Config struct {
	Station StationConfig `yaml:"station"`
	CSMS    CSMSConfig    `yaml:"csms"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// StationConfig identifies this station and the connectors it exposes.
type StationConfig struct {
	ID           string `yaml:"id" env:"STATION_ID" env-required:"true"`
	Protocol     string `yaml:"protocol" env:"STATION_PROTOCOL" env-default:"1.6"` // "1.6" or "2.0.1"
	ConnectorIDs []int  `yaml:"connector_ids" env-default:"1"`
}

// CSMSConfig holds the single upstream Central System connection this
// station dials, narrowed from the teacher's CSMSConfig (which configured a
// default URL for many simulated stations) down to one persistent
// connection.
type CSMSConfig struct {
	URL                  string        `yaml:"url" env:"CSMS_URL" env-required:"true"`
	ConnectionTimeout    time.Duration `yaml:"connection_timeout" env-default:"30s"`
	ReadTimeout          time.Duration `yaml:"read_timeout" env-default:"60s"`
	WriteTimeout         time.Duration `yaml:"write_timeout" env-default:"10s"`
	PingInterval         time.Duration `yaml:"ping_interval" env-default:"30s"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts" env-default:"5"`
	ReconnectBackoff     time.Duration `yaml:"reconnect_backoff" env-default:"5s"`
	ReconnectMaxBackoff  time.Duration `yaml:"reconnect_max_backoff" env-default:"60s"`

	BasicAuthUsername string `yaml:"basic_auth_username" env:"CSMS_BASIC_AUTH_USERNAME"`
	BasicAuthPassword string `yaml:"basic_auth_password" env:"CSMS_BASIC_AUTH_PASSWORD"`
	BearerToken       string `yaml:"bearer_token" env:"CSMS_BEARER_TOKEN"`

	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS settings for the CSMS connection.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled"`
	CACert             string `yaml:"ca_cert"`
	ClientCert         string `yaml:"client_cert"`
	ClientKey          string `yaml:"client_key"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// StorageConfig locates the flat filesystem namespace the Filesystem
// Adapter (C2) persists every component's state under, per spec.md §6.
type StorageConfig struct {
	Path            string `yaml:"path" env:"STORAGE_PATH" env-default:"./data"`
	BootCounterFile string `yaml:"boot_counter_file" env-default:"boot.jsn"`
}

// LoggingConfig configures the station's structured logger, mirroring the
// teacher's internal/config.LoggingConfig.
type LoggingConfig struct {
	Level  string `yaml:"level" env-default:"info"`  // debug, info, warn, error
	Format string `yaml:"format" env-default:"json"` // json or text
}
