package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port the serve mode listens on.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Gemini holds the language model provider configuration.
	Gemini GeminiConfig `mapstructure:",squash"`

	// Tracking holds the carrier site and browser settings.
	Tracking TrackingConfig `mapstructure:",squash"`

	// History holds the tracking history persistence settings.
	History HistoryConfig `mapstructure:",squash"`

	// RouteMap holds the geocoding and map artifact settings.
	RouteMap RouteMapConfig `mapstructure:",squash"`

	// Proxy holds the optional outbound proxy for browser traffic.
	Proxy ProxyConfig `mapstructure:",squash"`
}

// ProxyConfig holds the optional proxy the browser session routes through.
type ProxyConfig struct {
	// Enabled turns proxying on.
	Enabled bool `mapstructure:"PROXY_ENABLED" default:"false"`
	// Hostname is the proxy host.
	Hostname string `mapstructure:"PROXY_HOSTNAME"`
	// Port is the proxy port.
	Port int `mapstructure:"PROXY_PORT"`
	// Username authenticates against the proxy, if required.
	Username string `mapstructure:"PROXY_USERNAME"`
	// Password authenticates against the proxy, if required.
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// GeminiConfig holds the credentials and model for the extraction agent.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API.
	APIKey string `mapstructure:"GEMINI_API_KEY" required:"true"`
	// Model is the Gemini model used for field extraction.
	Model string `mapstructure:"GEMINI_MODEL" default:"gemini-2.0-flash"`
}

// TrackingConfig holds the carrier entry point and browser behavior.
type TrackingConfig struct {
	// URL is the public tracking site the agent starts from.
	URL string `mapstructure:"TRACKING_URL" default:"http://www.seacargotracking.net/"`
	// BrowserTimeoutSeconds bounds one full browser run, launch to extraction.
	BrowserTimeoutSeconds int `mapstructure:"BROWSER_TIMEOUT_SECONDS" default:"120"`
}

// HistoryConfig selects and configures the tracking history backend.
type HistoryConfig struct {
	// Backend is "file" or "redis".
	Backend string `mapstructure:"HISTORY_BACKEND" default:"file"`
	// Path is the JSON history document location for the file backend.
	Path string `mapstructure:"HISTORY_PATH" default:"tracking_results/history.json"`
	// RedisURL is the connection URL for the redis backend.
	RedisURL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379"`
	// TTLSeconds expires redis entries; 0 keeps them forever. File entries never expire.
	TTLSeconds int `mapstructure:"HISTORY_TTL_SECONDS" default:"0"`
}

// RouteMapConfig holds the settings for the optional route map artifact.
type RouteMapConfig struct {
	// NominatimURL is the geocoding service base URL.
	NominatimURL string `mapstructure:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org"`
	// ResultsDir is where rendered map files are written.
	ResultsDir string `mapstructure:"RESULTS_DIR" default:"tracking_results"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
