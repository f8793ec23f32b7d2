package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/coverage/internal/coverage"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if cfg.Keywords.File != "" {
		kws, err := readKeywordFile(cfg.Keywords.File)
		if err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
		cfg.Keywords.List = kws
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"
		keepEmpty := field.Tag.Get("keepEmpty") == "true"

		if envName == "" {
			continue
		}

		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value, keepEmpty); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
// keepEmpty preserves blank entries in comma-separated slices.
func setField(field reflect.Value, value string, keepEmpty bool) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" || keepEmpty {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// keywordFile is the YAML layout of KEYWORDS_FILE.
type keywordFile struct {
	Keywords []string `yaml:"keywords"`
}

// readKeywordFile reads the ordered keyword list from a YAML file.
// Empty entries keep their slot so that positions stay stable.
func readKeywordFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}

	var kf keywordFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse keywords file %s: %w", path, err)
	}

	out := make([]string, len(kf.Keywords))
	for i, kw := range kf.Keywords {
		out[i] = strings.TrimSpace(kw)
	}
	return out, nil
}

// KeywordSet returns the configured keyword slots.
func (c *Config) KeywordSet() coverage.KeywordSet {
	return coverage.NewKeywordSet(c.Keywords.List...)
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Enabled() {
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if strings.TrimSpace(c.Workbook.Sheet) == "" {
		errs = append(errs, "WORKBOOK_SHEET must not be empty")
	}
	if c.Workbook.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if c.Workbook.MaxConcurrent <= 0 {
		errs = append(errs, "UPLOAD_MAX_CONCURRENT must be positive")
	}
	if c.Workbook.MaxWaitTime <= 0 {
		errs = append(errs, "UPLOAD_MAX_WAIT_TIME must be positive")
	}

	if len(c.Keywords.List) > coverage.MaxKeywordSlots {
		errs = append(errs, fmt.Sprintf("KEYWORDS has %d entries; at most %d are supported",
			len(c.Keywords.List), coverage.MaxKeywordSlots))
	}

	if c.Maintenance.WorkbookTTL < 0 {
		errs = append(errs, "WORKBOOK_TTL must be non-negative")
	}
	if c.Maintenance.SnapshotRetention < 0 {
		errs = append(errs, "SNAPSHOT_RETENTION must be non-negative")
	}
	if c.Maintenance.Interval <= 0 {
		errs = append(errs, "MAINTENANCE_INTERVAL must be positive")
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The database URL and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Database: {Enabled: %v, URL: [MASKED]}, ", c.Database.Enabled())
	fmt.Fprintf(&b, "Workbook: {Path: %q, Sheet: %q, MaxConcurrent: %d}, ",
		c.Workbook.Path, c.Workbook.Sheet, c.Workbook.MaxConcurrent)
	fmt.Fprintf(&b, "Keywords: %q, ", c.Keywords.List)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: %d}, ", c.Security.RequireAPIKey, len(c.Security.APIKeys))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
