package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// lookupFunc resolves an environment variable. An empty value counts as unset.
type lookupFunc func(key string) (string, bool)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from the environment, applying `default` tags
// for unset variables, and validates the result.
func Load() (*Config, error) {
	return load(os.LookupEnv)
}

func load(lookup lookupFunc) (*Config, error) {
	cfg := &Config{}

	var errs []string
	populate(reflect.ValueOf(cfg).Elem(), lookup, &errs)
	if len(errs) > 0 {
		return nil, fmt.Errorf("config load:\n  - %s", strings.Join(errs, "\n  - "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// populate walks the sections of cfg. Every bad variable is reported, not
// just the first.
func populate(v reflect.Value, lookup lookupFunc, errs *[]string) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			populate(v.Field(i), lookup, errs)
			continue
		}

		key := field.Tag.Get("env")
		if key == "" {
			continue
		}

		raw, ok := resolve(field.Tag, lookup)
		if !ok {
			if field.Tag.Get("required") == "true" {
				*errs = append(*errs, fmt.Sprintf("%s is required", key))
			}
			continue
		}

		if err := assign(v.Field(i), raw); err != nil {
			*errs = append(*errs, fmt.Sprintf("%s=%q: %v", key, raw, err))
		}
	}
}

// resolve returns the first non-empty of the `env` variable, the `envAlt`
// variable and the `default` tag.
func resolve(tag reflect.StructTag, lookup lookupFunc) (string, bool) {
	for _, key := range []string{tag.Get("env"), tag.Get("envAlt")} {
		if key == "" {
			continue
		}
		if value, ok := lookup(key); ok && value != "" {
			return value, true
		}
	}

	def := tag.Get("default")
	return def, def != ""
}

// assign parses raw into the kinds Config uses: strings, ints and durations.
func assign(field reflect.Value, raw string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("not a duration")
		}
		field.SetInt(int64(d))

	case field.Kind() == reflect.String:
		field.SetString(raw)

	case field.CanInt():
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("not an integer")
		}
		field.SetInt(n)

	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}

	return nil
}

// Validate reports every range or enum violation in one error.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be between 1 and 65535", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Storage.Dir == "" {
		errs = append(errs, "STORAGE_DIR must not be empty")
	}
	if c.Storage.Bucket == "" || strings.ContainsAny(c.Storage.Bucket, `/\`) || c.Storage.Bucket == ".." {
		errs = append(errs, fmt.Sprintf("STORAGE_BUCKET (%q) must be a plain directory name", c.Storage.Bucket))
	}

	if c.Convert.MaxFileSize <= 0 {
		errs = append(errs, "CONVERT_MAX_FILE_SIZE must be positive")
	}
	if c.Convert.PreviewRows <= 0 {
		errs = append(errs, "CONVERT_PREVIEW_ROWS must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
