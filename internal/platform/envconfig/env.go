package envconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Get returns the value of the requested environment variable or the supplied fallback when empty.
func Get(name string, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}

// GetInt parses the requested environment variable as an integer, using fallback when empty.
func GetInt(name string, fallback int) (int, error) {
	raw := Get(name, "")
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", name, err)
	}
	return value, nil
}

// GetFloat parses the requested environment variable as a float, using fallback when empty.
func GetFloat(name string, fallback float64) (float64, error) {
	raw := Get(name, "")
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", name, err)
	}
	return value, nil
}

// GetDuration parses the requested environment variable with time.ParseDuration.
func GetDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := Get(name, "")
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", name, err)
	}
	return value, nil
}

// Validate validates a struct using validator tags.
func Validate(v any) error {
	return validate.Struct(v)
}
