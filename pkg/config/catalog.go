package config

import (
	"fmt"
	"strings"
	"time"
)

// CatalogConfig holds the settings for the remote product catalog client.
type CatalogConfig struct {
	URL     string               `koanf:"url"`
	Timeout time.Duration        `koanf:"timeout"`
	Breaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

// CircuitBreakerConfig tunes the breaker around outbound catalog calls.
type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	ErrorRatePercent    int           `koanf:"errorratepercent"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
}

// String returns a string representation of the catalog client configuration.
func (c *CatalogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.URL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  circuitbreaker.consecutivefailures: %d\n", c.Breaker.ConsecutiveFailures))
	b.WriteString(fmt.Sprintf("  circuitbreaker.errorratepercent: %d\n", c.Breaker.ErrorRatePercent))
	b.WriteString(fmt.Sprintf("  circuitbreaker.opentimeout: %v\n", c.Breaker.OpenTimeout))
	return b.String()
}

func (c *CatalogConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("catalog URL is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("catalog timeout is not configured")
	}
	if c.Breaker.ConsecutiveFailures == 0 {
		return fmt.Errorf("circuitbreaker.consecutivefailures must be greater than 0")
	}
	if c.Breaker.ErrorRatePercent < 0 || c.Breaker.ErrorRatePercent > 100 {
		return fmt.Errorf("circuitbreaker.errorratepercent must be between 0 and 100")
	}
	if c.Breaker.OpenTimeout <= 0 {
		return fmt.Errorf("circuitbreaker.opentimeout must be greater than 0")
	}
	return nil
}
