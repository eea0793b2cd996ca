package config

import (
	"fmt"
	"strings"
)

// StoreConfig holds tunables for the in-memory state store.
type StoreConfig struct {
	// MaxOrders caps the order history; zero selects the store default.
	MaxOrders int `koanf:"maxorders"`
}

// String returns a string representation of the store configuration.
func (c *StoreConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Store ---\n")
	b.WriteString(fmt.Sprintf("  maxorders: %d\n", c.MaxOrders))
	return b.String()
}

func (c *StoreConfig) Validate() error {
	if c.MaxOrders < 0 {
		return fmt.Errorf("store maxorders must not be negative")
	}
	return nil
}
