package config

import "fmt"

func NonEmpty(value, envName string) error {
	if value == "" {
		return fmt.Errorf("missing required env %s", envName)
	}
	return nil
}

// Validate checks the settings every command depends on.
func (c Config) Validate() error {
	if err := NonEmpty(c.APIURL, "VEND_API_URL"); err != nil {
		return err
	}
	if c.StoreDriver != "memory" && c.StoreDriver != "redis" {
		if err := NonEmpty(c.StoreDSN, "VEND_STORE_DSN"); err != nil {
			return err
		}
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("VEND_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}
