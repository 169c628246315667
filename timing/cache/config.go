package cache

import (
	"encoding/json"
	"fmt"
	"os"
)

// HierarchyConfig describes the cache hierarchy of one core.
type HierarchyConfig struct {
	L1I Config `json:"l1i"`
	L1D Config `json:"l1d"`
}

// DefaultHierarchyConfig returns the default hierarchy configuration.
func DefaultHierarchyConfig() HierarchyConfig {
	return HierarchyConfig{
		L1I: DefaultL1IConfig(),
		L1D: DefaultL1DConfig(),
	}
}

// LoadHierarchyConfig reads a hierarchy configuration from a JSON
// file. Fields absent from the file keep their default values.
func LoadHierarchyConfig(path string) (HierarchyConfig, error) {
	config := DefaultHierarchyConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read cache config: %w", err)
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse cache config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// Validate checks that both cache configurations are usable.
func (c HierarchyConfig) Validate() error {
	if err := c.L1I.Validate(); err != nil {
		return fmt.Errorf("l1i: %w", err)
	}
	if err := c.L1D.Validate(); err != nil {
		return fmt.Errorf("l1d: %w", err)
	}
	return nil
}

// Validate checks that the configuration describes a well-formed
// cache.
func (c Config) Validate() error {
	if c.Size <= 0 || c.Associativity <= 0 || c.BlockSize <= 0 {
		return fmt.Errorf("size, associativity, and block size must be positive")
	}
	if c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block size %d is not a power of two", c.BlockSize)
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf(
			"size %d is not a multiple of associativity %d x block size %d",
			c.Size, c.Associativity, c.BlockSize)
	}
	return nil
}
