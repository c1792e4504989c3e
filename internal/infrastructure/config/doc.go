// Package config handles configuration loading for the Lost & Found registry.
//
// Configuration is loaded in three layers, later layers overriding earlier ones:
//
//  1. Hardcoded defaults
//  2. YAML file values
//  3. Environment variables (LOSTFOUND_SECTION_KEY)
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Security
//
// The JWT signing secret is required and must be at least 32 characters.
// In production it should come from the LOSTFOUND_JWT_SECRET environment
// variable rather than the config file.
package config
