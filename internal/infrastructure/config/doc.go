// Package config handles loading and validating Lightmount Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with LIGHTMOUNT_* environment variables
//   - Validation of required fields (all problems reported at once)
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Fixture.HazardInterval)
package config
