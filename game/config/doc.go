// Package config provides runtime configuration for the court queue server.
//
// The config package handles:
//   - Loading an optional .env file
//   - Parsing environment variables into a typed Config
//   - Validating store drivers, ports, log settings and the reset schedule
//
// Configuration Sources:
//
// Values are resolved in this order, later sources winning:
//  1. Defaults declared on the struct tags
//  2. A .env file in the working directory (if present)
//  3. Process environment variables
//  4. Command line flags, applied by the caller after Load
//
// Store Drivers:
//
// STORE_DRIVER selects where sessions live:
//   - memory: process lifetime only, useful for demos and tests
//   - file: a single JSON document (DATA_FILE), compatible with data.json
//   - redis: one key per area under REDIS_PREFIX on REDIS_ADDR
//   - sqlite: a sessions table in SQLITE_PATH
//
// Usage:
//
//	cfg, err := config.Load(".env")
//	if err != nil {
//		log.Fatal(err)
//	}
//	cfg.Port = 9090 // flag override
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
package config
