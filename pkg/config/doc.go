// Package config loads environment-tagged structs with
// github.com/caarlos0/env, reading a .env file first through
// github.com/joho/godotenv.
//
// Load parses each struct type once per process and returns the cached value
// afterwards, which suits configuration read from several places at
// startup. LoadFile reads explicit env files and parses without caching;
// variables already set in the process take precedence over the files.
//
//	var cfg cookie.Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
package config
