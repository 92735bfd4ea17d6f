package main

import (
	"log"
	"os"

	"github.com/muliwe/go-fizzbuzz/internal/server"
)

// configFromEnv applies environment overrides on top of the server defaults
func configFromEnv(getenv func(string) string) server.Config {
	cfg := server.DefaultConfig()

	if port := getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}

	if dir := getenv("LOG_DIR"); dir != "" {
		cfg.LoggerConfig.LogDir = dir
	}
	if getenv("LOG_STDOUT") == "true" {
		cfg.LoggerConfig.Stdout = true
	}

	if getenv("METRICS") == "false" {
		cfg.MetricsConfig.Enabled = false
	}

	// Debug endpoint is on by default; DEBUG=false turns it off
	if debug := getenv("DEBUG"); debug != "" {
		cfg.EnableDebug = debug == "true"
	}

	tlsCert := getenv("TLS_CERT")
	tlsKey := getenv("TLS_KEY")
	if tlsCert != "" && tlsKey != "" {
		cfg.TLSEnabled = true
		cfg.TLSCertFile = tlsCert
		cfg.TLSKeyFile = tlsKey
	}

	return cfg
}

func main() {
	srv, err := server.New(configFromEnv(os.Getenv))
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
