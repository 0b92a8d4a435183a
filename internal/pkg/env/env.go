// Package env provides small helpers for reading process configuration from
// environment variables.
package env

import "os"

// Get returns the environment variable's value, or fallback when the
// variable is unset or empty.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
