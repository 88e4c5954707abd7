// Package env holds tiny helpers for reading process environment values
// that sit outside the envconfig-managed configuration.
package env

import "os"

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
