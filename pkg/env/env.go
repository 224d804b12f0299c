package env

import "os"

// Get returns the value of key, or fallback when the variable is unset or
// set to the empty string.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
