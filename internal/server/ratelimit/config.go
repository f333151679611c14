package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Route is the limit for one method and path pattern.
type Route struct {
	Pattern string        // Path pattern; "{}" matches one segment
	Method  string        // HTTP method
	Limit   int           // Requests per window; 0 means unlimited
	Window  time.Duration // Window length
	Burst   int           // Bucket capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(getEnvString("RATE_LIMIT_WHITELIST", "")),
		Blacklist:       parseIPList(getEnvString("RATE_LIMIT_BLACKLIST", "")),
		Routes:          DefaultRoutes(getEnvInt("RATE_LIMIT_TRANSITIONS_PER_MINUTE", 120)),
	}
}

// DefaultRoutes limits the routes that send stage changes to the candidate service.
// Bulk moves fan out to one request per selected candidate and get a tighter budget.
func DefaultRoutes(transitionsPerMinute int) []Route {
	bulk := max(transitionsPerMinute/10, 1)
	return []Route{
		{Pattern: "/candidates/{}/transition", Method: "POST", Limit: transitionsPerMinute, Window: time.Minute, Burst: 20},
		{Pattern: "/candidates/{}/transition/stream", Method: "POST", Limit: transitionsPerMinute, Window: time.Minute, Burst: 20},
		{Pattern: "/drag/drop", Method: "POST", Limit: transitionsPerMinute, Window: time.Minute, Burst: 20},
		{Pattern: "/selection/move", Method: "POST", Limit: bulk, Window: time.Minute, Burst: 2},
		{Pattern: "/board/reload", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
	}
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
