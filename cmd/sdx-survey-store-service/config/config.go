package config

import (
	"fmt"
	"os"
	"strings"
)

// C holds the loaded configuration
var C map[string]string

var required = []string{
	"PORT",
}

// Optional settings and their defaults. An empty REDIS_URL keeps data in
// memory; an empty RABBIT_URL disables answer notifications; an empty
// JWT_SECRET disables access token checks; an empty PROPERTIES_URL serves an
// empty property list.
var defaults = map[string]string{
	"REDIS_URL":             "",
	"RABBIT_URL":            "",
	"NOTIFICATION_EXCHANGE": "sdx-survey-notifications",
	"JWT_SECRET":            "",
	"PROPERTIES_URL":        "",
	"LOG_LEVEL":             "info",
}

// Load imports the environment variables that we care about into a map that
// is accessible to the rest of the service.
func Load() error {
	c, err := load(os.Getenv)
	if err != nil {
		return err
	}
	C = c
	return nil
}

func load(getenv func(string) string) (map[string]string, error) {
	// We know how many items we're going to have in the map
	// so we can pre-declare the length as a compiler hint.
	c := make(map[string]string, len(required)+len(defaults))

	for _, r := range required {
		if c[r] = strings.TrimSpace(getenv(r)); len(c[r]) == 0 {
			return nil, fmt.Errorf("must supply %s environment variable", r)
		}
	}

	for k, v := range defaults {
		if c[k] = strings.TrimSpace(getenv(k)); len(c[k]) == 0 {
			c[k] = v
		}
	}

	if url := c["RABBIT_URL"]; url != "" && !strings.HasPrefix(url, "amqp://") && !strings.HasPrefix(url, "amqps://") {
		return nil, fmt.Errorf("RABBIT_URL must contain amqp:// prefix")
	}
	if url := c["REDIS_URL"]; url != "" && !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, fmt.Errorf("REDIS_URL must contain redis:// prefix")
	}
	return c, nil
}
