package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// C holds the loaded configuration
var C map[string]string

var required = []string{
	"PORT",
	"RABBIT_URL",
}

var defaults = map[string]string{
	"NOTIFICATION_EXCHANGE": "sdx-survey-notifications",
	"RECEIPT_QUEUE":         "sdx-answer-receipts",
	"RECEIPT_HISTORY":       "100",
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

	if !strings.HasPrefix(c["RABBIT_URL"], "amqp://") && !strings.HasPrefix(c["RABBIT_URL"], "amqps://") {
		return nil, fmt.Errorf("RABBIT_URL must contain amqp:// prefix")
	}
	if n, err := strconv.Atoi(c["RECEIPT_HISTORY"]); err != nil || n < 1 {
		return nil, fmt.Errorf("RECEIPT_HISTORY must be a positive number, got %q", c["RECEIPT_HISTORY"])
	}
	return c, nil
}

// Int returns the named setting as a number. Settings read with Int are
// checked by Load.
func Int(key string) int {
	n, _ := strconv.Atoi(C[key])
	return n
}
