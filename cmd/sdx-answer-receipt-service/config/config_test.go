package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoadRequired(t *testing.T) {
	_, err := load(env(nil))
	assert.EqualError(t, err, "must supply PORT environment variable")

	_, err = load(env(map[string]string{"PORT": "8080"}))
	assert.EqualError(t, err, "must supply RABBIT_URL environment variable")
}

func TestLoadDefaults(t *testing.T) {
	c, err := load(env(map[string]string{"PORT": "8080", "RABBIT_URL": "amqp://rabbit:5672/"}))
	require.NoError(t, err)
	assert.Equal(t, "sdx-survey-notifications", c["NOTIFICATION_EXCHANGE"])
	assert.Equal(t, "sdx-answer-receipts", c["RECEIPT_QUEUE"])
	assert.Equal(t, "100", c["RECEIPT_HISTORY"])

	C = c
	assert.Equal(t, 100, Int("RECEIPT_HISTORY"))
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := load(env(map[string]string{"PORT": "8080", "RABBIT_URL": "rabbit:5672"}))
	assert.Error(t, err)

	_, err = load(env(map[string]string{"PORT": "8080", "RABBIT_URL": "amqp://rabbit", "RECEIPT_HISTORY": "0"}))
	assert.Error(t, err)

	_, err = load(env(map[string]string{"PORT": "8080", "RABBIT_URL": "amqp://rabbit", "RECEIPT_HISTORY": "lots"}))
	assert.Error(t, err)
}
