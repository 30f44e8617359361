package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SYNC_LIVE_PROVIDER", "")
	t.Setenv("SYNC_CONFIRM_TIMEOUT", "")
	t.Setenv("SYNC_POLL_INTERVAL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, LiveProviderRedis, cfg.Sync.LiveProvider)
	assert.Equal(t, 5*time.Second, cfg.Sync.ConfirmTimeout)
	assert.Equal(t, 15*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, "events", cfg.Firestore.Collection)
}

func TestLoad_FirestoreRequiresProject(t *testing.T) {
	t.Setenv("SYNC_LIVE_PROVIDER", "firestore")
	t.Setenv("FIREBASE_PROJECT_ID", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_UnknownProvider(t *testing.T) {
	t.Setenv("SYNC_LIVE_PROVIDER", "carrier-pigeon")

	_, err := Load()
	require.Error(t, err)
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	assert.Equal(t, []string{"a:9092", "b:9092"}, getEnvAsSlice("KAFKA_BROKERS", nil))

	t.Setenv("KAFKA_BROKERS", " , ")
	assert.Equal(t, []string{"x"}, getEnvAsSlice("KAFKA_BROKERS", []string{"x"}))
}

func TestGetEnvAsDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SYNC_POLL_INTERVAL", "soon")
	assert.Equal(t, time.Second, getEnvAsDuration("SYNC_POLL_INTERVAL", time.Second))
}
