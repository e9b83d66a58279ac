package influxdb

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/lightmount-core/internal/fixture"
	"github.com/nerrad567/lightmount-core/internal/infrastructure/config"
)

// testConfig matches the local development InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "lightmount-dev-token",
		Org:           "lightmount",
		Bucket:        "lightmount",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func connectOrSkip(t *testing.T) *Client {
	t.Helper()
	client, err := Connect(testConfig(), "test-site")
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // test cleanup
	return client
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	if _, err := Connect(cfg, "s"); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:1"

	if _, err := Connect(cfg, "s"); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClose_Nil(t *testing.T) {
	if err := (&Client{}).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	if err := (&Client{}).HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestIntegration_ObserveAndFlush(t *testing.T) {
	client := connectOrSkip(t)

	var failed atomic.Bool
	client.SetOnError(func(error) { failed.Store(true) })

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}

	client.Observe(fixture.Record{
		Seq:       1,
		FixtureID: "fix-integration",
		Kind:      fixture.RecordTransition,
		Old:       fixture.StateOn,
		New:       fixture.StateOff,
		Power:     fixture.PowerNominal,
		At:        time.Now(),
	})
	client.Flush()

	if failed.Load() {
		t.Error("async write failed")
	}
}
