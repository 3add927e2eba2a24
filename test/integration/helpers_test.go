//go:build integration

package integration_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todolist/internal/config"
	"github.com/vyrodovalexey/todolist/internal/server"
	"github.com/vyrodovalexey/todolist/internal/service"
	"github.com/vyrodovalexey/todolist/internal/store"
)

// Environment variable names for integration test configuration.
const (
	EnvServerURL = "INTEGRATION_SERVER_URL"
	EnvRedisAddr = "INTEGRATION_REDIS_ADDR"
)

// Default configuration values.
const (
	DefaultServerURL = "http://localhost:8080"
	DefaultRedisAddr = "localhost:6379"
	DefaultTimeout   = 10 * time.Second
)

// getEnvOrDefault returns the value of the environment variable
// identified by key, or defaultVal if the variable is not set.
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// skipIfServiceUnavailable checks whether the service at the given
// URL is reachable and skips the test if it is not.
func skipIfServiceUnavailable(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		t.Skipf("Service unavailable at %s: %v", url, err)
	}
	resp.Body.Close()
}

// createHTTPClient returns a plain HTTP client with the default timeout.
func createHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// newRedisStore connects to the integration Redis and namespaces the test
// under a fresh key prefix that is removed on cleanup.
func newRedisStore(t *testing.T) *store.RedisStore {
	t.Helper()

	addr := getEnvOrDefault(EnvRedisAddr, DefaultRedisAddr)
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis unavailable at %s: %v", addr, err)
	}

	prefix := "todos-it-" + uuid.NewString()
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			_ = client.Del(ctx, keys...).Err()
		}
		_ = client.Close()
	})

	return store.NewRedisStore(client, prefix)
}

// newStackServer serves the full HTTP stack over s and returns its URL.
func newStackServer(t *testing.T, s store.Store) string {
	t.Helper()

	cfg := &config.Config{
		ServerPort:      8080,
		LogLevel:        "error",
		ShutdownTimeout: 5 * time.Second,
		MetricsEnabled:  true,
		StoreBackend:    config.BackendMemory,
		DefaultPerPage:  config.DefaultPerPage,
		StrictText:      true,
	}
	svc := service.New(s, zap.NewNop(), service.Options{StrictText: true})
	ts := httptest.NewServer(server.New(cfg, zap.NewNop(), svc).Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

// healthResponse represents the health endpoint response.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// readyResponse represents the ready endpoint response.
type readyResponse struct {
	Status string `json:"status"`
}

// itemResponse represents an item in API responses.
type itemResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// listResponse represents a page of items.
type listResponse struct {
	Items []itemResponse `json:"items"`
	Total int64          `json:"total"`
}

// doRequest is a convenience wrapper that performs an HTTP request and
// returns the status code and body bytes.
func doRequest(
	t *testing.T,
	client *http.Client,
	method, url string,
	body io.Reader,
	headers map[string]string,
) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	return resp.StatusCode, respBody
}
