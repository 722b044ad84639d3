package database

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"journeytrack/ingest/config"
)

var timeSeriesDB *TimeSeriesDB

// TimeSeriesDB is the HTTP client for the storage backend's
// line-protocol write API. It is the single long-lived backend handle,
// injected into the batching writer at construction.
type TimeSeriesDB struct {
	client   *http.Client
	writeURL string
	pingURL  string
	token    string
}

// WriteError is a non-2xx response from the backend write endpoint.
// 4xx responses are permanent: a malformed payload will never succeed
// and must not be retried.
type WriteError struct {
	StatusCode int
	Body       string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("backend write failed with status %d: %s", e.StatusCode, e.Body)
}

// Permanent reports whether retrying the same payload is pointless.
func (e *WriteError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// InitTimeSeries initializes the backend write client. Reachability is
// probed but not required: the writer retries transient failures on
// its own, so a backend that is down at startup only logs a warning.
func InitTimeSeries(cfg *config.BackendConfig) error {
	db := &TimeSeriesDB{
		client:   &http.Client{Timeout: cfg.WriteTimeout()},
		writeURL: cfg.WriteURL(),
		pingURL:  cfg.PingURL(),
		token:    cfg.Token,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout())
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		log.Printf("Time-series backend not reachable at startup: %v", err)
	} else {
		log.Println("Time-series backend connection established successfully")
	}

	timeSeriesDB = db
	return nil
}

// WriteRecords posts one batch of newline-joined line-protocol records
// to the backend write endpoint.
func (t *TimeSeriesDB) WriteRecords(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.writeURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build write request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if t.token != "" {
		req.Header.Set("Authorization", "Token "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend write request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &WriteError{StatusCode: resp.StatusCode, Body: string(body)}
}

// Ping verifies that the backend write API is reachable.
func (t *TimeSeriesDB) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.pingURL, nil)
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("backend ping returned status %d", resp.StatusCode)
	}
	return nil
}

// TimeSeriesHealthCheck verifies that the backend client is initialized
// and the backend reachable.
func TimeSeriesHealthCheck(ctx context.Context) error {
	if timeSeriesDB == nil {
		return fmt.Errorf("time-series backend client is not initialized")
	}
	return timeSeriesDB.Ping(ctx)
}

// GetTimeSeriesDB returns the backend client instance.
func GetTimeSeriesDB() *TimeSeriesDB {
	return timeSeriesDB
}

// CloseTimeSeries releases the backend client's idle connections.
func CloseTimeSeries() error {
	if timeSeriesDB != nil {
		timeSeriesDB.client.CloseIdleConnections()
		log.Println("Time-series backend connection closed")
	}
	return nil
}
