package sidecar

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// ServerInfo is the lock record the server writes on startup.
type ServerInfo struct {
	PID         int
	Port        int
	AccessToken string
	Timestamp   time.Time // zero when absent or unparsable

	// Raw holds every field of the lock file, including unknown ones.
	Raw map[string]any
}

// readLock parses the lock file. A missing port takes DefaultPort.
func readLock(path string) (*ServerInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode lock file: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode lock file: not an object")
	}

	info := &ServerInfo{
		PID:         intField(raw, "pid"),
		Port:        intField(raw, "port"),
		AccessToken: stringField(raw, "accessToken"),
		Timestamp:   timeField(raw, "timestamp"),
		Raw:         raw,
	}
	if info.Port <= 0 {
		info.Port = DefaultPort
	}
	return info, nil
}

// removeLock deletes the lock file, tolerating a concurrent delete.
func removeLock(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("remove lock file: %w", err)
}

func intField(raw map[string]any, key string) int {
	switch v := raw[key].(type) {
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}

// timeField accepts epoch milliseconds or an RFC 3339 string.
func timeField(raw map[string]any, key string) time.Time {
	switch v := raw[key].(type) {
	case float64:
		return time.UnixMilli(int64(v))
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.UnixMilli(ms)
		}
	}
	return time.Time{}
}
