package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesOneEntryPerLine(t *testing.T) {
	var buf bytes.Buffer
	lgr := NewWithWriter("dashboard", &buf)

	lgr.Info("service_started", "started", "", map[string]interface{}{"port": 3001})
	lgr.Warn("subscription_failed", "orders feed failed", "req-1", nil, errors.New("permission denied"))

	var entries []LogEntry
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var e LogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)

	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "dashboard", entries[0].Service)
	assert.Equal(t, "service_started", entries[0].Action)
	assert.EqualValues(t, 3001, entries[0].Details["port"])
	assert.Nil(t, entries[0].Error)

	assert.Equal(t, "WARN", entries[1].Level)
	assert.Equal(t, "req-1", entries[1].RequestID)
	require.NotNil(t, entries[1].Error)
	assert.Equal(t, "permission denied", entries[1].Error.Msg)
}
