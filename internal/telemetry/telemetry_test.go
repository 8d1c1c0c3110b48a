package telemetry

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPoint(t *testing.T) {
	at := time.Date(2026, 3, 14, 15, 9, 2, 0, time.UTC)
	bucket, point := CommandPoint("main", "moveToken", 7, at)

	assert.Equal(t, "command_activity", bucket)
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	assert.Contains(t, line, "command,")
	assert.Contains(t, line, "board=main")
	assert.Contains(t, line, "kind=moveToken")
	assert.Contains(t, line, "version=7i")
}

func TestGesturePoint(t *testing.T) {
	bucket, point := GesturePoint("secondary", "stroke", 14, time.Now())

	assert.Equal(t, "gesture_activity", bucket)
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	assert.Contains(t, line, "tool=stroke")
	assert.Contains(t, line, "points=14i")
}

func TestSessionPoint(t *testing.T) {
	bucket, point := SessionPoint("save", "matchday", 2, 5, time.Now())

	assert.Equal(t, "session_activity", bucket)
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	assert.Contains(t, line, "action=save")
	assert.Contains(t, line, "name=matchday")
	assert.Contains(t, line, "boards=2i")
	assert.Contains(t, line, "marks=5i")
}

func TestWritePoint_BackupFallback(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(zerolog.Nop(), "")
	m.BackupWriter = gzip.NewWriter(&buf)

	bucket, point := CommandPoint("main", "addArrow", 3, time.Now())
	require.NoError(t, m.WritePoint(context.Background(), bucket, point))
	require.NoError(t, m.Close(), "close drains queued backup records")

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "kind=addArrow")
}

func TestWritePoint_BackupBatches(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(zerolog.Nop(), "")
	m.BackupWriter = gzip.NewWriter(&buf)

	// one short of a batch stays queued, nothing reaches the writer yet
	for i := 0; i < backupBatchSize-1; i++ {
		bucket, point := CommandPoint("main", "moveToken", uint64(i), time.Now())
		require.NoError(t, m.WritePoint(context.Background(), bucket, point))
	}
	assert.Equal(t, backupBatchSize-1, m.backup.Len())

	// the batch-filling point flushes everything in one pass
	bucket, point := CommandPoint("main", "moveToken", backupBatchSize, time.Now())
	require.NoError(t, m.WritePoint(context.Background(), bucket, point))
	assert.Zero(t, m.backup.Len())

	require.NoError(t, m.Close())

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, backupBatchSize, bytes.Count(raw, []byte("moveToken")))
}

func TestWritePoint_NoClientNoBackup(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")

	bucket, point := CommandPoint("main", "addArrow", 3, time.Now())
	err := m.WritePoint(context.Background(), bucket, point)
	assert.Error(t, err)
}
