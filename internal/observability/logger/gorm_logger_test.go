package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestStatementKind(t *testing.T) {
	cases := map[string]string{
		`SELECT * FROM "data_sources"`:                      "select",
		`WITH x AS (VALUES (1)) DELETE FROM ledger_entries`: "delete",
		`  insert into ad_spend_entries (id) values (1)`:    "insert",
		`PRAGMA foreign_keys = ON`:                          "other",
	}
	for sql, want := range cases {
		assert.Equal(t, want, statementKind(sql), sql)
	}
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn, 100*time.Millisecond)
	ctx := WithRequestID(context.Background(), "req-1")
	stmt := func() (string, int64) { return "UPDATE data_sources SET status = 'x'", 1 }

	l.Trace(ctx, time.Now(), stmt, nil)
	require.Equal(t, 0, logs.Len())

	l.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "update", entry.ContextMap()["statement"])
	assert.Equal(t, "req-1", entry.ContextMap()["request_id"])

	l.Trace(ctx, time.Now(), stmt, gormlogger.ErrRecordNotFound)
	require.Equal(t, 1, logs.Len())

	l.Trace(ctx, time.Now(), stmt, errors.New("boom"))
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zap.ErrorLevel, logs.All()[1].Level)

	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), stmt, errors.New("boom"))
	assert.Equal(t, 2, logs.Len())
}
