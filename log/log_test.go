package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	logcontext "github.com/va6996/querytools/context"
)

func TestInit(t *testing.T) {
	defer Logger.SetLevel(logrus.InfoLevel)

	assert.NoError(t, Init("debug"))
	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())

	assert.NoError(t, Init(""))
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())

	assert.Error(t, Init("chatty"))
}

func TestFormatter(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(logrus.StandardLogger().Out)
	assert.NoError(t, Init("info"))

	ctx := logcontext.WithInvocationID(context.Background(), "inv-1")
	WithFields(ctx, logrus.Fields{"tool": "query_sql_db", "b": 2}).Info("done")

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "[log_test.go:")
	assert.Contains(t, out, "done [inv:inv-1] b=2 tool=query_sql_db")
}

func TestFormatterWithoutInvocation(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(logrus.StandardLogger().Out)
	assert.NoError(t, Init("info"))

	Infof(context.Background(), "hello %s", "world")
	assert.Contains(t, buf.String(), "hello world\n")
	assert.NotContains(t, buf.String(), "[inv:")
}

func TestEntryForOmitsEmptyInvocation(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(logrus.StandardLogger().Out)
	formatter := Logger.Formatter
	Logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	defer Logger.SetFormatter(formatter)

	Infof(context.Background(), "plain")
	assert.NotContains(t, buf.String(), invocationField)

	buf.Reset()
	Infof(logcontext.WithInvocationID(context.Background(), "inv-2"), "tagged")
	assert.Contains(t, buf.String(), invocationField+"=inv-2")
}
