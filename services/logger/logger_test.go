package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
)

func observed() (*Logger, *observer.ObservedLogs) {
	zc, logs := observer.New(zapcore.DebugLevel)
	return &Logger{zap: zap.New(zc)}, logs
}

func TestLogger_fields(t *testing.T) {
	logger, logs := observed()
	admin := user.Profile{ID: 1, Username: "admin", Role: user.RoleAdmin}
	other := user.Profile{ID: 2, Username: "teacher", Role: user.RoleTeacher}

	logger.Warn("login", errors.New("boom"), map[string]interface{}{"username": "admin"}, admin, other, 42)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "login", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "admin", ctx["username"])
	assert.Equal(t, "admin", ctx["user"])
	assert.Equal(t, "ADMIN", ctx["role"])
	assert.EqualValues(t, 42, ctx["arg4"])
}

func TestLogger_levels(t *testing.T) {
	logger, logs := observed()
	logger.Debug("d")
	logger.Info("i")
	logger.Error("e")

	var levels []zapcore.Level
	for _, e := range logs.All() {
		levels = append(levels, e.Level)
	}
	assert.Equal(t, []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.ErrorLevel}, levels)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		conf        core.Config
		wantRollbar bool
	}{
		{name: "development", conf: core.Config{Debug: true, AppName: "Mahudhurio", Env: "DEV"}},
		{name: "production", conf: core.Config{AppName: "Mahudhurio", Env: "PROD"}},
		{name: "rollbar off in tests", conf: core.Config{RollbarToken: "rb-token", TestMode: true, Env: "TEST"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(&tt.conf)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRollbar, logger.rollbar)
		})
	}
}
