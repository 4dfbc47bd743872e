package logsvc

import (
	"fmt"
	"os"

	"github.com/rollbar/rollbar-go"
	rbErrors "github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
)

// Logger writes structured records locally with zap and forwards them to Rollbar when enabled.
type Logger struct {
	zap     *zap.Logger
	rollbar bool
}

var _ core.Logger = (*Logger)(nil)

func New(conf *core.Config) (*Logger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if conf.Debug {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zl = zl.With(zap.String("app", conf.AppName), zap.String("env", conf.Env))

	enabled := conf.RollbarToken != "" && !conf.TestMode
	if enabled {
		rollbar.SetToken(conf.RollbarToken)
		rollbar.SetEnvironment(conf.Env)
		rollbar.SetCodeVersion(conf.Build)
		if host, err := os.Hostname(); err == nil {
			rollbar.SetServerHost(host)
		}
		rollbar.SetStackTracer(rbErrors.StackTracer)
	}
	rollbar.SetEnabled(enabled)
	return &Logger{zap: zl, rollbar: enabled}, nil
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// Sync flushes buffered records, including pending Rollbar items.
func (l *Logger) Sync() {
	_ = l.zap.Sync()
	if l.rollbar {
		rollbar.Wait()
	}
}

// expected fmt: msg | error, map[string]interface{}, user.Profile
func (l *Logger) fields(args []interface{}) ([]zap.Field, []interface{}) {
	var usrSet bool
	fields := make([]zap.Field, 0, len(args))
	rbArgs := make([]interface{}, 0, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case user.Profile:
			if usrSet { // only set one user
				continue
			}
			usrSet = true
			fields = append(fields, zap.String("user", v.Username), zap.String("role", string(v.Role)))
			if l.rollbar {
				rollbar.SetPerson(fmt.Sprint(v.ID), v.Username, v.Email)
			}
		case error:
			fields = append(fields, zap.Error(v))
			rbArgs = append(rbArgs, v)
		case map[string]interface{}:
			for k, val := range v {
				fields = append(fields, zap.Any(k, val))
			}
			rbArgs = append(rbArgs, v)
		default:
			fields = append(fields, zap.Any(fmt.Sprintf("arg%d", i), v))
		}
	}
	if l.rollbar && !usrSet {
		rollbar.ClearPerson()
	}
	return fields, rbArgs
}

func (l *Logger) report(level string, msg string, rbArgs []interface{}) {
	if !l.rollbar {
		return
	}
	rollbar.Log(level, append([]interface{}{msg}, rbArgs...)...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	fields, rbArgs := l.fields(args)
	l.zap.Debug(msg, fields...)
	l.report(rollbar.DEBUG, msg, rbArgs)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	fields, rbArgs := l.fields(args)
	l.zap.Info(msg, fields...)
	l.report(rollbar.INFO, msg, rbArgs)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	fields, rbArgs := l.fields(args)
	l.zap.Warn(msg, fields...)
	l.report(rollbar.WARN, msg, rbArgs)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	fields, rbArgs := l.fields(args)
	l.zap.Error(msg, fields...)
	l.report(rollbar.ERR, msg, rbArgs)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	fields, rbArgs := l.fields(args)
	l.report(rollbar.CRIT, msg, rbArgs)
	l.Sync()
	l.zap.Fatal(msg, fields...)
}
