package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/auth"
	"github.com/trezcool/schoolhub/core/visitor"
)

type level struct {
	name   string
	report func(...interface{})
}

var (
	lvlDebug = level{name: "DEBUG", report: rollbar.Debug}
	lvlInfo  = level{name: "INFO", report: rollbar.Info}
	lvlWarn  = level{name: "WARN", report: rollbar.Warning}
	lvlError = level{name: "ERROR", report: rollbar.Error}
	lvlFatal = level{name: "FATAL", report: rollbar.Critical}
)

// RollbarLogger prints to std and reports to Rollbar when enabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for the queued items to be sent.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

// person picks who the item is about: the first logged in user, else the first visitor.
func person(args []interface{}) (id, name, email string, ok bool) {
	var visitorID string
	for _, arg := range args {
		switch v := arg.(type) {
		case auth.User:
			if v.ID != "" {
				return v.ID, v.Name, v.Email, true
			}
		case visitor.Visitor:
			if visitorID == "" {
				visitorID = v.ID
			}
		}
	}
	if visitorID != "" {
		return "visitor:" + visitorID, "", "", true
	}
	return "", "", "", false
}

// expected fmt: msg | error, map[string]interface{}, auth.User, visitor.Visitor
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	if id, name, email, ok := person(args); ok {
		rollbar.SetPerson(id, name, email)
	} else {
		rollbar.ClearPerson()
	}

	items := make([]interface{}, 0, len(args)+1)
	items = append(items, msg)
	for _, arg := range args {
		switch arg.(type) {
		case auth.User, visitor.Visitor:
		default:
			items = append(items, arg)
		}
	}
	return items
}

func (l RollbarLogger) log(lvl level, msg string, args []interface{}) {
	lvl.report(l.prepare(msg, args)...)
	l.std.Printf("[%s] %s", lvl.name, msg)
	for _, arg := range args {
		switch arg.(type) {
		case error, map[string]interface{}:
			l.std.Printf("%+v", arg)
		}
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(lvlDebug, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(lvlInfo, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(lvlWarn, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(lvlError, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(lvlFatal, msg, args)
	l.Close()
	l.std.Fatal(msg)
}
