package core

// Logger is the logging facade used across the app.
// args may contain errors, map[string]interface{} fields and the user.Profile the entry relates to.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
