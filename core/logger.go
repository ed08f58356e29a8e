package core

// Logger is any service able to log & report messages.
// expected args: error, map[string]interface{}, or any value to be printed along the message.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
