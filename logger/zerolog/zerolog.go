// Package zerolog adapts a zerolog.Logger to the fulfillment.Logger interface.
package zerolog

import (
	"fmt"

	"github.com/rs/zerolog"

	fulfillment "github.com/goliatone/go-fulfillment"
)

// Logger implements fulfillment.Logger using zerolog.
type Logger struct {
	logger zerolog.Logger
}

var _ fulfillment.Logger = (*Logger)(nil)

// NewLogger creates a new zerolog logger adapter.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(l.logger.Debug(), msg, args)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(l.logger.Info(), msg, args)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(l.logger.Error(), msg, args)
}

// log treats args as alternating key/value pairs; a trailing odd value is
// attached under "extra".
func (l *Logger) log(event *zerolog.Event, msg string, args []any) {
	if event == nil {
		return
	}
	n := len(args)
	for i := 0; i+1 < n; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		event = event.Interface(key, args[i+1])
	}
	if n%2 == 1 {
		event = event.Interface("extra", args[n-1])
	}
	event.Msg(msg)
}
