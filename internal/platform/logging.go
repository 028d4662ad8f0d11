package platform

import (
	"log"

	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used for fallback logging when no
// adapter is installed.
func SetLogger(l zerolog.Logger) { zlog = &l }

func fallbackLog(level LogLevel, tag, msg string) {
	if zlog == nil {
		log.Printf("[%s] %s", tag, msg)
		return
	}
	var ev *zerolog.Event
	switch level {
	case LevelDebug:
		ev = zlog.Debug()
	case LevelWarn:
		ev = zlog.Warn()
	case LevelError:
		ev = zlog.Error()
	default:
		ev = zlog.Info()
	}
	ev.Str("tag", tag).Msg(msg)
}
