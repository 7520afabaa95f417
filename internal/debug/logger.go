package debug

import (
	"log"
	"os"
)

// Logger is a gated debug logger. When enabled it redirects the standard
// logger to an append-only file so debug output never interleaves with the
// rendered dialogue.
type Logger struct {
	enabled bool
}

func NewLogger(enabled bool, path string) *Logger {
	if enabled {
		if path == "" {
			path = "debug.log"
		}
		logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			log.SetOutput(logFile)
		}
		log.Printf("=== DEBUG MODE ENABLED ===")
	}

	return &Logger{enabled: enabled}
}

func (d *Logger) Printf(format string, args ...interface{}) {
	if d.enabled {
		log.Printf(format, args...)
	}
}

func (d *Logger) Println(args ...interface{}) {
	if d.enabled {
		log.Println(args...)
	}
}
