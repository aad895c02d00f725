// Package logging configures the global gommon logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var levels = map[string]log.Lvl{
	"DEBUG": log.DEBUG,
	"INFO":  log.INFO,
	"WARN":  log.WARN,
	"ERROR": log.ERROR,
	"OFF":   log.OFF,
}

// ParseLevel maps a level name to its gommon level, INFO when unknown.
func ParseLevel(name string) log.Lvl {
	if lvl, ok := levels[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return lvl
	}
	return log.INFO
}

// Setup sets the global level and, when file is not empty, tees the output
// into a rotating log file. The returned writer is meant for access logs.
func Setup(level, file string) (io.Writer, io.Closer) {
	log.SetLevel(ParseLevel(level))
	log.SetHeader("${time_rfc3339} ${level} ${short_file}:${line}")

	if file == "" {
		log.SetOutput(os.Stdout)
		return os.Stdout, nopCloser{}
	}

	rotating := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}

	out := io.MultiWriter(os.Stdout, rotating)
	log.SetOutput(out)
	return out, rotating
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
