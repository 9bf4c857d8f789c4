// Package logger provides leveled logging on top of the standard library log.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func parseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

var (
	level = InfoLevel
	std   = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

// Init configures the default logger from config values. The "text" format
// additionally records the caller's file and line.
func Init(levelName string, format string) {
	level = parseLevel(levelName)
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}
	std = log.New(os.Stderr, "", flags)
}

func output(tag, format string, args ...any) {
	_ = std.Output(3, fmt.Sprintf(tag+format, args...))
}

func Debug(format string, args ...any) {
	if level <= DebugLevel {
		output("[DEBUG] ", format, args...)
	}
}

func Info(format string, args ...any) {
	if level <= InfoLevel {
		output("[INFO] ", format, args...)
	}
}

func Warn(format string, args ...any) {
	if level <= WarnLevel {
		output("[WARN] ", format, args...)
	}
}

func Error(format string, args ...any) {
	if level <= ErrorLevel {
		output("[ERROR] ", format, args...)
	}
}

func Fatal(format string, args ...any) {
	output("[FATAL] ", format, args...)
	os.Exit(1)
}
