package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[31m"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var severity = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
}

var (
	GlobalLogLevel           = LogLevelInfo
	Output         io.Writer = os.Stdout
)

// ParseLevel maps a config string onto a level, falling back to info.
func ParseLevel(s string) LogLevel {
	l := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := severity[l]; ok {
		return l
	}
	return LogLevelInfo
}

type Log struct {
	level     LogLevel
	component string
	err       error
	out       io.Writer
}

func New() *Log {
	return &Log{
		level: GlobalLogLevel,
		out:   Output,
	}
}

// Named returns a logger that prefixes every line with component.
func Named(component string) *Log {
	l := New()
	l.component = component
	return l
}

func (l *Log) SetLevel(level LogLevel) {
	l.level = level
}

func (l *Log) SetOutput(w io.Writer) {
	l.out = w
}

func (l *Log) WithError(err error) *Log {
	return &Log{level: l.level, component: l.component, err: err, out: l.out}
}

func (l *Log) enabled(level LogLevel) bool {
	return severity[level] >= severity[l.level]
}

func (l *Log) timestamp() string {
	return time.Now().Format("15:04:05")
}

func (l *Log) write(color, icon, msg string) {
	if l.component != "" {
		msg = fmt.Sprintf("[%s] %s", l.component, msg)
	}
	if l.err != nil {
		fmt.Fprintf(l.out, "%s[%s]%s %s %s: %v%s\n", color, l.timestamp(), ColorReset, icon, msg, l.err, ColorReset)
		return
	}
	fmt.Fprintf(l.out, "%s[%s]%s %s %s%s\n", color, l.timestamp(), ColorReset, icon, msg, ColorReset)
}

func (l *Log) Debug(msg string) {
	if !l.enabled(LogLevelDebug) {
		return
	}
	l.write(ColorCyan, "🔍", msg)
}

func (l *Log) Info(msg string) {
	if !l.enabled(LogLevelInfo) {
		return
	}
	l.write(ColorBlue, "ℹ️ ", msg)
}

// Reward logs a progression event for a user.
func (l *Log) Reward(username, msg string) {
	if !l.enabled(LogLevelInfo) {
		return
	}
	l.write(ColorGreen, "🏆", fmt.Sprintf("%s[%s]%s %s", ColorBold, username, ColorReset, msg))
}

func (l *Log) Warn(msg string) {
	if !l.enabled(LogLevelWarn) {
		return
	}
	l.write(ColorYellow, "⚠️ ", msg)
}

func (l *Log) Error(msg string) {
	l.write(ColorRed, "❌", msg)
}
