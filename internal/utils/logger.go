package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
	levelError level = "ERROR"
)

// Logger writes leveled lines to stderr, or to a file while the TUI runs.
// Debug lines are dropped unless verbose is on.
type Logger struct {
	mu      sync.RWMutex
	verbose bool
	out     io.Writer
}

var (
	loggerInstance *Logger
	once           sync.Once
)

// GetLogger returns the process logger.
func GetLogger() *Logger {
	once.Do(func() {
		loggerInstance = &Logger{out: os.Stderr}
	})
	return loggerInstance
}

// SetVerboseMode toggles debug output on the process logger.
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	l.verbose = verbose
	l.mu.Unlock()
}

func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// SetOutput redirects log output. A nil writer restores stderr.
func (l *Logger) SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

// log writes one line. A message without args is written as is.
func (l *Logger) log(lv level, msg string, args []any) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	l.mu.RLock()
	out, verbose := l.out, l.verbose
	l.mu.RUnlock()

	if lv == levelDebug {
		if !verbose {
			return
		}
		_, _ = fmt.Fprintf(out, "%s [%s] %s\n", time.Now().Format("15:04:05"), lv, msg)
		return
	}
	_, _ = fmt.Fprintf(out, "[%s] %s\n", lv, msg)
}

func (l *Logger) Debug(msg string, args ...any) { l.log(levelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(levelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(levelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(levelError, msg, args) }

// Debugf and friends log through the process logger.
func Debugf(format string, args ...any) { GetLogger().log(levelDebug, format, args) }
func Infof(format string, args ...any)  { GetLogger().log(levelInfo, format, args) }
func Warnf(format string, args ...any)  { GetLogger().log(levelWarn, format, args) }
func Errorf(format string, args ...any) { GetLogger().log(levelError, format, args) }

// LogFile is a log destination used while the terminal is owned by the TUI.
type LogFile struct {
	file *os.File
	path string
}

// DefaultLogFilePath returns a PID-specific log path in the temp directory.
func DefaultLogFilePath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("taskdesk-%d.log", os.Getpid()))
}

// RedirectToFile points the global logger at path until the returned LogFile
// is closed. On failure the logger is sent to io.Discard so the screen stays clean.
func RedirectToFile(path string) (*LogFile, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		GetLogger().SetOutput(io.Discard)
		return &LogFile{path: path}, err
	}
	GetLogger().SetOutput(file)
	return &LogFile{file: file, path: path}, nil
}

// Path returns the log file path.
func (lf *LogFile) Path() string {
	return lf.path
}

// Close closes the file and restores stderr logging.
func (lf *LogFile) Close() {
	GetLogger().SetOutput(nil)
	if lf.file != nil {
		_ = lf.file.Close()
		lf.file = nil
	}
}
