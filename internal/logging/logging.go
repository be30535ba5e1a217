// Package logging is the package-level logrus logger every PNA package
// reaches for instead of the standard library's log package, matching
// the convention bpfs-defs/utils/logger uses throughout its tree.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger instance. Callers that need to redirect
// output (tests, a CLI front-end) call SetOutput/SetLevel directly.
var Log *logrus.Logger

func init() {
	Log = logrus.New()
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	Log.SetLevel(logrus.InfoLevel)
	Log.SetOutput(os.Stdout)
}

// SetLevel changes the minimum level that gets logged.
func SetLevel(level logrus.Level) { Log.SetLevel(level) }

// SetOutput redirects where log lines are written.
func SetOutput(output *os.File) { Log.SetOutput(output) }

func whereAmI(depth int) string {
	pc, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	parts := strings.Split(fn.Name(), "/")
	pkgFunc := parts[len(parts)-1]
	pkgName := strings.Split(pkgFunc, ".")[0]
	_, fileName := filepath.Split(file)
	return fmt.Sprintf("[%s/%s:%d]", pkgName, fileName, line)
}

func entryAt(depth int) *logrus.Entry {
	return Log.WithField("location", whereAmI(depth + 1))
}

func Debug(args ...interface{}) { entryAt(1).Debug(args...) }

func Debugf(format string, args ...interface{}) { entryAt(1).Debugf(format, args...) }

func Info(args ...interface{}) { entryAt(1).Info(args...) }

func Infof(format string, args ...interface{}) { entryAt(1).Infof(format, args...) }

func Warn(args ...interface{}) { entryAt(1).Warn(args...) }

func Warnf(format string, args ...interface{}) { entryAt(1).Warnf(format, args...) }

func Error(args ...interface{}) { entryAt(1).Error(args...) }

func Errorf(format string, args ...interface{}) { entryAt(1).Errorf(format, args...) }

// WithError attaches err as the entry's "error" field.
func WithError(err error) *logrus.Entry { return Log.WithError(err) }

// WithField attaches one key/value pair to a new entry.
func WithField(key string, value interface{}) *logrus.Entry { return Log.WithField(key, value) }
