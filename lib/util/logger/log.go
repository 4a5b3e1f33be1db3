package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	log  *Logger
	once sync.Once
)

// Fields is the field map accepted by WithFields.
type Fields = logrus.Fields

type Logger struct {
	*logrus.Logger
}

type Entry struct {
	Logger
	entry *logrus.Entry
}

func (l *Logger) Warn(args ...interface{}) {
	warnFatal(args...)
	l.Logger.Warn(args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	warnFatalf(format, args...)
	l.Logger.Warnf(format, args...)
}

func (l *Logger) Error(args ...interface{}) {
	warnFatal(args...)
	l.Logger.Error(args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	warnFatalf(format, args...)
	l.Logger.Errorf(format, args...)
}

func (l *Logger) WithField(key string, value interface{}) *Entry {
	entry := l.Logger.WithField(key, value)
	return &Entry{*l, entry}
}

func (l *Logger) WithFields(fields Fields) *Entry {
	entry := l.Logger.WithFields(fields)
	return &Entry{*l, entry}
}

func (l *Logger) WithError(err error) *Entry {
	entry := l.Logger.WithError(err)
	return &Entry{*l, entry}
}

func (e *Entry) WithField(key string, value interface{}) *Entry {
	return &Entry{e.Logger, e.entry.WithField(key, value)}
}

func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{e.Logger, e.entry.WithFields(fields)}
}

func (e *Entry) WithError(err error) *Entry {
	return &Entry{e.Logger, e.entry.WithError(err)}
}

func (e *Entry) Debug(args ...interface{}) {
	e.entry.Debug(args...)
}

func (e *Entry) Info(args ...interface{}) {
	e.entry.Info(args...)
}

func (e *Entry) Warn(args ...interface{}) {
	warnFatal(args...)
	e.entry.Warn(args...)
}

func (e *Entry) Warnf(format string, args ...interface{}) {
	warnFatalf(format, args...)
	e.entry.Warnf(format, args...)
}

func (e *Entry) Error(args ...interface{}) {
	warnFatal(args...)
	e.entry.Error(args...)
}

func (e *Entry) Errorf(format string, args ...interface{}) {
	warnFatalf(format, args...)
	e.entry.Errorf(format, args...)
}

func warnFatal(args ...interface{}) {
	if failFast != "" {
		log.Fatal(args...)
	}
}

func warnFatalf(format string, args ...interface{}) {
	if failFast != "" {
		log.Fatalf(format, args...)
	}
}

var failFast string

func InitializeCastwaveLogger() {
	once.Do(func() {
		log = &Logger{}
		log.Logger = logrus.New()
		// We do not want to log by default
		log.SetOutput(io.Discard)
		log.SetLevel(logrus.PanicLevel)
		// Check if DEBUG_CASTWAVE is set
		if logLevel := os.Getenv("DEBUG_CASTWAVE"); logLevel != "" {
			failFast = os.Getenv("WARNFAIL_CASTWAVE")
			if failFast != "" {
				logLevel = "debug"
			}
			log.SetOutput(os.Stdout)
			switch strings.ToLower(logLevel) {
			case "debug":
				log.SetLevel(logrus.DebugLevel)
			case "warn":
				log.SetLevel(logrus.WarnLevel)
			case "error":
				log.SetLevel(logrus.ErrorLevel)
			default:
				log.SetLevel(logrus.DebugLevel)
			}
			log.WithField("level", log.GetLevel()).Debug("Logging enabled.")
		}
	})
}

// GetCastwaveLogger returns the initialized Logger
func GetCastwaveLogger() *Logger {
	if log == nil {
		InitializeCastwaveLogger()
	}
	return log
}

// SetLevelFromString adjusts the runtime log level. The launch configuration's
// log_level key goes through here; DEBUG_CASTWAVE still wins at init time.
func SetLevelFromString(level string) {
	l := GetCastwaveLogger()
	switch strings.ToLower(level) {
	case "debug":
		l.SetOutput(os.Stdout)
		l.SetLevel(logrus.DebugLevel)
	case "info":
		l.SetOutput(os.Stdout)
		l.SetLevel(logrus.InfoLevel)
	case "warn":
		l.SetOutput(os.Stdout)
		l.SetLevel(logrus.WarnLevel)
	case "error":
		l.SetOutput(os.Stdout)
		l.SetLevel(logrus.ErrorLevel)
	case "off":
		l.SetOutput(io.Discard)
		l.SetLevel(logrus.PanicLevel)
	}
}

func init() {
	InitializeCastwaveLogger()
}
