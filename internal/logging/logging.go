// Package logging configures logrus for JSON lines with an RFC3339Nano "ts"
// key rendered in the application's timezone.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type locationFormatter struct {
	loc   *time.Location
	inner logrus.Formatter
}

func (f *locationFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Time = e.Time.In(f.loc)
	return f.inner.Format(e)
}

func formatter(loc *time.Location) logrus.Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &locationFormatter{
		loc: loc,
		inner: &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "ts",
				logrus.FieldKeyMsg:  "msg",
			},
		},
	}
}

// New returns a logger writing to w.
func New(w io.Writer, loc *time.Location, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(formatter(loc))
	l.SetLevel(parseLevel(level))
	return l
}

// Init configures the standard logrus logger and returns it.
func Init(loc *time.Location, level string) *logrus.Logger {
	l := logrus.StandardLogger()
	l.SetOutput(os.Stdout)
	l.SetFormatter(formatter(loc))
	l.SetLevel(parseLevel(level))
	return l
}

// Component tags every entry with the emitting component.
func Component(l logrus.FieldLogger, name string) *logrus.Entry {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return l.WithField("component", name)
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
