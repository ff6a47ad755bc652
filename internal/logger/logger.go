package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// New builds the structured logger. format is "json" (default) or "text";
// an unknown level falls back to info.
func New(service, level, format string, out io.Writer) *logrus.Entry {
	l := logrus.New()
	if out == nil {
		out = os.Stdout
	}
	l.SetOutput(out)

	if strings.EqualFold(format, "text") {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "ts",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	l.SetLevel(logrus.InfoLevel)
	if level != "" {
		if lvl, err := logrus.ParseLevel(level); err == nil {
			l.SetLevel(lvl)
		}
	}

	return l.WithField("service", service)
}
