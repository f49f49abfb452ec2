package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
)

// SetupLogging configures the standard logrus logger. In production output is
// JSON; a configured log file gets a rotated JSON copy of every entry.
func (c Config) SetupLogging() error {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)

	if c.Production() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.StampMilli,
		})
	}

	if c.Log.File == "" {
		return nil
	}
	hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   c.Log.File,
		MaxSize:    c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAgeDays,
		Level:      level,
		Formatter: &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		},
	})
	if err != nil {
		return fmt.Errorf("unable to set up log file rotation: %w", err)
	}
	logrus.AddHook(hook)
	return nil
}
