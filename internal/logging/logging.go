// Package logging configures the logrus logger shared by the CLI
package logging

import (
	"fmt"
	"io"
	"strings"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
)

// Formatter returns the console formatter. Colours only make sense on a
// terminal.
func Formatter(colors bool) *nested.Formatter {
	return &nested.Formatter{
		FieldsOrder:      []string{"stage", "model", "sentences"},
		TimestampFormat:  "2006-01-02 15:04:05.000",
		NoColors:         !colors,
		NoUppercaseLevel: true,
		ShowFullLevel:    true,
	}
}

// New builds a logger writing to out. verbose forces debug level.
func New(out io.Writer, level string, verbose, colors bool) (*logrus.Logger, error) {
	lvl := logrus.InfoLevel
	if level != "" {
		parsed, err := logrus.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		lvl = parsed
	}
	if verbose {
		lvl = logrus.DebugLevel
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	log.SetFormatter(Formatter(colors))
	return log, nil
}
