// Package config loads the TOML document that wires sinks into loggers:
// a `sinks` table of named sink declarations and a `loggers` array of
// logger declarations, turned into a live internal/registry.Registry by
// Build. Parsing and wiring are kept separate so callers that only want
// to validate a document (the hot-reload watcher, before swapping in a
// new registry) don't pay for constructing sinks twice.
package config

import (
	stderrors "errors"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/corelog/logpp/pkg/errors"
)

// SinkDocument is one entry of the `sinks` table: a sink type name
// (resolved against a registry.SinkFactory) and its string option map,
// which is handed to that factory as is.
type SinkDocument struct {
	Type          string            `toml:"type"`
	Options       map[string]string `toml:"options"`
	Async         bool              `toml:"async"`
	QueueCapacity int               `toml:"queue_capacity"`
}

// LoggerDocument is one entry of the `loggers` array.
type LoggerDocument struct {
	Name    string   `toml:"name"`
	Level   string   `toml:"level"`
	Sinks   []string `toml:"sinks"`
	Default bool     `toml:"default"`
}

// Document is the parsed shape of a logpp configuration file.
type Document struct {
	Sinks   map[string]SinkDocument `toml:"sinks"`
	Loggers []LoggerDocument        `toml:"loggers"`
}

// Parse decodes data as TOML into a Document. Malformed documents are
// reported as *errors.ConfigError with a source region when the
// underlying decoder can locate one.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, decodeError(err)
	}
	return &doc, nil
}

// ParseFile reads path and parses it as a Document.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.ConfigError{Description: "reading config file: " + err.Error()}
	}
	return Parse(data)
}

// ExpandEnv rewrites every ${NAME}-shaped reference in the document's
// sink option values and logger names, levels and sink references
// against the process environment; a sink's type is left as written. It
// is opt-in: callers that don't want environment substitution simply
// don't call it.
func ExpandEnv(doc *Document) {
	for name, s := range doc.Sinks {
		for k, v := range s.Options {
			s.Options[k] = os.ExpandEnv(v)
		}
		doc.Sinks[name] = s
	}
	for i, l := range doc.Loggers {
		doc.Loggers[i].Name = os.ExpandEnv(l.Name)
		doc.Loggers[i].Level = os.ExpandEnv(l.Level)
		for j, s := range l.Sinks {
			doc.Loggers[i].Sinks[j] = os.ExpandEnv(s)
		}
	}
}

func decodeError(err error) error {
	var de *toml.DecodeError
	if stderrors.As(err, &de) {
		row, col := de.Position()
		return &errors.ConfigError{
			Description: strings.TrimSpace(de.String()),
			Region:      errors.SourceRegion{Line: row, Column: col},
			Cause:       err,
		}
	}
	return &errors.ConfigError{Description: "parsing TOML: " + err.Error(), Cause: err}
}
