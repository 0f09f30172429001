package registry

import (
	"github.com/corelog/logpp/internal/format"
	"github.com/corelog/logpp/pkg/errors"
	"github.com/corelog/logpp/pkg/sink"
)

// registerBuiltinFactories wires the sink type names a configuration
// document's `sinks` table may declare to constructors in pkg/sink.
func registerBuiltinFactories(r *Registry) {
	r.RegisterSinkFactory("console", newConsoleSinkFromOptions)
	r.RegisterSinkFactory("file", newFileSinkFromOptions)
	r.RegisterSinkFactory("rolling_file", newRollingFileSinkFromOptions)
}

// buildFormatter reads the common "format"/"pattern" options shared by
// every sink type that renders through a format.Formatter.
func buildFormatter(options map[string]string) (format.Formatter, error) {
	pattern, hasPattern := options["pattern"]

	if options["format"] == "logfmt" {
		if hasPattern {
			return format.NewLogfmtFormatterWithPattern(pattern)
		}
		return format.NewLogfmtFormatter(), nil
	}

	if hasPattern {
		return format.NewPatternFormatter(pattern)
	}
	return format.NewPatternFormatter(format.DefaultPattern)
}

func newConsoleSinkFromOptions(options map[string]string) (sink.Sink, error) {
	f, err := buildFormatter(options)
	if err != nil {
		return nil, err
	}
	return sink.NewConsoleSink(f), nil
}

func newFileSinkFromOptions(options map[string]string) (sink.Sink, error) {
	path, ok := options["path"]
	if !ok || path == "" {
		return nil, &errors.ConfigError{Description: `file sink requires a "path" option`}
	}

	f, err := buildFormatter(options)
	if err != nil {
		return nil, err
	}

	fs, err := sink.NewFileSink(path, f)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

func newRollingFileSinkFromOptions(options map[string]string) (sink.Sink, error) {
	path, ok := options["path"]
	if !ok || path == "" {
		return nil, &errors.ConfigError{Description: `rolling_file sink requires a "path" option`}
	}

	f, err := buildFormatter(options)
	if err != nil {
		return nil, err
	}

	// Defaults mirror the original source: roll at 10MB with incremental
	// archival; both are overridable by the "strategy"/"archive" options
	// via the sink's own Configurable.SetOption, exactly as a live
	// `SetOption("strategy", ...)` call from the config loader would.
	rfs, err := sink.NewRollingFileSink(path, f, sink.SizeRollingStrategy{Threshold: 10 << 20}, sink.IncrementalArchiveStrategy{})
	if err != nil {
		return nil, err
	}

	if strategy, ok := options["strategy"]; ok {
		if err := rfs.SetOption("strategy", strategy); err != nil {
			return nil, err
		}
	}
	if archive, ok := options["archive"]; ok {
		if err := rfs.SetOption("archive", archive); err != nil {
			return nil, err
		}
	}
	return rfs, nil
}
