package format

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/pkg/errors"
	"github.com/corelog/logpp/pkg/level"
)

// DefaultLogfmtPattern is logpp's default logfmt layout: a timestamp,
// level, logger name and message, followed by any structured fields.
const DefaultLogfmtPattern = "ts=%Y-%m-%dT%H:%M:%S lvl=%l logger=%n msg=%v%f"

// logfmtElement is one top-level token of a parsed logfmt pattern: either
// a bare "%f" fields block, or a "key=<value flags>" pair.
type logfmtElement struct {
	isFields bool
	key      string
	value    []FlagRenderer
}

// LogfmtFormatter renders records as space-separated key=value pairs.
// Unlike PatternFormatter, its grammar is key-value oriented: each
// top-level token is "key=<flags>" (value flags run until the next space
// or an embedded "%f"), and a value whose rendered text contains a space
// is double-quoted. LogfmtFormatter shares the same FlagRenderer
// primitives as PatternFormatter for the value side of each pair.
type LogfmtFormatter struct {
	mu       sync.RWMutex
	pattern  string
	elements []logfmtElement
}

// NewLogfmtFormatter returns a formatter using DefaultLogfmtPattern.
func NewLogfmtFormatter() *LogfmtFormatter {
	f, err := NewLogfmtFormatterWithPattern(DefaultLogfmtPattern)
	if err != nil {
		// DefaultLogfmtPattern is a compile-time constant verified by tests;
		// a parse failure here would be a programming error in this package.
		panic(err)
	}
	return f
}

// NewLogfmtFormatterWithPattern parses a custom logfmt pattern.
func NewLogfmtFormatterWithPattern(pattern string) (*LogfmtFormatter, error) {
	f := &LogfmtFormatter{}
	if err := f.SetPattern(pattern); err != nil {
		return nil, err
	}
	return f, nil
}

// SetPattern re-parses pattern, replacing the formatter's element list.
func (f *LogfmtFormatter) SetPattern(pattern string) error {
	elements, err := parseLogfmtPattern(pattern)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.pattern = pattern
	f.elements = elements
	f.mu.Unlock()
	return nil
}

// Format implements Formatter.
func (f *LogfmtFormatter) Format(out *bytes.Buffer, name string, lvl level.Level, e *buffer.Event) {
	f.mu.RLock()
	elements := f.elements
	f.mu.RUnlock()

	for i, el := range elements {
		if el.isFields {
			fieldsRenderer{prefix: " "}.Render(out, name, lvl, e)
			continue
		}

		if i > 0 {
			out.WriteByte(' ')
		}

		out.WriteString(el.key)
		out.WriteByte('=')

		var tmp bytes.Buffer
		for _, r := range el.value {
			r.Render(&tmp, name, lvl, e)
		}

		if bytes.ContainsRune(tmp.Bytes(), ' ') {
			fmt.Fprintf(out, "%q", tmp.String())
		} else {
			out.Write(tmp.Bytes())
		}
	}
}

func parseLogfmtPattern(pattern string) ([]logfmtElement, error) {
	if pattern == "%+" {
		return parseLogfmtPattern(DefaultLogfmtPattern)
	}

	var elements []logfmtElement
	i, n := 0, len(pattern)

	for i < n {
		for i < n && pattern[i] == ' ' {
			i++
		}
		if i >= n {
			break
		}

		if strings.HasPrefix(pattern[i:], "%f") {
			elements = append(elements, logfmtElement{isFields: true})
			i += 2
			continue
		}

		eq := strings.IndexByte(pattern[i:], '=')
		if eq == -1 {
			return nil, &errors.PatternError{Column: i + 1, Description: "expected '=' after key"}
		}
		key := pattern[i : i+eq]
		i += eq + 1
		if i >= n {
			return nil, &errors.PatternError{Column: i + 1, Description: "expected value, got EOF"}
		}

		value, consumed, err := parseLogfmtValue(pattern[i:])
		if err != nil {
			return nil, err
		}
		i += consumed

		elements = append(elements, logfmtElement{key: key, value: value})
	}

	return elements, nil
}

// parseLogfmtValue parses the flags/literals making up one value,
// stopping at the next top-level space or an embedded "%f" (left for the
// caller to match as its own token), and reports how many bytes it consumed.
func parseLogfmtValue(s string) ([]FlagRenderer, int, error) {
	var value []FlagRenderer
	var lit bytes.Buffer

	i, n := 0, len(s)
	for i < n && s[i] != ' ' {
		if s[i] == '%' {
			if i+1 < n && s[i+1] == 'f' {
				break
			}

			if lit.Len() > 0 {
				value = append(value, literalRenderer{lit.String()})
				lit.Reset()
			}

			flagColumn := i + 1
			i++
			if i >= n {
				return nil, 0, &errors.PatternError{Column: flagColumn, Description: "trailing '%' with no flag"}
			}

			flag := s[i]
			i++

			if r, ok := simpleFlag(flag); ok {
				value = append(value, r)
				continue
			}

			return nil, 0, &errors.PatternError{Column: flagColumn, Description: fmt.Sprintf("unrecognized flag '%c'", flag)}
		}

		lit.WriteByte(s[i])
		i++
	}

	if lit.Len() > 0 {
		value = append(value, literalRenderer{lit.String()})
	}

	return value, i, nil
}
