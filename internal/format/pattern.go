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

// DefaultPattern is used when a PatternFormatter is constructed without an
// explicit pattern: the full default rendering of a record.
const DefaultPattern = "%+"

// PatternFormatter renders records through a user-controlled "%"-directive
// template. The pattern is parsed once into an ordered list of flag
// renderers; Format walks that list. A PatternFormatter is immutable
// after construction (SetPattern replaces the renderer list wholesale
// under a lock, but never formats concurrently with that replacement in
// a way that observes a partial list) and safe to share across sinks.
type PatternFormatter struct {
	mu        sync.RWMutex
	pattern   string
	renderers []FlagRenderer
}

// NewPatternFormatter parses pattern and returns a ready formatter, or a
// *errors.PatternError if the pattern is malformed.
func NewPatternFormatter(pattern string) (*PatternFormatter, error) {
	f := &PatternFormatter{}
	if err := f.SetPattern(pattern); err != nil {
		return nil, err
	}
	return f, nil
}

// SetPattern re-parses pattern, replacing the formatter's renderer list.
func (f *PatternFormatter) SetPattern(pattern string) error {
	renderers, err := parsePattern(pattern)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.pattern = pattern
	f.renderers = renderers
	f.mu.Unlock()
	return nil
}

// Pattern returns the pattern string currently in effect.
func (f *PatternFormatter) Pattern() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pattern
}

// Format implements Formatter.
func (f *PatternFormatter) Format(out *bytes.Buffer, name string, lvl level.Level, e *buffer.Event) {
	f.mu.RLock()
	renderers := f.renderers
	f.mu.RUnlock()

	for _, r := range renderers {
		r.Render(out, name, lvl, e)
	}
}

// parsePattern scans pattern left to right. A literal run becomes a
// literalRenderer; '%' introduces a flag. An unrecognized flag, or a
// trailing '%' with no following character, is a *errors.PatternError
// naming the 1-based column of the offending '%'.
func parsePattern(pattern string) ([]FlagRenderer, error) {
	var renderers []FlagRenderer
	var literal bytes.Buffer

	i, n := 0, len(pattern)
	for i < n {
		c := pattern[i]
		if c != '%' {
			literal.WriteByte(c)
			i++
			continue
		}

		if literal.Len() > 0 {
			renderers = append(renderers, literalRenderer{literal.String()})
			literal.Reset()
		}

		flagColumn := i + 1
		i++
		if i >= n {
			return nil, &errors.PatternError{Column: flagColumn, Description: "trailing '%' with no flag"}
		}

		flag := pattern[i]
		i++

		switch flag {
		case '+':
			renderers = append(renderers, fullRenderer{})
			continue
		case 'f':
			renderers = append(renderers, fieldsRenderer{prefix: " "})
			continue
		}

		if r, ok := simpleFlag(flag); ok {
			renderers = append(renderers, r)
			continue
		}

		param := ""
		if i < n && pattern[i] == '[' {
			end := strings.IndexByte(pattern[i:], ']')
			if end == -1 {
				return nil, &errors.PatternError{Column: i + 1, Description: "unterminated bracketed parameter"}
			}
			param = pattern[i+1 : i+end]
			i += end + 1
		}

		renderer, found, err := lookupCustomFlag(flag, param)
		if err != nil {
			return nil, &errors.PatternError{Column: flagColumn, Description: err.Error()}
		}
		if !found {
			return nil, &errors.PatternError{Column: flagColumn, Description: fmt.Sprintf("unrecognized flag '%c'", flag)}
		}
		renderers = append(renderers, customRendererAdapter{renderer})
	}

	if literal.Len() > 0 {
		renderers = append(renderers, literalRenderer{literal.String()})
	}

	return renderers, nil
}
