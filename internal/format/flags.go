package format

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/pkg/level"
)

type literalRenderer struct{ text string }

func (r literalRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, _ *buffer.Event) {
	out.WriteString(r.text)
}

type yearRenderer struct{}

func (yearRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	fmt.Fprintf(out, "%04d", e.Time().Year())
}

type monthRenderer struct{}

func (monthRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	fmt.Fprintf(out, "%02d", int(e.Time().Month()))
}

type dayRenderer struct{}

func (dayRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	fmt.Fprintf(out, "%02d", e.Time().Day())
}

type hourRenderer struct{}

func (hourRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	fmt.Fprintf(out, "%02d", e.Time().Hour())
}

type minuteRenderer struct{}

func (minuteRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	fmt.Fprintf(out, "%02d", e.Time().Minute())
}

type secondRenderer struct{}

func (secondRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	fmt.Fprintf(out, "%02d", e.Time().Second())
}

type millisecondRenderer struct{}

func (millisecondRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	fmt.Fprintf(out, "%03d", e.Time().Nanosecond()/1e6)
}

type microsecondRenderer struct{}

func (microsecondRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	fmt.Fprintf(out, "%03d", (e.Time().Nanosecond()/1e3)%1000)
}

type levelRenderer struct{}

func (levelRenderer) Render(out *bytes.Buffer, _ string, lvl level.Level, _ *buffer.Event) {
	out.WriteString(lvl.String())
}

type nameRenderer struct{}

func (nameRenderer) Render(out *bytes.Buffer, name string, _ level.Level, _ *buffer.Event) {
	out.WriteString(name)
}

type textRenderer struct{}

func (textRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	out.WriteString(e.Message())
}

type threadRenderer struct{}

func (threadRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	fmt.Fprintf(out, "%d", e.ThreadID())
}

type sourceFileRenderer struct{}

func (sourceFileRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	if f := e.SourceFile(); f != "" {
		out.WriteString(filepath.Base(f))
	}
}

type sourceLineRenderer struct{}

func (sourceLineRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	if line := e.SourceLine(); line != 0 {
		fmt.Fprintf(out, "%d", line)
	}
}

// fullRenderer implements the "%+" default full format:
// "YYYY-MM-DD HH:MM:SS [Level] name - message"  (name segment omitted when empty).
type fullRenderer struct{}

func (fullRenderer) Render(out *bytes.Buffer, name string, lvl level.Level, e *buffer.Event) {
	t := e.Time()
	fmt.Fprintf(out, "%04d-%02d-%02d %02d:%02d:%02d [%s]",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), lvl.String())
	if name != "" {
		fmt.Fprintf(out, " %s -", name)
	}
	out.WriteByte(' ')
	out.WriteString(e.Message())
}

// fieldsRenderer renders the structured-fields block as space-separated
// key=value pairs, quoting any value whose string form contains a space.
// Its leading separator is only written when there is at least one field,
// so composing it after another renderer never produces a dangling space.
type fieldsRenderer struct{ prefix string }

func (r fieldsRenderer) Render(out *bytes.Buffer, _ string, _ level.Level, e *buffer.Event) {
	v := &fieldsVisitor{out: out, prefix: r.prefix}
	e.VisitFields(v)
}

type fieldsVisitor struct {
	out    *bytes.Buffer
	prefix string
	count  int
}

func (v *fieldsVisitor) VisitStart(count int) {
	if count > 0 {
		v.out.WriteString(v.prefix)
	}
}

func (v *fieldsVisitor) VisitEnd() {}

func (v *fieldsVisitor) writeSep() {
	if v.count > 0 {
		v.out.WriteByte(' ')
	}
	v.count++
}

func (v *fieldsVisitor) VisitString(key, value string) {
	v.writeSep()
	if bytes.ContainsRune([]byte(value), ' ') {
		fmt.Fprintf(v.out, "%s=%q", key, value)
	} else {
		fmt.Fprintf(v.out, "%s=%s", key, value)
	}
}

func (v *fieldsVisitor) VisitUint8(key string, value uint8) {
	v.writeSep()
	fmt.Fprintf(v.out, "%s=%d", key, value)
}
func (v *fieldsVisitor) VisitUint16(key string, value uint16) {
	v.writeSep()
	fmt.Fprintf(v.out, "%s=%d", key, value)
}
func (v *fieldsVisitor) VisitUint32(key string, value uint32) {
	v.writeSep()
	fmt.Fprintf(v.out, "%s=%d", key, value)
}
func (v *fieldsVisitor) VisitUint64(key string, value uint64) {
	v.writeSep()
	fmt.Fprintf(v.out, "%s=%d", key, value)
}
func (v *fieldsVisitor) VisitInt8(key string, value int8) {
	v.writeSep()
	fmt.Fprintf(v.out, "%s=%d", key, value)
}
func (v *fieldsVisitor) VisitInt16(key string, value int16) {
	v.writeSep()
	fmt.Fprintf(v.out, "%s=%d", key, value)
}
func (v *fieldsVisitor) VisitInt32(key string, value int32) {
	v.writeSep()
	fmt.Fprintf(v.out, "%s=%d", key, value)
}
func (v *fieldsVisitor) VisitInt64(key string, value int64) {
	v.writeSep()
	fmt.Fprintf(v.out, "%s=%d", key, value)
}
func (v *fieldsVisitor) VisitFloat32(key string, value float32) {
	v.writeSep()
	fmt.Fprintf(v.out, "%s=%g", key, value)
}
func (v *fieldsVisitor) VisitFloat64(key string, value float64) {
	v.writeSep()
	fmt.Fprintf(v.out, "%s=%g", key, value)
}
func (v *fieldsVisitor) VisitBool(key string, value bool) {
	v.writeSep()
	fmt.Fprintf(v.out, "%s=%t", key, value)
}

// customRendererAdapter lets a user-registered FlagRenderer satisfy the
// internal flagRenderer call signature unchanged.
type customRendererAdapter struct{ FlagRenderer }

func (c customRendererAdapter) Render(out *bytes.Buffer, name string, lvl level.Level, e *buffer.Event) {
	c.FlagRenderer.Render(out, name, lvl, e)
}

var (
	customFlagsMu sync.RWMutex
	customFlags   = map[byte]FlagFactory{}
)

// RegisterFlag registers a factory for a custom pattern flag character.
// It is safe to call concurrently with formatter construction. Returns
// false if the flag character collides with a built-in directive or an
// already-registered custom flag.
func RegisterFlag(flag byte, factory FlagFactory) bool {
	if isBuiltinFlag(flag) {
		return false
	}

	customFlagsMu.Lock()
	defer customFlagsMu.Unlock()

	if _, exists := customFlags[flag]; exists {
		return false
	}
	customFlags[flag] = factory
	return true
}

func lookupCustomFlag(flag byte, param string) (FlagRenderer, bool, error) {
	customFlagsMu.RLock()
	factory, ok := customFlags[flag]
	customFlagsMu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	r, err := factory(param)
	if err != nil {
		return nil, true, err
	}
	return r, true, nil
}

func isBuiltinFlag(flag byte) bool {
	switch flag {
	case '+', 'Y', 'm', 'd', 'H', 'M', 'S', 'i', 'u', 'l', 'n', 'v', 't', 'p', 'o', 'f':
		return true
	default:
		return false
	}
}

// simpleFlag returns the renderer for every flag whose output does not
// depend on a bracketed parameter; shared between the pattern and logfmt
// grammars. ok is false for '+' and 'f', which need grammar-specific
// handling by their callers.
func simpleFlag(flag byte) (FlagRenderer, bool) {
	switch flag {
	case 'Y':
		return yearRenderer{}, true
	case 'm':
		return monthRenderer{}, true
	case 'd':
		return dayRenderer{}, true
	case 'H':
		return hourRenderer{}, true
	case 'M':
		return minuteRenderer{}, true
	case 'S':
		return secondRenderer{}, true
	case 'i':
		return millisecondRenderer{}, true
	case 'u':
		return microsecondRenderer{}, true
	case 'l':
		return levelRenderer{}, true
	case 'n':
		return nameRenderer{}, true
	case 'v':
		return textRenderer{}, true
	case 't':
		return threadRenderer{}, true
	case 'p':
		return sourceFileRenderer{}, true
	case 'o':
		return sourceLineRenderer{}, true
	default:
		return nil, false
	}
}
