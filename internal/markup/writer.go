// Package markup buffers indented XML text and flushes it to a Sink that may
// apply backpressure.
package markup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// Indent is a nesting level rendered as two spaces per level
type Indent int

// Raw writes text with no indentation, for continuation text such as coordinates
const Raw Indent = -1

// Writer is an append-only text buffer flushed explicitly to a Sink.
// A Writer must not share its Sink with another Writer.
type Writer struct {
	sink Sink
	buf  bytes.Buffer
}

// NewWriter creates a Writer that flushes to sink
func NewWriter(sink Sink) *Writer {
	return &Writer{sink: sink}
}

// Write appends text at the given indent level
func (w *Writer) Write(indent Indent, text ...string) {
	if indent > 0 {
		w.buf.WriteString(strings.Repeat("  ", int(indent)))
	}
	for _, t := range text {
		w.buf.WriteString(t)
	}
}

// Writeln appends text at the given indent level followed by a newline
func (w *Writer) Writeln(indent Indent, text ...string) {
	w.Write(indent, text...)
	w.buf.WriteByte('\n')
}

// Len returns the number of buffered bytes
func (w *Writer) Len() int {
	return w.buf.Len()
}

// String returns the buffered, unflushed text
func (w *Writer) String() string {
	return w.buf.String()
}

// Flush hands the buffer to the sink. When the sink is full the remainder is
// retried after the sink drains. Flush returns once every byte was accepted.
// On error the unaccepted bytes stay buffered.
func (w *Writer) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for w.buf.Len() > 0 {
		n, err := w.sink.Write(w.buf.Bytes())
		w.buf.Next(n)

		switch {
		case err == nil && n == 0:
			return io.ErrShortWrite
		case err == nil:
			continue
		case errors.Is(err, ErrFull):
			select {
			case <-w.sink.Drain():
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			return err
		}
	}
	w.buf.Reset()
	return nil
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape escapes text for use in element content or attribute values.
// Characters XML 1.0 does not allow are removed first.
func Escape(s string) string {
	return escaper.Replace(Clean(s))
}

// CDATA wraps s in a CDATA section, splitting any embedded terminator.
// Characters XML 1.0 does not allow are removed first.
func CDATA(s string) string {
	return "<![CDATA[" + strings.ReplaceAll(Clean(s), "]]>", "]]]]><![CDATA[>") + "]]>"
}

// Clean replaces invalid UTF-8 with U+FFFD and drops runes outside the XML 1.0
// Char production (C0 controls other than tab, LF and CR, surrogates, U+FFFE
// and U+FFFF).
func Clean(s string) string {
	if utf8.ValidString(s) && strings.IndexFunc(s, illegalRune) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if illegalRune(r) {
			return -1
		}
		return r
	}, strings.ToValidUTF8(s, "\uFFFD"))
}

func illegalRune(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return false
	case r < 0x20:
		return true
	case r >= 0xD800 && r <= 0xDFFF, r == 0xFFFE, r == 0xFFFF:
		return true
	}
	return r > utf8.MaxRune
}
