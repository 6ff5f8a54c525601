package procmaps

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// requiredFields is the number of leading fields every line must yield:
// start, end, perms, offset, dev major, dev minor, inode.
const requiredFields = 7

var ErrMalformedEntry = errors.New("malformed memory map entry")

type ParseError struct {
	LineNo int // 1-based, 0 when parsed outside a stream
	Line   string
	Fields int
	Reason string
}

func (e *ParseError) Error() string {
	line := strings.TrimSuffix(e.Line, "\n")
	if e.LineNo > 0 {
		return fmt.Sprintf("line %d: %s: recovered %d of %d fields in %q", e.LineNo, e.Reason, e.Fields, requiredFields, line)
	}
	return fmt.Sprintf("%s: recovered %d of %d fields in %q", e.Reason, e.Fields, requiredFields, line)
}

func (e *ParseError) Unwrap() error { return ErrMalformedEntry }

// Entry is one decoded line of the table.
type Entry struct {
	Start, End uint64
	Offset     uint64
	Perms      string
	DevMajor   uint32
	DevMinor   uint32
	Inode      int64
	PathIndex  int    // byte offset of the path field within the line
	Path       string // remainder of the line from PathIndex, single trailing newline removed
}

func (e Entry) Size() uint64 { return e.End - e.Start }

func (e Entry) Permission() Permission { return DecodePermission(e.Perms) }

// ParseEntry decodes a single line. Example format:
//
//	55d4b2000000-55d4b2021000 r--p 00000000 08:01 131073   /usr/bin/myprog
func ParseEntry(line string) (Entry, error) {
	c := cursor{s: line}
	var e Entry
	fields := 0
	fail := func(reason string) (Entry, error) {
		return Entry{}, &ParseError{Line: line, Fields: fields, Reason: reason}
	}

	var ok bool
	if e.Start, ok = c.hex(64); !ok {
		return fail("bad start address")
	}
	fields++
	if !c.literal('-') {
		return fail("missing address separator")
	}
	if e.End, ok = c.hex(64); !ok {
		return fail("bad end address")
	}
	fields++
	c.space()
	if e.Perms, ok = c.perms(); !ok {
		return fail("bad permissions")
	}
	fields++
	if e.Offset, ok = c.hex(64); !ok {
		return fail("bad offset")
	}
	fields++
	var dev uint64
	if dev, ok = c.hex(32); !ok {
		return fail("bad device major")
	}
	e.DevMajor = uint32(dev)
	fields++
	if !c.literal(':') {
		return fail("missing device separator")
	}
	if dev, ok = c.hex(32); !ok {
		return fail("bad device minor")
	}
	e.DevMinor = uint32(dev)
	fields++
	if e.Inode, ok = c.decimal(); !ok {
		return fail("bad inode")
	}
	fields++
	if e.End <= e.Start {
		return fail("empty address range")
	}

	c.space()
	e.PathIndex = c.pos
	e.Path = strings.TrimSuffix(line[c.pos:], "\n")
	return e, nil
}

// ReadEntries walks every line of r. The first malformed line stops the walk with a *ParseError.
func ReadEntries(r io.Reader, fn func(Entry) error) error {
	s := NewScanner(r)
	lineNo := 0
	for s.Scan() {
		lineNo++
		e, err := ParseEntry(s.Line())
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				perr.LineNo = lineNo
			}
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("reading memory map table: %w", err)
	}
	if n := s.Skipped(); n > 0 {
		slog.Debug("Skipped oversized memory map lines", "count", n, "limit", MaxLineLength)
	}
	return nil
}

type cursor struct {
	s   string
	pos int
}

func (c *cursor) space() {
	for c.pos < len(c.s) && isSpace(c.s[c.pos]) {
		c.pos++
	}
}

func (c *cursor) literal(b byte) bool {
	if c.pos < len(c.s) && c.s[c.pos] == b {
		c.pos++
		return true
	}
	return false
}

func (c *cursor) run(accept func(byte) bool) string {
	start := c.pos
	for c.pos < len(c.s) && accept(c.s[c.pos]) {
		c.pos++
	}
	return c.s[start:c.pos]
}

func (c *cursor) hex(bits int) (uint64, bool) {
	c.space()
	v, err := strconv.ParseUint(c.run(isHex), 16, bits)
	return v, err == nil
}

func (c *cursor) decimal() (int64, bool) {
	c.space()
	start := c.pos
	if c.pos < len(c.s) && (c.s[c.pos] == '-' || c.s[c.pos] == '+') {
		c.pos++
	}
	c.run(isDigit)
	v, err := strconv.ParseInt(c.s[start:c.pos], 10, 64)
	return v, err == nil
}

// perms takes exactly four flag characters: [r-][w-][x-][ps].
func (c *cursor) perms() (string, bool) {
	if len(c.s)-c.pos < 4 {
		return "", false
	}
	p := c.s[c.pos : c.pos+4]
	if !strings.ContainsRune("r-", rune(p[0])) ||
		!strings.ContainsRune("w-", rune(p[1])) ||
		!strings.ContainsRune("x-", rune(p[2])) ||
		!strings.ContainsRune("ps", rune(p[3])) {
		return "", false
	}
	c.pos += 4
	return p, true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
