package procmaps

import (
	"bufio"
	"errors"
	"io"
)

// MaxLineLength is the size of the line buffer. Lines reaching it without a newline are dropped.
const MaxLineLength = 2048

// Scanner reads the table one line at a time with a fixed line buffer. Oversized lines are
// drained up to the next newline and never surface through Line.
type Scanner struct {
	r       *bufio.Reader
	line    string
	err     error
	done    bool
	skipped int
}

// NewScanner always allocates its own buffer. bufio.NewReaderSize would reuse a larger
// *bufio.Reader passed in and raise the line limit to that reader's size.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(struct{ io.Reader }{r}, MaxLineLength)}
}

func (s *Scanner) Scan() bool {
	for !s.done {
		chunk, err := s.r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			s.skipped++
			if !s.drain() {
				s.done = true
				return false
			}
			continue
		}
		if err != nil {
			s.done = true
			if err != io.EOF {
				s.err = err
				return false
			}
			if len(chunk) == 0 {
				return false
			}
			// a full buffer can surface together with EOF instead of ErrBufferFull
			if len(chunk) >= MaxLineLength {
				s.skipped++
				return false
			}
		}
		s.line = string(chunk)
		return true
	}
	return false
}

// drain discards the remainder of an oversized line. It reports false once input is exhausted.
func (s *Scanner) drain() bool {
	for {
		_, err := s.r.ReadSlice('\n')
		switch {
		case err == nil:
			return true
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == io.EOF:
			return false
		default:
			s.err = err
			return false
		}
	}
}

// Line returns the current line including its trailing newline, if it had one.
func (s *Scanner) Line() string { return s.line }

func (s *Scanner) Err() error { return s.err }

// Skipped is the number of oversized lines dropped so far.
func (s *Scanner) Skipped() int { return s.skipped }
