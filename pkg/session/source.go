package session

import (
	"bufio"
	"io"
	"strings"

	"github.com/matzehuels/nodify/pkg/errors"
)

// ExpressionTitle labels the frame of a single-expression compile.
const ExpressionTitle = "Expression"

// LineSource yields source lines one at a time. Next returns ok == false
// once the input is exhausted.
type LineSource interface {
	Next() (line string, ok bool, err error)
}

// titled is implemented by sources that name their frames.
type titled interface {
	FrameTitle() string
}

type sliceSource struct {
	lines []string
	pos   int
	title string
}

func (s *sliceSource) Next() (string, bool, error) {
	if s.pos >= len(s.lines) {
		return "", false, nil
	}
	s.pos++
	return s.lines[s.pos-1], true, nil
}

func (s *sliceSource) FrameTitle() string { return s.title }

// Lines returns a source over in-memory lines.
func Lines(lines ...string) LineSource {
	return &sliceSource{lines: lines}
}

// Script returns a source over newline-separated text.
func Script(text string) LineSource {
	return Lines(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")...)
}

// Expression returns a source holding one expression. Its frame is titled
// [ExpressionTitle].
func Expression(expr string) LineSource {
	return &sliceSource{lines: []string{expr}, title: ExpressionTitle}
}

type readerSource struct {
	sc *bufio.Scanner
}

// Reader returns a source reading lines from r.
func Reader(r io.Reader) LineSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), errors.MaxSourceLength)
	return &readerSource{sc: sc}
}

func (s *readerSource) Next() (string, bool, error) {
	if s.sc.Scan() {
		return s.sc.Text(), true, nil
	}
	if err := s.sc.Err(); err != nil {
		return "", false, errors.Wrap(errors.ErrCodeInvalidInput, err, "read source")
	}
	return "", false, nil
}
