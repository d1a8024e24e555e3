package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInterrupted signals the user aborted the current read (Ctrl-C).
// The session continues; only the in-progress input is discarded.
var ErrInterrupted = errors.New("input interrupted")

// LineReader supplies one line of user input at a time.
// Implementations return io.EOF when input is exhausted and ErrInterrupted
// when the user aborts the read.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// ScannerReader reads lines from an io.Reader, echoing the prompt to an
// io.Writer. It backs non-interactive sessions (pipes, tests).
type ScannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewScannerReader creates a reader over in, writing prompts to out.
func NewScannerReader(in io.Reader, out io.Writer) *ScannerReader {
	return &ScannerReader{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// ReadLine prints the prompt and reads the next line.
func (s *ScannerReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(s.scanner.Text(), "\r"), nil
}
