// Package capture defines the speech/keyboard transcript source consumed by
// the ledger service. Recognition itself happens outside this program; a
// source only hands over one best-effort transcript.
package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrUnavailable means no capture device or service is present.
	ErrUnavailable = errors.New("speech capture unavailable")
	// ErrEmpty means capture ran but produced no usable transcript.
	ErrEmpty = errors.New("no transcript captured")
)

type Source interface {
	Transcript(ctx context.Context) (string, error)
}

// ReaderSource reads a single line, e.g. stdin fed by keyboard dictation.
type ReaderSource struct {
	r *bufio.Reader
}

func NewReaderSource(r io.Reader) *ReaderSource {
	if r == nil {
		return &ReaderSource{}
	}
	return &ReaderSource{r: bufio.NewReader(r)}
}

func (s *ReaderSource) Transcript(ctx context.Context) (string, error) {
	if s == nil || s.r == nil {
		return "", ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := s.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrEmpty
	}
	return line, nil
}

// StaticSource returns a fixed transcript; used when the text arrives with
// the request (HTTP body, CLI argument).
type StaticSource string

func (s StaticSource) Transcript(context.Context) (string, error) {
	text := strings.TrimSpace(string(s))
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}
