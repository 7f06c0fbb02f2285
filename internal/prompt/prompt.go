// Package prompt supplies answers to the interactive questions asked by the
// sync runs, from a terminal or from a prepared answers file.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Question keys
const (
	KeyMode    = "mode"
	KeyDate    = "date"
	KeyWeek    = "week"
	KeyConfirm = "confirm"
)

// ErrNoAnswer is returned when an input has no more answers for a question
var ErrNoAnswer = errors.New("no answer available")

// Question is a single prompt. Key identifies it for non-interactive inputs.
type Question struct {
	Key  string
	Text string
}

// Input answers questions
type Input interface {
	Ask(ctx context.Context, q Question) (string, error)
}

// Terminal reads answers line by line
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal prompts on out and reads from in
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) Ask(ctx context.Context, q Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(t.out, "? %s ", q.Text)

	line, err := t.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: %s", ErrNoAnswer, q.Key)
		}
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
