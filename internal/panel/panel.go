package panel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/pixil98/go-quest/internal/display"
	"github.com/pixil98/go-quest/internal/game"
)

var (
	// ErrClosed means the player's input ended while the panel waited.
	ErrClosed = errors.New("input closed")
	// ErrQuit means the player asked to leave while the panel waited.
	ErrQuit = errors.New("player quit")
)

// Panel shows one question at a time and waits for the player's selection.
// It keeps no state between invocations.
type Panel struct {
	out   io.Writer
	lines <-chan string
}

func New(out io.Writer, lines <-chan string) *Panel {
	return &Panel{out: out, lines: lines}
}

// Ask renders q and blocks until the player picks a valid selection.
// Indices are zero-based and ascending.
func (p *Panel) Ask(ctx context.Context, q game.Question) ([]int, error) {
	if err := p.render(q); err != nil {
		return nil, err
	}

	for {
		line, err := p.next(ctx)
		if err != nil {
			return nil, err
		}

		sel, err := ParseSelection(line, len(q.Options), q.Multiple)
		if err != nil {
			if err := p.writef("%s\n%s", err, promptFor(q)); err != nil {
				return nil, err
			}
			continue
		}
		return sel, nil
	}
}

// Acknowledge shows msg and blocks until the player presses enter. Typing
// quit returns ErrQuit.
func (p *Panel) Acknowledge(ctx context.Context, msg string) error {
	if err := p.writef("%s\n[press enter to continue] ", display.Wrap(msg)); err != nil {
		return err
	}
	_, err := p.next(ctx)
	return err
}

// ParseSelection turns player input into distinct zero-based option
// indices. Choices are 1-based numbers separated by commas or spaces.
func ParseSelection(input string, options int, multiple bool) ([]int, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("Pick an answer.")
	}
	if !multiple && len(fields) > 1 {
		return nil, fmt.Errorf("Pick exactly one answer.")
	}

	sel := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > options {
			return nil, fmt.Errorf("%q is not a choice between 1 and %d.", f, options)
		}
		if slices.Contains(sel, n-1) {
			continue
		}
		sel = append(sel, n-1)
	}
	slices.Sort(sel)
	return sel, nil
}

func (p *Panel) render(q game.Question) error {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(display.Wrap(q.Prompt))
	sb.WriteString("\n")
	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "  %d) %s\n", i+1, opt)
	}
	sb.WriteString(promptFor(q))
	return p.writef("%s", sb.String())
}

func (p *Panel) next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return "", ErrClosed
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "quit") {
			return "", ErrQuit
		}
		return line, nil
	}
}

func (p *Panel) writef(format string, args ...any) error {
	_, err := fmt.Fprintf(p.out, format, args...)
	return err
}

func promptFor(q game.Question) string {
	if q.Multiple {
		return "Choose one or more (e.g. 1,3): "
	}
	return fmt.Sprintf("Choose one (1-%d): ", len(q.Options))
}
