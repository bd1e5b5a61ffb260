// Package shell runs the interactive question loop on top of an Answerer.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/ricardonunez-io/lograg/internal/lines"
	"github.com/rs/zerolog/log"
)

// ExitCommand ends the loop, compared case-insensitively.
const ExitCommand = "exit"

// Answerer answers one question.
type Answerer interface {
	Answer(ctx context.Context, question string, k int) (string, error)
}

// Styles colors the prompt labels. The zero value prints plain text.
type Styles struct {
	User   lipgloss.Style
	System lipgloss.Style
	Error  lipgloss.Style
}

func ColorStyles() Styles {
	return Styles{
		User:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		System: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// StylesFor returns colored styles when out is a terminal.
func StylesFor(out io.Writer) Styles {
	if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return ColorStyles()
	}
	return Styles{}
}

type state int

const (
	prompting state = iota
	terminated
)

// Loop reads questions from In and writes answers to Out until the exit
// command, end of input, or ctx is done.
type Loop struct {
	In       io.Reader
	Out      io.Writer
	Answerer Answerer
	TopK     int
	Styles   Styles
	// Retryable marks failures worth asking again; optional.
	Retryable func(error) bool
	// MaxQuestionSize bounds one input line. Longer lines are reported and
	// skipped. Zero means lines.DefaultMaxSize.
	MaxQuestionSize int
}

func (l *Loop) Run(ctx context.Context) error {
	reader := lines.NewReader(l.In, l.MaxQuestionSize)

	fmt.Fprintln(l.Out, "Enter 'exit' to quit from prompt:")
	fmt.Fprint(l.Out, "Enter your name:")
	name, err := reader.Next()
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case errors.Is(err, lines.ErrTooLong):
		name = ""
	case err != nil:
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "user"
	}

	asked := 0
	var readErr error
	for st := prompting; st == prompting; {
		if ctx.Err() != nil {
			st = terminated
			continue
		}

		fmt.Fprintln(l.Out, "===")
		fmt.Fprint(l.Out, l.Styles.User.Render(name+":"))

		question, err := reader.Next()
		if errors.Is(err, lines.ErrTooLong) {
			log.Warn().Msg("Question exceeds the input limit")
			fmt.Fprintln(l.Out, l.Styles.Error.Render("Error: "+err.Error()))
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			fmt.Fprintln(l.Out)
			st = terminated
			continue
		}

		if strings.EqualFold(question, ExitCommand) {
			fmt.Fprintln(l.Out, "Exiting the program.")
			st = terminated
			continue
		}

		asked++
		answer, err := l.Answerer.Answer(ctx, question, l.TopK)
		if err != nil {
			log.Err(err).Str("question", question).Msg("Failed to answer question")
			fmt.Fprintln(l.Out, l.Styles.Error.Render(l.describe(err)))
			continue
		}

		fmt.Fprintln(l.Out, l.Styles.System.Render("\nRAG System:"))
		fmt.Fprintln(l.Out, answer)
	}

	log.Info().Int("questions", asked).Msg("Interactive session ended")
	return readErr
}

func (l *Loop) describe(err error) string {
	msg := "Error: " + err.Error()
	if l.Retryable != nil && l.Retryable(err) {
		msg += " (temporary, try again)"
	}
	return msg
}
