package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAnswerer struct {
	questions []string
	ks        []int
	answers   map[string]string
	errs      map[string]error
	onAnswer  func()
}

func (r *recordingAnswerer) Answer(_ context.Context, question string, k int) (string, error) {
	r.questions = append(r.questions, question)
	r.ks = append(r.ks, k)
	if r.onAnswer != nil {
		r.onAnswer()
	}
	if err := r.errs[question]; err != nil {
		return "", err
	}
	if a, ok := r.answers[question]; ok {
		return a, nil
	}
	return "answer to " + question, nil
}

func run(t *testing.T, input string, a *recordingAnswerer) string {
	t.Helper()
	var out bytes.Buffer
	l := &Loop{In: strings.NewReader(input), Out: &out, Answerer: a, TopK: 5}
	require.NoError(t, l.Run(context.Background()))
	return out.String()
}

func TestLoop_HelloThenExit(t *testing.T) {
	a := &recordingAnswerer{}
	out := run(t, "sam\nhello\nexit\n", a)

	assert.Equal(t, []string{"hello"}, a.questions)
	assert.Equal(t, []int{5}, a.ks)
	assert.Contains(t, out, "sam:")
	assert.Contains(t, out, "RAG System:")
	assert.Contains(t, out, "answer to hello")
	assert.Contains(t, out, "Exiting the program.")
}

func TestLoop_ExitIsCaseInsensitive(t *testing.T) {
	for _, cmd := range []string{"exit", "EXIT", "Exit", "eXiT"} {
		a := &recordingAnswerer{}
		run(t, "sam\n"+cmd+"\nnever asked\n", a)
		assert.Empty(t, a.questions, cmd)
	}
}

func TestLoop_ExitMustMatchWholeLine(t *testing.T) {
	a := &recordingAnswerer{}
	run(t, "sam\nexit now\n exit\nexit\n", a)
	assert.Equal(t, []string{"exit now", " exit"}, a.questions)
}

func TestLoop_FailureIsReportedAndLoopContinues(t *testing.T) {
	boom := errors.New("answer generation failed: 503")
	a := &recordingAnswerer{errs: map[string]error{"first": boom}}

	var out bytes.Buffer
	l := &Loop{
		In:        strings.NewReader("sam\nfirst\nsecond\nexit\n"),
		Out:       &out,
		Answerer:  a,
		Retryable: func(err error) bool { return errors.Is(err, boom) },
	}
	require.NoError(t, l.Run(context.Background()))

	assert.Equal(t, []string{"first", "second"}, a.questions)
	assert.Contains(t, out.String(), "Error: answer generation failed: 503 (temporary, try again)")
	assert.Contains(t, out.String(), "answer to second")
}

func TestLoop_LongPastedQuestionIsAnswered(t *testing.T) {
	long := strings.Repeat("q", 70000)
	a := &recordingAnswerer{}
	out := run(t, "sam\n"+long+"\nhello\nexit\n", a)
	assert.Equal(t, []string{long, "hello"}, a.questions)
	assert.Contains(t, out, "answer to hello")
}

func TestLoop_MaxQuestionSize(t *testing.T) {
	a := &recordingAnswerer{}
	var out bytes.Buffer
	l := &Loop{
		In:              strings.NewReader("sam\nthis question is too long\nshort\nexit\n"),
		Out:             &out,
		Answerer:        a,
		MaxQuestionSize: 8,
	}
	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, []string{"short"}, a.questions)
	assert.Contains(t, out.String(), "Error: line too long")
	assert.Contains(t, out.String(), "answer to short")
}

func TestLoop_EOFTerminates(t *testing.T) {
	a := &recordingAnswerer{}
	run(t, "sam\nq1\nq2", a)
	assert.Equal(t, []string{"q1", "q2"}, a.questions)
}

func TestLoop_EOFBeforeName(t *testing.T) {
	a := &recordingAnswerer{}
	out := run(t, "", a)
	assert.Empty(t, a.questions)
	assert.Contains(t, out, "Enter your name:")
}

func TestLoop_EmptyNameDefaults(t *testing.T) {
	out := run(t, "\nexit\n", &recordingAnswerer{})
	assert.Contains(t, out, "user:")
}

func TestLoop_CancelledContextStopsBeforeNextQuery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &recordingAnswerer{onAnswer: cancel}

	var out bytes.Buffer
	l := &Loop{In: strings.NewReader("sam\nq1\nq2\nq3\n"), Out: &out, Answerer: a}
	require.NoError(t, l.Run(ctx))

	assert.Equal(t, []string{"q1"}, a.questions)
}

func TestStylesFor_NonTerminal(t *testing.T) {
	s := StylesFor(&bytes.Buffer{})
	assert.Equal(t, "plain", s.User.Render("plain"))
}
