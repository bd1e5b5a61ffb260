package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ricardonunez-io/lograg/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	responses []*anthropic.Message
	errs      []error
	params    []anthropic.MessageNewParams
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	i := len(f.params)
	f.params = append(f.params, body)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func textMessage(text string) *anthropic.Message {
	return &anthropic.Message{Content: []anthropic.ContentBlockUnion{{Type: "text", Text: text}}}
}

func testGenerator(f *fakeMessages) *AnthropicGenerator {
	cfg := DefaultConfig("key")
	cfg.Retry = retry.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1}
	return &AnthropicGenerator{messages: f, cfg: cfg}
}

func TestAnthropicGenerator_Complete(t *testing.T) {
	f := &fakeMessages{responses: []*anthropic.Message{textMessage("sshd failed 3 times")}}
	g := testGenerator(f)

	answer, err := g.Complete(context.Background(), BuildConversation("q", []string{"a"}))
	require.NoError(t, err)
	assert.Equal(t, "sshd failed 3 times", answer)

	require.Len(t, f.params, 1)
	p := f.params[0]
	assert.Equal(t, anthropic.Model("claude-sonnet-4-5"), p.Model)
	assert.Equal(t, int64(2048), p.MaxTokens)
	require.Len(t, p.System, 1)
	assert.Equal(t, systemPrompt, p.System[0].Text)
	require.Len(t, p.Messages, 1)
	assert.Equal(t, anthropic.MessageParamRoleUser, p.Messages[0].Role)
	require.NotNil(t, p.Messages[0].Content[0].OfText)
	assert.Equal(t, "Query: q. \nLog Entries: a", p.Messages[0].Content[0].OfText.Text)
}

func TestAnthropicGenerator_SkipsNonTextBlocks(t *testing.T) {
	msg := &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "thinking"},
		{Type: "text", Text: "answer"},
	}}
	g := testGenerator(&fakeMessages{responses: []*anthropic.Message{msg}})

	answer, err := g.Complete(context.Background(), BuildConversation("q", nil))
	require.NoError(t, err)
	assert.Equal(t, "answer", answer)
}

func TestAnthropicGenerator_EmptyResponse(t *testing.T) {
	g := testGenerator(&fakeMessages{responses: []*anthropic.Message{{}}})

	_, err := g.Complete(context.Background(), BuildConversation("q", nil))
	assert.Error(t, err)
}

func TestAnthropicGenerator_RetriesTransientErrors(t *testing.T) {
	f := &fakeMessages{
		errs:      []error{errors.New("529 overloaded"), errors.New("429 rate limited")},
		responses: []*anthropic.Message{nil, nil, textMessage("finally")},
	}
	g := testGenerator(f)

	answer, err := g.Complete(context.Background(), BuildConversation("q", nil))
	require.NoError(t, err)
	assert.Equal(t, "finally", answer)
	assert.Len(t, f.params, 3)
}

func TestAnthropicGenerator_PermanentErrorNotRetried(t *testing.T) {
	f := &fakeMessages{errs: []error{errors.New("401 invalid x-api-key")}, responses: []*anthropic.Message{textMessage("unused")}}
	g := testGenerator(f)

	_, err := g.Complete(context.Background(), BuildConversation("q", nil))
	assert.Error(t, err)
	assert.Len(t, f.params, 1)
}

func TestAnthropicGenerator_NoUserTurn(t *testing.T) {
	g := testGenerator(&fakeMessages{responses: []*anthropic.Message{textMessage("x")}})

	_, err := g.Complete(context.Background(), Conversation{System: "only system"})
	assert.Error(t, err)
}

func TestNewAnthropicGenerator_RequiresKey(t *testing.T) {
	_, err := NewAnthropicGenerator(DefaultConfig(""))
	assert.Error(t, err)
}
