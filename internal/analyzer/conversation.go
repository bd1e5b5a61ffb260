package analyzer

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role
	Content string
}

// Conversation is a single generation request. It is built per question and
// never reused.
type Conversation struct {
	System   string
	Messages []Message
}

// BuildConversation assembles the fixed log-analyst instruction and a user
// turn carrying the question and the retrieved log bodies.
func BuildConversation(question string, documents []string) Conversation {
	information := strings.Join(documents, documentSeparator)
	return Conversation{
		System: systemPrompt,
		Messages: []Message{
			{Role: RoleUser, Content: fmt.Sprintf(userTemplate, question, information)},
		},
	}
}

// Turns returns the conversation as role-tagged messages, system first.
func (c Conversation) Turns() []Message {
	out := make([]Message, 0, len(c.Messages)+1)
	out = append(out, Message{Role: RoleSystem, Content: c.System})
	return append(out, c.Messages...)
}
