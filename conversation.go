package dexagent

import (
	"github.com/pokedex-pro/dexagent/ai"
)

// Conversation is the ordered message history for one chat session. It is
// owned by the caller; the agent loop only appends, never reorders or
// deletes. Not safe for concurrent use — a conversation belongs to exactly
// one loop at a time.
type Conversation struct {
	messages []ai.Message
}

// NewConversation seeds a conversation with the system prompt as its first
// message. The system message survives everything except Reset.
func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{
		messages: []ai.Message{
			ai.SystemMessage{Role: ai.SystemRole, Content: systemPrompt},
		},
	}
}

// Messages returns the underlying slice in order. Callers must not mutate it.
func (c *Conversation) Messages() []ai.Message {
	return c.messages
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

func (c *Conversation) AddUserMessage(content string) {
	c.messages = append(c.messages, ai.UserMessage{Role: ai.UserRole, Content: content})
}

func (c *Conversation) AddAssistantMessage(content string) {
	c.messages = append(c.messages, ai.AIMessage{Role: ai.AssistantRole, Content: content})
}

func (c *Conversation) append(msg ai.Message) {
	c.messages = append(c.messages, msg)
}

// Reset drops everything but the leading system message, if present.
func (c *Conversation) Reset() {
	if len(c.messages) > 0 {
		if _, ok := c.messages[0].(ai.SystemMessage); ok {
			c.messages = c.messages[:1]
			return
		}
	}
	c.messages = nil
}
