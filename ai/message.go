package ai

type MessageRole string

const (
	UserRole      MessageRole = "user"
	AssistantRole MessageRole = "assistant"
	ToolRole      MessageRole = "tool"
	SystemRole    MessageRole = "system"
)

// Message is a tagged union over conversation roles. Each variant carries
// only the fields valid for its role, so an invalid shape (e.g. a user
// message with tool calls) cannot be constructed.
type Message interface {
	Value() (role MessageRole, content string)
}

var (
	_ Message = SystemMessage{}
	_ Message = UserMessage{}
	_ Message = AIMessage{}
	_ Message = ToolMessage{}
)

// ToolCall is a single tool invocation requested by the model.
// Args holds the raw JSON argument payload exactly as the model emitted it;
// it is decoded at dispatch time, not here.
type ToolCall struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
	Args string `json:"args"`
}

// AIMessage is one assistant turn. ToolCalls is nil when the model produced
// plain text. A non-nil empty slice records that the provider returned an
// explicit empty batch; the agent loop treats that as a malformed response.
type AIMessage struct {
	Role      MessageRole
	Content   string
	ToolCalls []ToolCall
}

func (m AIMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}

type UserMessage struct {
	Role    MessageRole
	Content string
}

func (m UserMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}

// ToolMessage answers exactly one ToolCall, referenced by ToolCallID.
type ToolMessage struct {
	Role       MessageRole
	Content    string
	ToolCallID string
}

func (m ToolMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}

type SystemMessage struct {
	Role    MessageRole
	Content string
}

func (m SystemMessage) Value() (MessageRole, string) {
	return m.Role, m.Content
}
