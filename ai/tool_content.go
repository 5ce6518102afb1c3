package ai

type ToolContent struct {
	Type    string
	Content any
}

type ToolResult struct {
	Content []ToolContent
	Error   bool
}

// Text flattens the textual parts of the result into a single string.
func (r *ToolResult) Text() string {
	var out string
	for _, c := range r.Content {
		if c.Type == "text" {
			if s, ok := c.Content.(string); ok {
				out += s
			}
		}
	}
	return out
}
