package domain

// Message is one turn of a completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions bound a completion call.
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}
