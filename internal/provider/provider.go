// Package provider implements the LLM chat and speech clients the bot talks to.
package provider

import (
	"context"
	"errors"
)

// ErrNoAPIKey is returned when a provider is used without credentials.
var ErrNoAPIKey = errors.New("provider: missing API key")

// Chatter is the chat-completion half of an LLM provider.
type Chatter interface {
	// Chat sends a completion request and returns the response.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	// DefaultModel returns the configured default model.
	DefaultModel() string
}

// Speaker converts text to audio.
type Speaker interface {
	Speak(ctx context.Context, req *TTSRequest) (*TTSResponse, error)
}

// TTSRequest contains parameters for speech synthesis.
type TTSRequest struct {
	Text  string
	Voice string
	Speed float64
}

// TTSResponse contains the synthesized audio.
type TTSResponse struct {
	AudioData []byte
	Format    string
	MimeType  string
}

// ChatRequest contains the parameters for a chat completion request.
type ChatRequest struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float64
}

// ChatResponse contains the response from a chat completion request.
type ChatResponse struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage contains token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
