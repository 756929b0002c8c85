package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_DefaultModel(t *testing.T) {
	assert.Equal(t, "gpt-4o-mini", NewOpenAIProvider("k", "", "").DefaultModel())
	assert.Equal(t, "gpt-4o", NewOpenAIProvider("k", "", "gpt-4o").DefaultModel())
}

func TestOpenAIProvider_Chat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{Message: Message{Role: "assistant", Content: "Olá!"}, FinishReason: "stop"}},
			Usage:   Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL+"/", "test-model")
	resp, err := p.Chat(context.Background(), &ChatRequest{
		Messages:    []Message{{Role: "user", Content: "Oi"}},
		MaxTokens:   100,
		Temperature: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Olá!", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "test-model", got["model"])
	assert.EqualValues(t, 100, got["max_tokens"])
}

func TestOpenAIProvider_ChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":"slow down"}`)
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider("k", srv.URL, "").Chat(context.Background(), &ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestOpenAIProvider_NoKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "", "").Chat(context.Background(), &ChatRequest{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
	_, err = NewOpenAIProvider("", "", "").Speak(context.Background(), &TTSRequest{Text: "x"})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestOpenAIProvider_Speak(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte("OggS-audio"))
	}))
	defer srv.Close()

	resp, err := NewOpenAIProvider("k", srv.URL, "").WithTTSModel("tts-1-hd").Speak(context.Background(), &TTSRequest{Text: "Bom dia"})
	require.NoError(t, err)
	assert.Equal(t, []byte("OggS-audio"), resp.AudioData)
	assert.Equal(t, "opus", resp.Format)
	assert.Equal(t, "nova", got["voice"])
	assert.Equal(t, "tts-1-hd", got["model"])
	assert.Equal(t, "Bom dia", got["input"])
}

type stubChat struct {
	req  *ChatRequest
	resp *ChatResponse
	err  error
}

func (s *stubChat) Chat(_ context.Context, req *ChatRequest) (*ChatResponse, error) {
	s.req = req
	return s.resp, s.err
}

func (s *stubChat) DefaultModel() string { return "stub" }

func TestReplyGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("answer is trimmed", func(t *testing.T) {
		chat := &stubChat{resp: &ChatResponse{Content: "  Claro!  \n"}}
		g := NewReplyGenerator(chat, "gpt-4o-mini", zerolog.Nop())
		assert.Equal(t, "Claro!", g.GenerateReply(ctx, "me ajuda?", ReplyContext{DisplayName: "Ana"}))

		require.Len(t, chat.req.Messages, 2)
		assert.Equal(t, SystemPrompt, chat.req.Messages[0].Content)
		assert.Equal(t, `Mensagem de Ana: "me ajuda?"`, chat.req.Messages[1].Content)
		assert.Equal(t, 0.5, chat.req.Temperature)
		assert.Equal(t, 550, chat.req.MaxTokens)
	})

	t.Run("error becomes apology", func(t *testing.T) {
		g := NewReplyGenerator(&stubChat{err: errors.New("boom")}, "", zerolog.Nop())
		assert.Equal(t, ReplyOnError, g.GenerateReply(ctx, "oi", ReplyContext{}))
	})

	t.Run("empty answer asks for context", func(t *testing.T) {
		g := NewReplyGenerator(&stubChat{resp: &ChatResponse{Content: " "}}, "", zerolog.Nop())
		assert.Equal(t, ReplyOnEmpty, g.GenerateReply(ctx, "oi", ReplyContext{}))
	})
}

func TestUserPromptFallsBackToSender(t *testing.T) {
	assert.Equal(t, `Mensagem de 5511: "x"`, UserPrompt("x", ReplyContext{SenderID: "5511"}))
	assert.Equal(t, `Mensagem de usuário: "x"`, UserPrompt("x", ReplyContext{}))
}
