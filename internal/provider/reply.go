package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// SystemPrompt is the BRYNIX assistant persona used in private chats.
const SystemPrompt = `Você é o **Assistente BRYNIX**.

Estilo: executivo, claro, cordial, com leve humor.
Regra de ouro: sempre que possível, traga utilidade prática (próximos passos, checklist,
sugestões objetivas). Evite respostas longas demais se não agregarem valor.

Escopo prioridade: BRYNIX (empresa, ofertas, automações, projetos, metodologia, exemplos),
organização de atividades de projeto e comunicação com cliente.
Se a pergunta estiver claramente fora desse escopo (ex.: cultura pop antiga, curiosidades aleatórias),
redirecione com elegância: explique que o foco é BRYNIX e projetos, e faça uma ponte útil.`

// Fallback replies.
const (
	ReplyOnError = "Tive um problema técnico com a IA agora há pouco. Pode reenviar sua mensagem?"
	ReplyOnEmpty = "Certo! Consegue me dar um pouco mais de contexto para eu te ajudar melhor?"
)

// ReplyContext identifies who is talking.
type ReplyContext struct {
	SenderID    string
	DisplayName string
}

// Replier produces the private-chat answer. It never fails: errors turn
// into an apology string.
type Replier interface {
	GenerateReply(ctx context.Context, text string, rc ReplyContext) string
}

// ReplyGenerator wraps a Chatter with the persona and sampling settings.
type ReplyGenerator struct {
	chat        Chatter
	model       string
	temperature float64
	maxTokens   int
	log         zerolog.Logger
}

// NewReplyGenerator returns a generator with temperature 0.5 and 550 max tokens.
func NewReplyGenerator(chat Chatter, model string, log zerolog.Logger) *ReplyGenerator {
	return &ReplyGenerator{
		chat:        chat,
		model:       model,
		temperature: 0.5,
		maxTokens:   550,
		log:         log,
	}
}

// UserPrompt frames the incoming text with the sender's name.
func UserPrompt(text string, rc ReplyContext) string {
	who := rc.DisplayName
	if who == "" {
		who = rc.SenderID
	}
	if who == "" {
		who = "usuário"
	}
	return fmt.Sprintf("Mensagem de %s: %q", who, text)
}

// GenerateReply asks the model for an answer.
func (g *ReplyGenerator) GenerateReply(ctx context.Context, text string, rc ReplyContext) string {
	resp, err := g.chat.Chat(ctx, &ChatRequest{
		Model: g.model,
		Messages: []Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: UserPrompt(text, rc)},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		g.log.Error().Err(err).Str("sender", rc.SenderID).Msg("reply generation failed")
		return ReplyOnError
	}
	out := strings.TrimSpace(resp.Content)
	if out == "" {
		return ReplyOnEmpty
	}
	return out
}
