package bot

import "strings"

// Fixed replies.
const (
	ReplyCatchAll     = "Dei uma engasgada técnica aqui. Pode reenviar?"
	ReplyUnmuted      = "_voltei a falar 😉_"
	ReplyMuted        = "_ok, fico em silêncio até /mute off_"
	ReplySetupUsage   = "⚠️ Use: /setup <sheetId|url> | <Nome do Projeto>"
	ReplyNeedLink     = "⚠️ Vincule o projeto: /setup <sheetId|url> | <Nome>"
	ReplyLinkFirst    = "⚠️ Vincule o projeto antes: /setup <sheetId|url> | <Nome>"
	ReplyUnlinked     = "✅ Projeto desvinculado deste grupo."
	ReplyNotLinked    = "⚠️ Nenhum projeto vinculado a este grupo."
	ReplyDriveFailed  = "❌ Não consegui salvar no Drive."
	ReplyNoteUsage    = "⚠️ Escreva a nota: /note <texto>"
	ReplyNoteFailed   = "❌ Não consegui registrar a nota agora."
	ReplyDocFailed    = "❌ Não consegui registrar o documento agora."
	ReplyRemindUsage  = "⚠️ Use: /remind <hh:mm> <texto>  (ou /remind now)"
	ReplyRemindFailed = "❌ Não consegui registrar o lembrete agora."
	ReplySheetFailed  = "❌ Não consegui ler a planilha."
	ReplyBriefFailed  = "❌ Não consegui gerar o resumo curto."
	ReplyNextFailed   = "❌ Não consegui obter os próximos itens."
	ReplyLateFailed   = "❌ Não consegui listar atrasadas."
	ReplyWhoFailed    = "❌ Não consegui listar os participantes."
	ReplyTTSDown      = "⚠️ TTS indisponível no momento."
	DefaultAudioText  = "Teste de voz da Alice em português do Brasil. Tudo certo por aqui!"
	summaryFooter     = "\n_Dica: @Alice resumo curto  •  /menu_"
	briefFooter       = "\n_Dica: @Alice resumo completo  •  /summary_"
	setupConfirmation = "✅ *Projeto vinculado!*\n• Planilha: %s\n• Nome: %s\n\n_Dica: /menu para o painel rápido_"
)

// Menu renders the quick panel for a project (or the generic one).
func Menu(project string) string {
	title := "🧭 *Assistente de Projeto* — Painel Rápido"
	if p := strings.TrimSpace(project); p != "" {
		title = "🧭 *" + p + "* — Painel Rápido"
	}
	return strings.Join([]string{
		title,
		"",
		"*1)* 📊 *Resumo*  →  /summary  |  /brief",
		"*2)* ⏭️ *Próximos*  →  /next",
		"*3)* ⏱️ *Atrasadas* →  /late",
		"*4)* 🔔 *Lembrete agora* →  /remind now",
		"*5)* 📝 *Nota rápida*  →  /note <texto>",
		"*6)* 👥 *Pessoas*      →  /who",
		"*7)* 🤫 *Silenciar*     →  /mute on   ( /mute off para voltar )",
		"",
		"_Dica: mencione-me naturalmente:_",
		"• @Alice o que vence hoje?",
		"• @Alice resumo curto",
		"• @Alice enviar lembrete agora",
	}, "\n")
}

// HelpCard is the longer how-to, sent when someone asks for help in words
// ("@Alice como funciona?"). Slash commands get the Menu.
func HelpCard(project string) string {
	title := "Assistente de Projeto"
	if p := strings.TrimSpace(project); p != "" {
		title = p + " — Assistente de Projeto"
	}
	return strings.Join([]string{
		"*" + title + "*",
		"",
		"*Como falar comigo*",
		"• No grupo: me mencione (ex.: @Alice) e fale natural.",
		"  Ex.: @Alice o que vence hoje?  •  @Alice resumo curto",
		"",
		"*Atalhos*",
		"• /menu — painel rápido",
		"• /summary — resumo completo",
		"• /brief — resumo curto",
		"• /next — próximos (hoje/amanhã)",
		"• /late — atrasadas (top 8)",
		"• /remind now — dispara lembrete agora",
		"• /remind <hh:mm> <texto> — anota um lembrete",
		"• /note <texto> — registra nota",
		"• /doc <texto ou link> — registra um documento",
		"• /who — quem está no projeto",
		"• /mute on | /mute off — silencia/volta a falar",
		"• /setup <planilha> | <nome> — vincula o projeto",
		"• /unlink — desvincula o projeto",
		"",
		"_Dica: envie anexos me mencionando; eu salvo no Drive do projeto._",
	}, "\n")
}

// Intro is the private-chat presentation card.
func Intro() string {
	return strings.Join([]string{
		"*Olá! Eu sou a Alice 🤖✨*",
		"Sou a assistente da *BRYNIX* para apoiar projetos.",
		"• No *1:1* eu tiro dúvidas sobre a BRYNIX (ofertas, metodologia, cases).",
		"• Em *grupos de projeto* eu ajudo com tarefas, lembretes, status, documentos e rotinas.",
		"",
		"_Dica: no grupo, mencione-me com @Alice ou use /menu para ver atalhos._",
	}, "\n")
}
