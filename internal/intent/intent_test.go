package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Result
	}{
		{"mute off slash", "/mute off", Result{Tag: MuteOff}},
		{"mute off phrase", "Alice, pode voltar a falar", Result{Tag: MuteOff}},
		{"silencio off accent", "/silêncio off", Result{Tag: MuteOff}},
		{"mute on slash", "/mute on", Result{Tag: MuteOn}},
		{"mute on phrase", "@Alice fica em silêncio", Result{Tag: MuteOn}},
		{"menu", "/menu", Result{Tag: Help}},
		{"ajuda phrase", "preciso de ajuda", Result{Tag: Help}},
		{"brief slash", "/brief", Result{Tag: SummaryBrief}},
		{"brief phrase", "@Alice resumo rápido", Result{Tag: SummaryBrief}},
		{"summary slash", "/summary", Result{Tag: Summary}},
		{"summary full phrase", "manda o relatório completo", Result{Tag: Summary}},
		{"summary generic", "como estamos?", Result{Tag: Summary}},
		{"next slash", "/next", Result{Tag: Next}},
		{"next phrase", "o que vence amanhã?", Result{Tag: Next}},
		{"late slash", "/late", Result{Tag: Late}},
		{"late phrase", "tem tarefa em atraso?", Result{Tag: Late}},
		{"remind slash", "/remind now", Result{Tag: RemindNow}},
		{"remind phrase", "@Alice enviar lembrete agora", Result{Tag: RemindNow}},
		{"remind at slash", "/remind 10:00 Reunião com fornecedores", Result{Tag: Remind, Arg: "10:00 Reunião com fornecedores"}},
		{"remind at empty", "/remind", Result{Tag: Remind}},
		{"remind at phrase", "alice, me lembra às 15:00 de ligar pro cliente", Result{Tag: Remind, Arg: "às 15:00 de ligar pro cliente"}},
		{"doc slash", "/doc Ata de Reunião 21/09", Result{Tag: Doc, Arg: "Ata de Reunião 21/09"}},
		{"doc phrase", "segue a apresentação do sprint", Result{Tag: Doc, Arg: "segue a apresentação do sprint"}},
		{"note slash", "/note Reunião remarcada", Result{Tag: Note, Arg: "Reunião remarcada"}},
		{"note slash empty", "/note", Result{Tag: Note}},
		{"note slash blank", "/note    ", Result{Tag: Note}},
		{"note phrase", "alice anotar: validação concluída", Result{Tag: Note, Arg: "validação concluída"}},
		{"who slash", "/who", Result{Tag: Who}},
		{"who phrase", "quem está no projeto?", Result{Tag: Who}},
		{"nothing", "bom dia pessoal", Result{}},
		{"empty", "   ", Result{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	// mute-off outranks mute-on when both phrases appear.
	assert.Equal(t, MuteOff, Classify("chega de ficar em silencio, pode voltar a falar").Tag)
	// brief outranks the generic summary keyword.
	assert.Equal(t, SummaryBrief, Classify("status: resumo curto").Tag)
	// next outranks late in natural phrasing.
	assert.Equal(t, Next, Classify("atrasadas de hoje").Tag)
	// slash commands are checked before any phrase.
	assert.Equal(t, Note, Classify("/note preciso de ajuda com o resumo").Tag)
	assert.Equal(t, "preciso de ajuda com o resumo", Classify("/note preciso de ajuda com o resumo").Arg)
}

func TestRemindNowOutranksRemind(t *testing.T) {
	assert.Equal(t, RemindNow, Classify("/remind now").Tag)
	assert.Equal(t, RemindNow, Classify("/remind NOW por favor").Tag)
	assert.Equal(t, Remind, Classify("/remind nowhere 10:00").Tag)
	assert.Equal(t, RemindNow, Classify("mandar lembrete agora").Tag)
}

func TestSlashNeedsWordBoundary(t *testing.T) {
	assert.Equal(t, None, Classify("/notebook").Tag)
	assert.Equal(t, None, Classify("/docs").Tag)
	assert.Equal(t, None, Classify("/whoami").Tag)
}

func TestCustomTable(t *testing.T) {
	c := New([]Rule{{Tag: Who, Phrase: Rules()[len(Rules())-1].Phrase}})
	assert.Equal(t, Who, c.Classify("participantes").Tag)
	assert.Equal(t, None, c.Classify("/summary").Tag)
}

func TestMuteTags(t *testing.T) {
	assert.Equal(t, MuteOff, Classify("/mute off").Tag)
	assert.Equal(t, MuteOff, Classify("pode desmutar").Tag)
	assert.Equal(t, MuteOn, Classify("/mute on").Tag)
	assert.Equal(t, MuteOn, Classify("vou ficar em silencio").Tag)
}
