package textnorm

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Concluída ", "concluida"},
		{"Data de Término", "data de termino"},
		{"OBSERVAÇÕES", "observacoes"},
		{"amanhã", "amanha"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripAccentsKeepsCase(t *testing.T) {
	if got := StripAccents("Próximos Ações"); got != "Proximos Acoes" {
		t.Fatalf("got %q", got)
	}
}

func TestEqualFold(t *testing.T) {
	if !EqualFold("Responsável", "responsavel") {
		t.Fatal("expected accent-insensitive match")
	}
	if EqualFold("status", "marco") {
		t.Fatal("unexpected match")
	}
}
