// Package gateway serves the bot's small HTTP surface: liveness, pairing QR,
// connection status and an operator send endpoint.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"github.com/brynix/brynixbot/internal/whatsapp"
)

// Texts served by the gateway.
const (
	RootText  = "BRYNIX WhatsApp Bot up ✅"
	NoQRText  = "QR ainda não gerado. Aguarde e recarregue."
	qrPNGSize = 512
)

// Connection is the view of the WhatsApp supervisor the gateway needs.
type Connection interface {
	QR() string
	Status() string
	Health() whatsapp.Health
	SendText(ctx context.Context, chatID, text string) error
}

// Options configures the server.
type Options struct {
	Conn      Connection
	AuthToken string // required as a Bearer token on /wa-send when set
	Log       zerolog.Logger
}

// Server is the HTTP gateway.
type Server struct {
	conn  Connection
	token string
	log   zerolog.Logger
	mux   *http.ServeMux
}

// New builds the server and its routes.
func New(opts Options) *Server {
	s := &Server{conn: opts.Conn, token: opts.AuthToken, log: opts.Log, mux: http.NewServeMux()}
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/wa-qr", s.handleQR)
	s.mux.HandleFunc("/wa-status", s.handleStatus)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/wa-send", s.handleSend)
	return s
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http gateway listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http gateway: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, RootText)
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	code := s.conn.QR()
	if code == "" {
		http.Error(w, NoQRText, http.StatusServiceUnavailable)
		return
	}
	png, err := qrcode.Encode(code, qrcode.Medium, qrPNGSize)
	if err != nil {
		s.log.Error().Err(err).Msg("qr render failed")
		http.Error(w, "falha ao gerar QR", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": s.conn.Status()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h := s.conn.Health()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h == whatsapp.HealthConnected || h == whatsapp.HealthOpening {
		fmt.Fprint(w, "ok")
		return
	}
	state := string(h)
	if state == "" {
		state = "null"
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	fmt.Fprintf(w, "state=%s", state)
}

type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.token != "" {
		token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if token != s.token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}
	var req sendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid json"})
		return
	}
	to := NormalizeRecipient(req.To)
	if to == "" || strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "to and text are required"})
		return
	}
	if err := s.conn.SendText(r.Context(), to, req.Text); err != nil {
		s.log.Error().Err(err).Str("to", to).Msg("wa-send failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	s.log.Info().Str("to", to).Msg("wa-send delivered")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "to": to})
}

// NormalizeRecipient turns "+55 (11) 98888-7777" into a user JID. Values that
// already carry a server part are returned trimmed.
func NormalizeRecipient(to string) string {
	to = strings.TrimSpace(to)
	if to == "" || strings.Contains(to, "@") {
		return to
	}
	var b strings.Builder
	for _, r := range to {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return b.String() + "@s.whatsapp.net"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
