// Package secrets keeps credentials in the OS keyring so they do not have to
// live in env files.
package secrets

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name entries are stored under.
const DefaultService = "brynixbot"

// ErrNotFound is returned when no entry exists for a name.
var ErrNotFound = errors.New("secrets: not found")

// Names lists the variables that may be stored in the keyring.
var Names = []string{
	"OPENAI_API_KEY",
	"GOOGLE_SA_JSON",
	"GOOGLE_OAUTH_CLIENT_SECRET",
	"GOOGLE_OAUTH_REFRESH_TOKEN",
	"GATEWAY_AUTH_TOKEN",
	"SLACK_WEBHOOK_URL",
	"KAFKA_PASSWORD",
}

// Store reads and writes named secrets.
type Store interface {
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
}

// Keyring is a Store backed by the OS keyring.
type Keyring struct {
	service string
}

// NewKeyring returns a keyring store. An empty service uses DefaultService.
func NewKeyring(service string) *Keyring {
	if service == "" {
		service = DefaultService
	}
	return &Keyring{service: service}
}

func (k *Keyring) Get(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	v, err := keyring.Get(k.service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return v, err
}

func (k *Keyring) Set(name, value string) error {
	if err := validName(name); err != nil {
		return err
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("secrets: empty value for %s", name)
	}
	return keyring.Set(k.service, name, value)
}

func (k *Keyring) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	err := keyring.Delete(k.service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func validName(name string) error {
	for _, n := range Names {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("secrets: unknown name %q (known: %s)", name, strings.Join(Names, ", "))
}

// Fill sets every empty target from the store. Missing entries are skipped;
// the names that were filled are returned sorted.
func Fill(s Store, targets map[string]*string) ([]string, error) {
	var filled []string
	for name, dst := range targets {
		if dst == nil || *dst != "" {
			continue
		}
		v, err := s.Get(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return filled, fmt.Errorf("keyring %s: %w", name, err)
		}
		*dst = v
		filled = append(filled, name)
	}
	sort.Strings(filled)
	return filled, nil
}
