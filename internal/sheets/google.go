package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/brynix/brynixbot/internal/tasks"
)

// GoogleReader talks to the Sheets v4 API with a service account.
type GoogleReader struct {
	svc *gsheets.Service
}

// NewGoogleReader builds a client from the service-account JSON. Extra
// options (endpoint, HTTP client) are appended, which tests use to point at
// an httptest server.
func NewGoogleReader(ctx context.Context, serviceAccountJSON string, opts ...option.ClientOption) (*GoogleReader, error) {
	base := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	if serviceAccountJSON != "" {
		creds, err := ServiceAccountJSON(serviceAccountJSON)
		if err != nil {
			return nil, err
		}
		base = append(base, option.WithCredentialsJSON(creds))
	}
	svc, err := gsheets.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &GoogleReader{svc: svc}, nil
}

// ServiceAccountJSON validates the credential blob. Values pasted into env
// dashboards often carry raw newlines inside the private key; those are
// escaped before giving up.
func ServiceAccountJSON(raw string) ([]byte, error) {
	b := []byte(raw)
	if json.Valid(b) {
		return b, nil
	}
	fixed := bytes.ReplaceAll(b, []byte("\n"), []byte(`\n`))
	if json.Valid(fixed) {
		return fixed, nil
	}
	return nil, errors.New("sheets: GOOGLE_SA_JSON is not valid JSON")
}

func (g *GoogleReader) values(ctx context.Context, sheetID, rng string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(sheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return stringRows(resp.Values), nil
}

func (g *GoogleReader) ReadMeta(ctx context.Context, sheetID string) (Meta, error) {
	rows, err := g.values(ctx, sheetID, MetaRange)
	if err != nil {
		return nil, err
	}
	return ParseMeta(rows), nil
}

func (g *GoogleReader) ReadTasks(ctx context.Context, sheetID string) ([]tasks.Task, error) {
	rows, err := g.values(ctx, sheetID, TasksRange)
	if err != nil {
		return nil, err
	}
	return ParseTasks(rows), nil
}

func (g *GoogleReader) ReadResources(ctx context.Context, sheetID string) ([]string, error) {
	rows, err := g.values(ctx, sheetID, ResourcesRange)
	if err != nil {
		return nil, err
	}
	return ParseResources(rows), nil
}

func (g *GoogleReader) AppendLogRow(ctx context.Context, sheetID string, row LogRow) error {
	vals := row.Values()
	cells := make([]interface{}, len(vals))
	for i, v := range vals {
		cells[i] = v
	}
	_, err := g.svc.Spreadsheets.Values.
		Append(sheetID, LogRange, &gsheets.ValueRange{Values: [][]interface{}{cells}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append log row: %w", err)
	}
	return nil
}
