package drive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMime = "application/vnd.google-apps.folder"

// OAuthConfig carries the refresh-token credentials and the root folder.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	RedirectURL  string
	RootFolderID string
}

// Missing names the unset settings.
func (c OAuthConfig) Missing() []string {
	var out []string
	if c.ClientID == "" {
		out = append(out, "GOOGLE_OAUTH_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		out = append(out, "GOOGLE_OAUTH_CLIENT_SECRET")
	}
	if c.RefreshToken == "" {
		out = append(out, "GOOGLE_OAUTH_REFRESH_TOKEN")
	}
	if c.RootFolderID == "" {
		out = append(out, "GOOGLE_DRIVE_ROOT_FOLDER_ID")
	}
	return out
}

// GoogleUploader stores files with the Drive v3 API.
type GoogleUploader struct {
	svc    *gdrive.Service
	rootID string
	now    func() time.Time
}

// NewGoogleUploader builds an uploader from OAuth refresh-token credentials.
func NewGoogleUploader(ctx context.Context, cfg OAuthConfig) (*GoogleUploader, error) {
	if missing := cfg.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gdrive.DriveScope},
	}
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	return NewGoogleUploaderWithOptions(ctx, cfg.RootFolderID, option.WithTokenSource(ts))
}

// NewGoogleUploaderWithOptions builds an uploader with explicit client options.
func NewGoogleUploaderWithOptions(ctx context.Context, rootFolderID string, opts ...option.ClientOption) (*GoogleUploader, error) {
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}
	return &GoogleUploader{svc: svc, rootID: rootFolderID, now: time.Now}, nil
}

func quoteQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func (g *GoogleUploader) findFolder(ctx context.Context, name, parentID string) (string, error) {
	q := []string{
		"mimeType='" + folderMime + "'",
		"name='" + quoteQuery(name) + "'",
		"trashed=false",
	}
	if parentID != "" {
		q = append(q, "'"+quoteQuery(parentID)+"' in parents")
	}
	res, err := g.svc.Files.List().
		Q(strings.Join(q, " and ")).
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("list folder %q: %w", name, err)
	}
	if len(res.Files) == 0 {
		return "", nil
	}
	return res.Files[0].Id, nil
}

func (g *GoogleUploader) ensureFolder(ctx context.Context, name, parentID string) (string, error) {
	id, err := g.findFolder(ctx, name, parentID)
	if err != nil || id != "" {
		return id, err
	}
	folder := &gdrive.File{Name: name, MimeType: folderMime}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}
	created, err := g.svc.Files.Create(folder).Fields("id").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	return created.Id, nil
}

// Upload stores f under <root>/<project>/Documentos de Projeto.
func (g *GoogleUploader) Upload(ctx context.Context, f File) (Result, error) {
	if len(f.Data) == 0 {
		return Result{}, fmt.Errorf("drive: empty attachment")
	}
	parent := g.rootID
	for _, name := range FolderPath(f.Project) {
		id, err := g.ensureFolder(ctx, name, parent)
		if err != nil {
			return Result{}, err
		}
		parent = id
	}

	mime := f.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	meta := &gdrive.File{Name: FileName(f, g.now()), Parents: []string{parent}}
	created, err := g.svc.Files.Create(meta).
		Media(bytes.NewReader(f.Data), googleapi.ContentType(mime)).
		Fields("id, webViewLink, webContentLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return Result{}, fmt.Errorf("upload %s: %w", meta.Name, err)
	}

	url := created.WebViewLink
	if url == "" {
		url = created.WebContentLink
	}
	if url == "" {
		url = ViewURL(created.Id)
	}
	return Result{ID: created.Id, URL: url}, nil
}
