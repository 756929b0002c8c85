// Package drive archives chat attachments into Google Drive project folders.
package drive

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/brynix/brynixbot/internal/textnorm"
)

// DocsFolder is the per-project subfolder receiving attachments.
const DocsFolder = "Documentos de Projeto"

// ErrNotConfigured is returned when OAuth or the root folder is missing.
var ErrNotConfigured = errors.New("drive: upload not configured")

// File is an attachment to archive.
type File struct {
	Data     []byte
	Name     string // original file name, may be empty
	MimeType string
	Project  string
}

// Result identifies the stored file.
type Result struct {
	ID  string
	URL string
}

// Uploader is the file-storage collaborator.
type Uploader interface {
	Upload(ctx context.Context, f File) (Result, error)
}

// FolderPath is the destination below the root folder: <project>/Documentos de Projeto.
func FolderPath(project string) []string {
	p := strings.TrimSpace(project)
	if p == "" {
		p = "Projeto"
	}
	return []string{p, DocsFolder}
}

var mimeExt = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"application/pdf": "pdf",
	"audio/mpeg":      "mp3",
	"audio/ogg":       "ogg",
	"video/mp4":       "mp4",
	"text/plain":      "txt",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         "xlsx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
}

// ExtFromMime maps a MIME type (parameters ignored) to an extension, "bin"
// when unknown.
func ExtFromMime(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0]))
	if ext, ok := mimeExt[mime]; ok {
		return ext
	}
	return "bin"
}

var unsafeName = regexp.MustCompile(`[^\w\s-]`)

func sanitize(s string) string {
	s = unsafeName.ReplaceAllString(textnorm.StripAccents(s), "")
	return strings.Join(strings.Fields(s), "_")
}

// FileName builds "<base>_<yyyy-mm-dd-hhmm>.<ext>". The base is the original
// name without extension, else the project name, else "arquivo".
func FileName(f File, now time.Time) string {
	origExt := strings.TrimPrefix(path.Ext(f.Name), ".")
	base := sanitize(strings.TrimSuffix(f.Name, path.Ext(f.Name)))
	if base == "" {
		base = sanitize(f.Project)
	}
	if base == "" {
		base = "arquivo"
	}
	ext := ExtFromMime(f.MimeType)
	if ext == "bin" && origExt != "" {
		ext = strings.ToLower(origExt)
	}
	return base + "_" + now.Format("2006-01-02-1504") + "." + ext
}

// ViewURL is the fallback link when the API returns none.
func ViewURL(id string) string {
	return "https://drive.google.com/file/d/" + id + "/view"
}
