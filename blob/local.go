package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Local stores images under a directory on the serving host, laid out by
// upload date. References are slash-separated relative paths.
type Local struct {
	baseDir string
	baseURL string
}

// NewLocal creates a disk-backed store rooted at baseDir. baseURL is the
// public prefix the files are served under.
func NewLocal(baseDir, baseURL string) *Local {
	return &Local{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Local) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	ref := makeRef(time.Now(), filename)
	dst := l.path(ref)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return ref, nil
}

func (l *Local) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return os.ReadFile(l.path(ref))
}

func (l *Local) Delete(ctx context.Context, ref string) error {
	err := os.Remove(l.path(ref))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (l *Local) URL(ref string) string {
	return l.baseURL + "/" + ref
}

// path joins the reference onto baseDir, refusing traversal outside it.
func (l *Local) path(ref string) string {
	clean := filepath.Clean("/" + filepath.FromSlash(ref))
	return filepath.Join(l.baseDir, clean)
}
