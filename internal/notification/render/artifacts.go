package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"confreg/internal/platform/config"
)

// CardFileName is the artifact name of a registrant's entry card.
func CardFileName(regID string) string {
	return "TGSDC_" + regID + ".png"
}

// CertificateFileName is the artifact name of a registrant's certificate.
func CertificateFileName(regID string) string {
	return "Certificate_" + regID + ".png"
}

// Artifacts writes rendered files into a directory served under a public URL.
type Artifacts struct {
	dir     string
	baseURL string
}

// NewArtifacts creates the artifact directory if needed.
func NewArtifacts(cfg config.ArtifactConfig) (*Artifacts, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	base := strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.Trim(cfg.URLPath, "/")
	return &Artifacts{dir: cfg.Dir, baseURL: base}, nil
}

func (a *Artifacts) Dir() string {
	return a.dir
}

// Save writes data under name, replacing any earlier version atomically, and
// returns the file path and public URL.
func (a *Artifacts) Save(name string, data []byte) (path, url string, err error) {
	if name == "" || name != filepath.Base(name) {
		return "", "", fmt.Errorf("invalid artifact name %q", name)
	}
	tmp, err := os.CreateTemp(a.dir, "."+name+".*")
	if err != nil {
		return "", "", fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", "", fmt.Errorf("chmod artifact: %w", err)
	}
	path = filepath.Join(a.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", "", fmt.Errorf("publish artifact: %w", err)
	}
	return path, a.baseURL + "/" + name, nil
}
