package tenantprofile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/contractnest/contractnest/internal/platform/httpx"
)

// DefaultLogoMaxBytes bounds logo uploads when no limit is configured.
const DefaultLogoMaxBytes int64 = 2 << 20

var allowedLogoTypes = []string{"image/png", "image/jpeg", "image/webp", "image/svg+xml"}

// LogoStore writes logos below a directory served as static media.
type LogoStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewLogoStore constructs a LogoStore. baseURL is the public prefix the
// directory is served under, e.g. "/media".
func NewLogoStore(dir, baseURL string, maxBytes int64) *LogoStore {
	if maxBytes <= 0 {
		maxBytes = DefaultLogoMaxBytes
	}
	return &LogoStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/"), maxBytes: maxBytes}
}

// MaxBytes reports the configured upload limit.
func (s *LogoStore) MaxBytes() int64 { return s.maxBytes }

// Save stores the image read from r and returns its public URL. The content
// type is sniffed from the bytes, never taken from the upload headers.
func (s *LogoStore) Save(ctx context.Context, tenantID uuid.UUID, r io.Reader) (string, error) {
	buf, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("tenantprofile: read logo: %w", err)
	}
	if len(buf) == 0 {
		return "", ErrLogoEmpty
	}
	if int64(len(buf)) > s.maxBytes {
		return "", httpx.NewError(CodeLogoTooLarge,
			fmt.Sprintf("logo must be %s or smaller", humanize.IBytes(uint64(s.maxBytes))), httpx.ErrValidation)
	}
	mtype := mimetype.Detect(buf)
	if !mimetype.EqualsAny(mtype.String(), allowedLogoTypes...) {
		return "", httpx.NewError(CodeLogoType,
			fmt.Sprintf("logo must be PNG, JPEG, WebP or SVG (got %s)", mtype.String()), httpx.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tenantDir := filepath.Join(s.dir, tenantID.String())
	if err := os.MkdirAll(tenantDir, 0o755); err != nil {
		return "", fmt.Errorf("tenantprofile: create logo dir: %w", err)
	}
	name := "logo-" + uuid.NewString() + mtype.Extension()
	tmp, err := os.CreateTemp(tenantDir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("tenantprofile: create logo: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, bytes.NewReader(buf)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("tenantprofile: write logo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("tenantprofile: write logo: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(tenantDir, name)); err != nil {
		return "", fmt.Errorf("tenantprofile: store logo: %w", err)
	}
	return s.baseURL + "/" + tenantID.String() + "/" + name, nil
}
