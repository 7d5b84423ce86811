package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/newthinker/signaldesk/internal/config"
	"github.com/newthinker/signaldesk/internal/core"
)

// New builds the storage selected by cfg.
func New(cfg config.ExportConfig) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		st, err := NewLocalFS(cfg.Path)
		if err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		return st, nil
	case "s3":
		st, err := NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		return st, nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown export type %q", cfg.Type))
	}
}

// Save writes an export under its backend-supplied filename. An existing
// file is never replaced; a numeric suffix is added instead. Returns the
// path used.
func Save(ctx context.Context, st Storage, filename string, data []byte) (string, error) {
	name := cleanName(filename)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := name
	for i := 1; ; i++ {
		exists, err := st.Exists(ctx, candidate)
		if err != nil {
			return "", core.WrapError(core.ErrStorageFailed, err)
		}
		if !exists {
			break
		}
		candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
	}

	if err := st.Write(ctx, candidate, data); err != nil {
		return "", core.WrapError(core.ErrStorageFailed, err)
	}
	return candidate, nil
}

// cleanName keeps only the last path element so a filename cannot escape
// the export location.
func cleanName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "signals.csv"
	}
	return name
}

// ContentType guesses the MIME type of an exported file from its name.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
