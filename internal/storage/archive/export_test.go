package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/newthinker/signaldesk/internal/config"
	"github.com/newthinker/signaldesk/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LocalFS(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	st, err := New(config.ExportConfig{Type: "localfs", Path: dir})
	require.NoError(t, err)
	assert.IsType(t, &LocalFS{}, st)
	assert.Equal(t, filepath.Join(dir, "a.csv"), st.Location("a.csv"))
}

func TestNew_S3(t *testing.T) {
	st, err := New(config.ExportConfig{Type: "s3", S3: config.S3Config{Bucket: "desk", Region: "us-east-1"}})
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, st)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(config.ExportConfig{Type: "ftp"})
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}

func TestSave_DoesNotOverwrite(t *testing.T) {
	st, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := Save(ctx, st, "signals_HKEX_20250310.csv", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, "signals_HKEX_20250310.csv", first)

	second, err := Save(ctx, st, "signals_HKEX_20250310.csv", []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, "signals_HKEX_20250310-1.csv", second)

	data, err := os.ReadFile(st.Location(first))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestSave_StripsDirectories(t *testing.T) {
	st, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	name, err := Save(context.Background(), st, "../../etc/signals.csv", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "signals.csv", name)

	name, err = Save(context.Background(), st, "", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "signals-1.csv", name)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", ContentType("a.CSV"))
	assert.Equal(t, "application/octet-stream", ContentType("a.bin"))
}
