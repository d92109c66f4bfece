package pwa

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBundle(t *testing.T) {
	t.Parallel()

	cfg := demoConfig()
	opts := DefaultWorkerOptions()

	var buf bytes.Buffer
	require.NoError(t, WriteBundle(&buf, cfg, opts))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)

	want, err := Render(cfg, opts)
	require.NoError(t, err)

	for i, f := range want.Files() {
		assert.Equal(t, f.Name, zr.File[i].Name)
		rc, err := zr.File[i].Open()
		require.NoError(t, err)
		got, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, f.Data, got, f.Name)
	}
}

func TestWriteBundle_Deterministic(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	require.NoError(t, WriteBundle(&a, DefaultConfig(), DefaultWorkerOptions()))
	require.NoError(t, WriteBundle(&b, DefaultConfig(), DefaultWorkerOptions()))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteBundle_WriterError(t *testing.T) {
	t.Parallel()

	err := WriteBundle(failingWriter{}, DefaultConfig(), DefaultWorkerOptions())
	require.Error(t, err)
}

func TestBundleFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "my-awesome-pwa.zip", BundleFileName("My Awesome PWA"))
	assert.Equal(t, "cafe-au-lait.zip", BundleFileName("Café au lait"))
	assert.Equal(t, "pwa.zip", BundleFileName("!!!"))
}
