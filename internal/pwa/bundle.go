package pwa

import (
	"fmt"
	"io"
	"time"

	"github.com/gosimple/slug"
	"github.com/klauspost/compress/zip"
)

// Bundle file names.
const (
	BundleManifest = "manifest.json"
	BundleWorker   = "sw.js"
	BundleIndex    = "index.html"
)

// bundleEpoch is stamped on every entry so equal inputs give equal archives.
var bundleEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Artifacts holds every rendered file of an app.
type Artifacts struct {
	Manifest []byte
	Worker   []byte
	Index    []byte
}

// Render produces all artifacts for cfg and opts.
func Render(cfg Config, opts WorkerOptions) (*Artifacts, error) {
	manifest, err := GenerateManifest(cfg)
	if err != nil {
		return nil, err
	}
	worker, err := GenerateServiceWorker(opts)
	if err != nil {
		return nil, err
	}
	index, err := GenerateIndexHTML(cfg)
	if err != nil {
		return nil, err
	}
	return &Artifacts{Manifest: manifest, Worker: worker, Index: index}, nil
}

// File is one named artifact.
type File struct {
	Name string
	Data []byte
}

// Files returns the artifacts keyed by bundle file name, in archive order.
func (a *Artifacts) Files() []File {
	return []File{
		{BundleManifest, a.Manifest},
		{BundleWorker, a.Worker},
		{BundleIndex, a.Index},
	}
}

// WriteBundle writes a zip archive with manifest.json, sw.js and index.html
// to w.
func WriteBundle(w io.Writer, cfg Config, opts WorkerOptions) error {
	arts, err := Render(cfg, opts)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, f := range arts.Files() {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: bundleEpoch,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to bundle: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write %s to bundle: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize bundle: %w", err)
	}
	return nil
}

// BundleFileName derives the zip file name from an app name.
func BundleFileName(appName string) string {
	if s := slug.Make(appName); s != "" {
		return s + ".zip"
	}
	return "pwa.zip"
}
