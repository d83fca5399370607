package novelpub

import (
	"archive/zip"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
)

// maxDecompressSize is the maximum allowed decompressed size for a single ZIP
// entry read back by Inspect (256 MB).
const maxDecompressSize int64 = 256 * 1024 * 1024

// archiveWriter adds ePub entries to a ZIP stream with a fixed timestamp so
// that identical books produce identical archives.
type archiveWriter struct {
	zw       *zip.Writer
	modified time.Time
}

func newArchiveWriter(w io.Writer, modified time.Time) *archiveWriter {
	return &archiveWriter{zw: zip.NewWriter(w), modified: modified}
}

// store adds an uncompressed entry. The mimetype entry must be stored.
func (a *archiveWriter) store(name string, data []byte) error {
	return a.add(name, data, zip.Store)
}

// deflate adds a compressed entry.
func (a *archiveWriter) deflate(name string, data []byte) error {
	return a.add(name, data, zip.Deflate)
}

func (a *archiveWriter) add(name string, data []byte, method uint16) error {
	if !isSafePath(name) {
		return fmt.Errorf("novelpub: unsafe zip entry path: %s", name)
	}
	fw, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: a.modified,
	})
	if err != nil {
		return fmt.Errorf("novelpub: create zip entry %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("novelpub: write zip entry %s: %w", name, err)
	}
	return nil
}

func (a *archiveWriter) close() error {
	if err := a.zw.Close(); err != nil {
		return fmt.Errorf("novelpub: finish zip: %w", err)
	}
	return nil
}

// findFileInsensitive looks up a ZIP entry by path, first trying an exact match,
// then falling back to a case-insensitive comparison.
// Returns nil if no match is found.
func findFileInsensitive(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

// resolveRelativePath resolves href relative to the directory of basePath.
// Both are ZIP-internal, forward-slash paths. An href that is absolute or
// escapes the archive root resolves to "".
func resolveRelativePath(basePath, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "/") {
		return ""
	}
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	cleaned := path.Clean(path.Join(path.Dir(basePath), href))
	if !isSafePath(cleaned) {
		return ""
	}
	return cleaned
}

// isSafePath reports whether p stays inside the archive root.
func isSafePath(p string) bool {
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}

// stripBOM removes a leading UTF-8 BOM (0xEF 0xBB 0xBF) from data, if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// readZipFile reads the full contents of a ZIP entry within maxDecompressSize.
func readZipFile(f *zip.File) ([]byte, error) {
	return readZipFileWithLimit(f, maxDecompressSize)
}

// readZipFileWithLimit rejects unsafe entry names and entries whose declared
// or actual size exceeds limit.
func readZipFileWithLimit(f *zip.File, limit int64) ([]byte, error) {
	if !isSafePath(f.Name) {
		return nil, fmt.Errorf("novelpub: unsafe zip entry path: %s", f.Name)
	}
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("novelpub: zip entry %s too large: %d bytes (max %d)", f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("novelpub: open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	// The declared size may be forged; read one byte past the limit to tell.
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("novelpub: read zip entry %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("novelpub: zip entry %s decompressed size exceeds limit (%d bytes)", f.Name, limit)
	}
	return data, nil
}
