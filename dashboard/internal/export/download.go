package export

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

// ContentType is the media type of exported payloads.
const ContentType = "text/csv; charset=utf-8"

// Downloader delivers an exported payload to the user under filename.
type Downloader interface {
	Download(filename string, payload []byte) error
}

// Export encodes rows and passes the payload to d. With no rows or no
// columns it does nothing and reports false.
func Export[T any](d Downloader, filename string, rows []T, cols []Column[T]) (bool, error) {
	if len(rows) == 0 || len(cols) == 0 {
		return false, nil
	}
	if err := d.Download(filename, Encode(rows, cols)); err != nil {
		return false, fmt.Errorf("download %s: %w", filename, err)
	}
	return true, nil
}

// HTTPDownloader writes the payload as an attachment response, which makes
// the browser save it under filename.
type HTTPDownloader struct {
	W http.ResponseWriter
}

// Download implements Downloader.
func (h HTTPDownloader) Download(filename string, payload []byte) error {
	header := h.W.Header()
	header.Set("Content-Type", ContentType)
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	header.Set("Content-Length", strconv.Itoa(len(payload)))
	h.W.WriteHeader(http.StatusOK)
	_, err := h.W.Write(payload)
	return err
}

// FileDownloader saves the payload into Dir.
type FileDownloader struct {
	Dir string
}

// Download implements Downloader.
func (f FileDownloader) Download(filename string, payload []byte) error {
	path := filepath.Join(f.Dir, filepath.Base(filename))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	return nil
}
