// Package artifact persists one extraction result per listing as a durable
// JSON file with a collision-safe identity.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RichGutz/Scraper.Neoauto/internal/domain"
	"github.com/RichGutz/Scraper.Neoauto/pkg/utils"
)

// Writer serializes extraction results into a results directory. Writes are
// atomic: content lands in a temp file first and is renamed into place, so a
// cancelled or crashed run never leaves a half-written artifact visible.
type Writer struct {
	dir string
}

// NewWriter ensures the results directory exists.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// ID derives the artifact identity for a result: a hash of the source URL
// combined with the capture timestamp. Retries of the same URL in different
// runs therefore never collide.
func ID(res *domain.ExtractionResult) string {
	return fmt.Sprintf("%s_%s", utils.ShortHashURL(res.URL), res.ExtractedAt.UTC().Format("20060102_150405"))
}

// Write persists one result and returns its artifact identity. Field order
// in the serialization follows the ExtractionResult declaration and is
// stable for downstream parsers. An already-existing artifact is an error;
// nothing is ever overwritten silently. Storage failures propagate: losing
// an artifact after a successful extraction is a data-loss event the caller
// must see.
func (w *Writer) Write(res *domain.ExtractionResult) (string, error) {
	id := ID(res)
	final := filepath.Join(w.dir, id+".json")

	if _, err := os.Stat(final); err == nil {
		return "", fmt.Errorf("artifact %s already exists", id)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat artifact %s: %w", id, err)
	}

	payload, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode artifact %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(w.dir, id+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write artifact %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close artifact %s: %w", id, err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("finalize artifact %s: %w", id, err)
	}
	return id, nil
}
