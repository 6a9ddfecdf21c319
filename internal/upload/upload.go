// Package upload reads metadata and text excerpts of uploaded RFP files.
package upload

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/spf13/afero"
)

// DefaultExcerptBytes caps how much of a file is sent to the analysis agent.
const DefaultExcerptBytes = 16 * 1024

// ErrNotAFile indicates a path that names a directory.
var ErrNotAFile = errors.New("not a regular file")

// textExtensions lists formats whose raw bytes are readable text. Binary
// formats (pdf, docx, hwp) contribute only their file name to prompts.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".csv": true, ".json": true, ".yaml": true, ".yml": true,
}

// Inspector reads uploaded files through an afero filesystem.
// Use afero.NewOsFs() for real files or afero.NewMemMapFs() in tests.
type Inspector struct {
	fs       afero.Fs
	maxBytes int
	now      func() time.Time
}

// NewInspector creates an Inspector. A nil fs means the OS filesystem.
func NewInspector(fs afero.Fs) *Inspector {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Inspector{fs: fs, maxBytes: DefaultExcerptBytes, now: time.Now}
}

// Describe stats each path and returns its metadata in order, stamped with
// the same upload date.
func (i *Inspector) Describe(paths []string) ([]domain.FileMeta, error) {
	uploaded := i.now().UTC()
	files := make([]domain.FileMeta, 0, len(paths))
	for _, p := range paths {
		info, err := i.fs.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s: %w", p, ErrNotAFile)
		}
		files = append(files, domain.FileMeta{
			FileName:   filepath.Base(p),
			Size:       info.Size(),
			UploadDate: uploaded,
			Path:       p,
		})
	}
	return files, nil
}

// Excerpt returns up to the excerpt limit of readable text from f. Files
// without a local path, binary formats and unreadable files yield "".
func (i *Inspector) Excerpt(f domain.FileMeta) string {
	if f.Path == "" || !textExtensions[strings.ToLower(filepath.Ext(f.Path))] {
		return ""
	}
	fh, err := i.fs.Open(f.Path)
	if err != nil {
		return ""
	}
	defer fh.Close()

	buf, err := io.ReadAll(io.LimitReader(fh, int64(i.maxBytes)))
	if err != nil {
		return ""
	}
	return strings.ToValidUTF8(string(trimPartialRune(buf)), "\uFFFD")
}

// trimPartialRune drops a multi-byte rune cut short at the end of buf.
func trimPartialRune(buf []byte) []byte {
	for n := 1; n < utf8.UTFMax && n <= len(buf); n++ {
		tail := buf[len(buf)-n:]
		if !utf8.RuneStart(tail[0]) {
			continue
		}
		if !utf8.FullRune(tail) {
			return buf[:len(buf)-n]
		}
		break
	}
	return buf
}
