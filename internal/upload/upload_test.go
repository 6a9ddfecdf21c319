package upload

import (
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemInspector(t *testing.T) (*Inspector, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	ins := NewInspector(fs)
	ins.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return ins, fs
}

func TestDescribe(t *testing.T) {
	ins, fs := newMemInspector(t)
	require.NoError(t, afero.WriteFile(fs, "/rfp/brief.txt", []byte("hello"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/rfp/annex.pdf", make([]byte, 2048), 0o644))

	files, err := ins.Describe([]string{"/rfp/brief.txt", "/rfp/annex.pdf"})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "brief.txt", files[0].FileName)
	assert.Equal(t, int64(5), files[0].Size)
	assert.Equal(t, "annex.pdf", files[1].FileName)
	assert.Equal(t, int64(2048), files[1].Size)
	assert.Equal(t, files[0].UploadDate, files[1].UploadDate)
}

func TestDescribe_Errors(t *testing.T) {
	ins, fs := newMemInspector(t)
	require.NoError(t, fs.MkdirAll("/rfp", 0o755))

	_, err := ins.Describe([]string{"/missing.txt"})
	assert.Error(t, err)

	_, err = ins.Describe([]string{"/rfp"})
	assert.ErrorIs(t, err, ErrNotAFile)
}

func TestExcerpt(t *testing.T) {
	ins, fs := newMemInspector(t)
	ins.maxBytes = 8
	require.NoError(t, afero.WriteFile(fs, "/a.md", []byte("# Leadership program"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/b.pdf", []byte("%PDF-1.7"), 0o644))

	assert.Equal(t, "# Leader", ins.Excerpt(domain.FileMeta{Path: "/a.md"}))
	assert.Empty(t, ins.Excerpt(domain.FileMeta{Path: "/b.pdf"}))
	assert.Empty(t, ins.Excerpt(domain.FileMeta{FileName: "a.md"}))
	assert.Empty(t, ins.Excerpt(domain.FileMeta{Path: "/gone.txt"}))
}

func TestExcerpt_TrimsSplitRune(t *testing.T) {
	ins, fs := newMemInspector(t)
	ins.maxBytes = 4
	// "가나" is six bytes; the cap cuts the second rune.
	require.NoError(t, afero.WriteFile(fs, "/k.txt", []byte("가나"), 0o644))

	got := ins.Excerpt(domain.FileMeta{Path: "/k.txt"})
	assert.Equal(t, "가", got)
	assert.True(t, strings.HasPrefix("가나", got))
}

func TestExcerpt_KeepsTextAfterInvalidByte(t *testing.T) {
	ins, fs := newMemInspector(t)
	body := "Client: ACME\xff\nScope: leadership programme for 40 managers"
	require.NoError(t, afero.WriteFile(fs, "/brief.txt", []byte(body), 0o644))

	got := ins.Excerpt(domain.FileMeta{Path: "/brief.txt"})
	assert.Equal(t, "Client: ACME�\nScope: leadership programme for 40 managers", got)
}

func TestExcerpt_LimitAfterInvalidByte(t *testing.T) {
	ins, fs := newMemInspector(t)
	ins.maxBytes = 16
	// The cap lands inside "가" after an invalid byte earlier in the file.
	require.NoError(t, afero.WriteFile(fs, "/k.txt", []byte("ab\xffcdefghijklm가나"), 0o644))

	got := ins.Excerpt(domain.FileMeta{Path: "/k.txt"})
	assert.Equal(t, "ab�cdefghijklm", got)
}
