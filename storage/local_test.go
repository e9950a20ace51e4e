package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"story4u-backend/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newTestStore(t *testing.T, max int64) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir(), "http://localhost:8090/", max)
	require.NoError(t, err)
	l.newID = func() string { return "fixed" }
	return l
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "my_photo_1__x.png", SanitizeFilename("my photo(1).PNG", "x"))
	assert.Equal(t, "passwd_x", SanitizeFilename("../../etc/passwd", "x"))
	assert.Equal(t, "evil_x.jpg", SanitizeFilename(`C:\temp\evil.jpg`, "x"))
	assert.Equal(t, "file_x.png", SanitizeFilename(".png", "x"))

	long := SanitizeFilename(strings.Repeat("a", 400)+".pdf", "uuid")
	assert.LessOrEqual(t, len(long), 255)
	assert.True(t, strings.HasSuffix(long, "_uuid.pdf"))
}

func TestSaveAcceptsAllowedFile(t *testing.T) {
	l := newTestStore(t, 1<<20)
	name, err := l.Save("pic.png", "image/png", int64(len(pngHeader)), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "pic_fixed.png", name)

	data, err := os.ReadFile(filepath.Join(l.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	files, err := l.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "http://localhost:8090/resources/static/assets/uploads/pic_fixed.png", files[0].URL)
}

func TestSaveRejections(t *testing.T) {
	l := newTestStore(t, 64)

	_, err := l.Save("run.exe", "application/octet-stream", 10, bytes.NewReader([]byte("MZ")))
	assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err))

	_, err = l.Save("pic.png", "text/html", int64(len(pngHeader)), bytes.NewReader(pngHeader))
	assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err))

	html := []byte("<html><script>alert(1)</script></html>")
	_, err = l.Save("pic.png", "image/png", int64(len(html)), bytes.NewReader(html))
	assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err), "sniffed content must match")

	big := append(append([]byte{}, pngHeader...), make([]byte, 100)...)
	_, err = l.Save("pic.png", "image/png", int64(len(big)), bytes.NewReader(big))
	assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err))

	_, err = l.Save("pic.png", "image/png", -1, bytes.NewReader(big))
	assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err), "size is enforced while copying")

	files, err := l.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestResolve(t *testing.T) {
	l := newTestStore(t, 1<<20)
	require.NoError(t, os.WriteFile(filepath.Join(l.Dir(), "a.png"), pngHeader, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(l.Dir(), "sub"), 0o755))

	path, err := l.Resolve("a.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.Dir(), "a.png"), path)

	path, err = l.Resolve("../../a.png")
	require.NoError(t, err, "traversal collapses to the base name")
	assert.Equal(t, filepath.Join(l.Dir(), "a.png"), path)

	_, err = l.Resolve("../../etc/passwd")
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))

	_, err = l.Resolve("sub")
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))

	_, err = l.Resolve("..")
	assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err))
}
