package upload

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/vinylbank/internal/imaging"
	"github.com/erazemk/vinylbank/internal/model"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newStorage(t *testing.T, maxBytes int64, maxDim int) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "uploads"), maxBytes, imaging.Resizer{MaxDimension: maxDim})
	require.NoError(t, err)
	return s
}

func TestSaveCoverImage(t *testing.T) {
	s := newStorage(t, 1<<20, 1024)
	data := testPNG(t, 20, 10)

	stored, err := s.Save(7, "", "image/png", "front.PNG", bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Filename, "7_"))
	assert.True(t, strings.HasSuffix(stored.Filename, ".png"))
	assert.Equal(t, URLPrefix+stored.Filename, stored.URL)

	onDisk, err := os.ReadFile(filepath.Join(s.Dir, stored.Filename))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk, "small images are stored verbatim")
}

func TestSaveAttributeImageResized(t *testing.T) {
	s := newStorage(t, 1<<20, 8)

	stored, err := s.Save(3, "back/../cover", "image/png", "b.png", bytes.NewReader(testPNG(t, 32, 16)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Filename, "3_back_cover_"), stored.Filename)
	assert.True(t, strings.HasSuffix(stored.Filename, ".jpg"), "resized images become JPEG")

	f, contentType, err := s.Open(stored.Filename)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "image/jpeg", contentType)

	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)
	assert.Equal(t, 4, cfg.Height)
}

func TestSaveGIFStoredVerbatim(t *testing.T) {
	s := newStorage(t, 1<<20, 8)
	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")

	stored, err := s.Save(1, "", "image/gif", "anim.gif", bytes.NewReader(gif))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored.Filename, ".gif"))
}

func TestSaveRejects(t *testing.T) {
	s := newStorage(t, 64, 1024)

	tests := []struct {
		name     string
		declared string
		data     []byte
	}{
		{"declared non-image", "application/pdf", testPNG(t, 1, 1)},
		{"sniffed non-image", "image/png", []byte("just some text pretending")},
		{"too large", "image/png", append(testPNG(t, 1, 1), make([]byte, 128)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(1, "", tt.declared, "x.png", bytes.NewReader(tt.data))
			var verr *model.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads leave no files")
}

func TestOpen(t *testing.T) {
	s := newStorage(t, 1<<20, 1024)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "1_a.webp"), []byte("RIFF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "noext"), testPNG(t, 1, 1), 0o644))

	f, contentType, err := s.Open("1_a.webp")
	require.NoError(t, err)
	f.Close()
	assert.Equal(t, "image/webp", contentType)

	f, contentType, err = s.Open("noext")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.NotEmpty(t, data, "file is rewound after sniffing")

	_, _, err = s.Open("missing.jpg")
	assert.ErrorIs(t, err, model.ErrNotFound)

	for _, name := range []string{"", "..", "../secret", `a\b`, "dir/file.jpg"} {
		_, _, err := s.Open(name)
		var verr *model.ValidationError
		assert.ErrorAs(t, err, &verr, name)
	}
}
