// Package upload stores uploaded images on disk and serves them back.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/erazemk/vinylbank/internal/imaging"
	"github.com/erazemk/vinylbank/internal/model"
)

// URLPrefix is the path under which stored images are served.
const URLPrefix = "/api/upload/images/"

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Storage writes images into Dir.
type Storage struct {
	Dir      string
	MaxBytes int64
	Resizer  imaging.Resizer
}

// Stored describes a saved image.
type Stored struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// New creates the upload directory if needed and returns a Storage for it.
func New(dir string, maxBytes int64, resizer imaging.Resizer) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Storage{Dir: dir, MaxBytes: maxBytes, Resizer: resizer}, nil
}

// CheckSize rejects uploads larger than MaxBytes before they are read.
func (s *Storage) CheckSize(size int64) error {
	if s.MaxBytes > 0 && size > s.MaxBytes {
		return model.Invalid("file", "size must be less than "+strconv.FormatInt(s.MaxBytes/(1<<20), 10)+"MB")
	}
	return nil
}

// Save validates and stores an image for an item. fieldKey is empty for
// cover images. declared is the content type sent by the client; both it
// and the sniffed type must be image types. Resizable images larger than
// the configured dimension are downscaled, anything else is kept verbatim.
func (s *Storage) Save(itemID int64, fieldKey, declared, name string, r io.Reader) (*Stored, error) {
	if !strings.HasPrefix(declared, "image/") {
		return nil, model.Invalid("file", "must be an image")
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = 1 << 62
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if err := s.CheckSize(int64(len(data))); err != nil {
		return nil, err
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, model.Invalid("file", "must be an image")
	}

	ext := detected.Extension()
	result, err := s.Resizer.Process(data, detected.String())
	switch {
	case errors.Is(err, imaging.ErrUnsupported):
		result = &imaging.Result{Data: data, MIME: detected.String()}
	case err != nil:
		return nil, model.Invalid("file", "could not be decoded as an image")
	}
	if result.Resized {
		ext = ".jpg"
	}
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(name))
	}
	if ext == "" {
		ext = ".jpg"
	}

	filename := strconv.FormatInt(itemID, 10) + "_"
	if key := unsafeKeyChars.ReplaceAllString(fieldKey, "_"); key != "" {
		filename += key + "_"
	}
	filename += uuid.New().String() + ext

	if err := os.WriteFile(filepath.Join(s.Dir, filename), result.Data, 0o644); err != nil {
		return nil, fmt.Errorf("writing upload: %w", err)
	}

	return &Stored{URL: URLPrefix + filename, Filename: filename}, nil
}

// Open returns a stored image and its content type. The name must be a
// single path element.
func (s *Storage) Open(name string) (*os.File, string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return nil, "", model.Invalid("filename", "is invalid")
	}

	f, err := os.Open(filepath.Join(s.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", model.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("opening upload: %w", err)
	}
	if info, err := f.Stat(); err != nil || info.IsDir() {
		f.Close()
		return nil, "", model.ErrNotFound
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		head := make([]byte, 3072)
		n, _ := io.ReadFull(f, head)
		contentType = mimetype.Detect(head[:n]).String()
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("rewinding upload: %w", err)
		}
	}
	return f, contentType, nil
}
