package storage

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
)

// Kinds набор допустимых типов: MIME -> допустимые расширения.
type Kinds map[string][]string

var (
	// ImageKinds изображения для галереи и логотипа.
	ImageKinds = Kinds{
		"image/jpeg": {".jpg", ".jpeg"},
		"image/png":  {".png"},
		"image/webp": {".webp"},
	}
	// AttachmentKinds вложения обращений в поддержку.
	AttachmentKinds = Kinds{
		"image/jpeg":      {".jpg", ".jpeg"},
		"image/png":       {".png"},
		"image/webp":      {".webp"},
		"image/gif":       {".gif"},
		"application/pdf": {".pdf"},
	}
)

// ErrUnsupportedType возвращается, если содержимое файла не входит в допустимые типы.
var ErrUnsupportedType = errors.New("неподдерживаемый тип файла")

// Detect определяет MIME по магическим байтам и сверяет его с расширением имени файла.
// После проверки позиция r возвращается в начало.
func Detect(r io.ReadSeeker, filename string, allowed Kinds) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowed.hasExtension(ext) {
		return "", fmt.Errorf("%w: разрешены %s", ErrUnsupportedType, strings.Join(allowed.extensions(), ", "))
	}

	header := make([]byte, 512)
	n, err := r.Read(header)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("%w: файл пустой", ErrUnsupportedType)
	}

	kind, err := filetype.Match(header[:n])
	if err != nil || kind == filetype.Unknown {
		return "", fmt.Errorf("%w: не удалось определить тип файла", ErrUnsupportedType)
	}

	exts, ok := allowed[kind.MIME.Value]
	if !ok {
		return "", fmt.Errorf("%w (%s)", ErrUnsupportedType, kind.MIME.Value)
	}
	if !contains(exts, ext) {
		return "", fmt.Errorf("%w: расширение %s не соответствует содержимому (%s)", ErrUnsupportedType, ext, kind.MIME.Value)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("storage: не удалось сбросить позицию файла: %w", err)
	}
	return kind.MIME.Value, nil
}

func (k Kinds) hasExtension(ext string) bool {
	for _, exts := range k {
		if contains(exts, ext) {
			return true
		}
	}
	return false
}

func (k Kinds) extensions() []string {
	var out []string
	for _, exts := range k {
		out = append(out, exts...)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
