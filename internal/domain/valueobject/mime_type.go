package valueobject

import (
	"errors"
	"strings"
)

// MimeType представляет тип содержимого изображения (Value Object)
type MimeType string

const (
	PNG  MimeType = "image/png"
	JPEG MimeType = "image/jpeg"
)

var ErrUnsupportedMimeType = errors.New("unsupported mime type")

// ParseMimeType нормализует строку Content-Type (без параметров, lower-case).
func ParseMimeType(raw string) MimeType {
	value := strings.TrimSpace(raw)
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return MimeType(strings.ToLower(strings.TrimSpace(value)))
}

// Validate проверяет, что тип поддерживается кодеками галереи
func (m MimeType) Validate() error {
	switch m {
	case PNG, JPEG:
		return nil
	default:
		return ErrUnsupportedMimeType
	}
}

func (m MimeType) String() string {
	return string(m)
}

// AllMimeTypes возвращает список всех поддерживаемых типов
func AllMimeTypes() []MimeType {
	return []MimeType{PNG, JPEG}
}
