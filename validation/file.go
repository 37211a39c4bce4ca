package validation

import (
	"mime"
	"path/filepath"
	"strings"
)

// CSVMediaType is the only media type the selection gate accepts.
const CSVMediaType = "text/csv"

// DeclaredMediaType resolves the media type declared for a filename from its
// extension, with parameters such as charset stripped so the result can be
// compared exactly. File content is never inspected.
func DeclaredMediaType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}

	typ := mime.TypeByExtension(ext)
	if typ == "" {
		// The system mime table may lack a csv entry.
		if ext == ".csv" {
			return CSVMediaType
		}
		return ""
	}

	if parsed, _, err := mime.ParseMediaType(typ); err == nil {
		return parsed
	}
	return typ
}

// CheckCSV accepts a declared media type only when it equals text/csv
// exactly. There is no size limit and no content sniffing.
func CheckCSV(mediaType string) error {
	if mediaType == "" {
		return ErrUnknownType
	}
	if mediaType != CSVMediaType {
		return ErrInvalidFileType
	}
	return nil
}
