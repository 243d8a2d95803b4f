package utils

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MimeXLS  = "application/vnd.ms-excel"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeCSV  = "text/csv"
)

var spreadsheetMimes = map[string]bool{
	MimeXLS:  true,
	MimeXLSX: true,
	MimeCSV:  true,
}

var spreadsheetExts = map[string]string{
	".xls":  MimeXLS,
	".xlsx": MimeXLSX,
	".csv":  MimeCSV,
}

// SpreadsheetType resolves the spreadsheet MIME type of an upload from its
// declared content type, its extension, or its leading bytes, in that order.
// ok is false when none of them is xls, xlsx or csv.
func SpreadsheetType(filename, contentType string, head []byte) (string, bool) {
	declared := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if spreadsheetMimes[declared] {
		return declared, true
	}
	if mime, ok := spreadsheetExts[strings.ToLower(filepath.Ext(filename))]; ok {
		return mime, true
	}
	if len(head) == 0 {
		return "", false
	}
	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		if spreadsheetMimes[m.String()] {
			return m.String(), true
		}
	}
	return "", false
}

// IsSpreadsheet reports whether an upload is an accepted evidence file.
func IsSpreadsheet(filename, contentType string, head []byte) bool {
	_, ok := SpreadsheetType(filename, contentType, head)
	return ok
}

// ExtensionFor returns the canonical extension for a spreadsheet MIME type.
func ExtensionFor(mime string) string {
	for ext, m := range spreadsheetExts {
		if m == mime {
			return strings.TrimPrefix(ext, ".")
		}
	}
	return ""
}
