package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpreadsheetType(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		head        []byte
		want        string
		ok          bool
	}{
		{"xlsx by mime", "upload", MimeXLSX, nil, MimeXLSX, true},
		{"csv mime with charset", "data", "text/csv; charset=utf-8", nil, MimeCSV, true},
		{"xls by extension", "report.XLS", "application/octet-stream", nil, MimeXLS, true},
		{"csv by extension", "progress.csv", "", nil, MimeCSV, true},
		{"csv by content", "progress.txt", "text/plain", []byte("story,status\nlogin,done\nsignup,done\n"), MimeCSV, true},
		{"pdf", "report.pdf", "application/pdf", []byte("%PDF-1.7\n"), "", false},
		{"nothing to go on", "notes", "", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SpreadsheetType(tt.filename, tt.contentType, tt.head)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, IsSpreadsheet(tt.filename, tt.contentType, tt.head))
		})
	}
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, "xlsx", ExtensionFor(MimeXLSX))
	assert.Equal(t, "csv", ExtensionFor(MimeCSV))
	assert.Equal(t, "", ExtensionFor("application/pdf"))
}
