package utils

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/config"
)

func TestCloudinaryUploader(t *testing.T) {
	var gotPreset, gotFolder, gotFile, gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotPreset = r.FormValue("upload_preset")
		gotFolder = r.FormValue("folder")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		gotFile, gotName = string(data), hdr.Filename

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"secure_url":"https://res.test/raw/upload/v1/evidence.csv","public_id":"nexus/evidence","format":"csv","bytes":17}`)
	}))
	defer srv.Close()

	u := NewCloudinaryUploader(config.CloudinaryConfig{CloudName: "demo", UploadPreset: "nexuss", Folder: "nexus-evidencias"})
	u.endpoint = srv.URL

	out, err := u.Upload(context.Background(), "evidence.csv", MimeCSV, []byte("story,done\nA,yes\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://res.test/raw/upload/v1/evidence.csv", out.URL)
	assert.Equal(t, "nexus/evidence", out.PublicID)
	assert.Equal(t, int64(17), out.Bytes)

	assert.Equal(t, "nexuss", gotPreset)
	assert.Equal(t, "nexus-evidencias", gotFolder)
	assert.Equal(t, "evidence.csv", gotName)
	assert.True(t, strings.HasPrefix(gotFile, "story,done"))
}

func TestCloudinaryUploaderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"Upload preset not found"}}`)
	}))
	defer srv.Close()

	u := NewCloudinaryUploader(config.CloudinaryConfig{CloudName: "demo", UploadPreset: "missing"})
	u.endpoint = srv.URL

	_, err := u.Upload(context.Background(), "e.csv", MimeCSV, []byte("a"))
	assert.ErrorIs(t, err, ErrUploadRejected)
	assert.Contains(t, err.Error(), "Upload preset not found")
}

func TestCloudinaryUploaderDeleteUnsupported(t *testing.T) {
	u := NewCloudinaryUploader(config.CloudinaryConfig{CloudName: "demo", UploadPreset: "nexuss"})

	err := u.Delete(context.Background(), "nexus/evidence")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeleteUnsupported)
	assert.Contains(t, err.Error(), "nexus/evidence")
}

func TestObjectKey(t *testing.T) {
	a := ObjectKey("/tmp/Sprint 3 report.xlsx")
	b := ObjectKey("Sprint 3 report.xlsx")
	assert.True(t, strings.HasPrefix(a, "evidence/"))
	assert.True(t, strings.HasSuffix(a, "/Sprint_3_report.xlsx"))
	assert.NotEqual(t, a, b)
}
