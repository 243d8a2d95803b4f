package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/valyala/fasthttp"

	"nexus/config"
)

// UploadedFile is what a file host returns for a stored evidence file
type UploadedFile struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Format   string `json:"format"`
	Bytes    int64  `json:"bytes"`
}

// FileStore hosts evidence files
type FileStore interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (*UploadedFile, error)
	Delete(ctx context.Context, publicID string) error
}

var ErrUploadRejected = errors.New("file host rejected the upload")

// ErrDeleteUnsupported is returned by hosts that cannot remove an uploaded file.
var ErrDeleteUnsupported = errors.New("cloudinary unsigned uploads cannot be deleted")

const defaultUploadTimeout = 60 * time.Second

// CloudinaryUploader stores files through an unsigned Cloudinary upload
// preset as raw resources.
type CloudinaryUploader struct {
	cfg      config.CloudinaryConfig
	client   *fasthttp.Client
	endpoint string
}

func NewCloudinaryUploader(cfg config.CloudinaryConfig) *CloudinaryUploader {
	return &CloudinaryUploader{
		cfg: cfg,
		client: &fasthttp.Client{
			Name:                "nexus-uploader",
			MaxResponseBodySize: 1 << 20,
		},
		endpoint: fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/raw/upload", cfg.CloudName),
	}
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *CloudinaryUploader) Upload(ctx context.Context, filename, contentType string, data []byte) (*UploadedFile, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	fields := map[string]string{
		"upload_preset": u.cfg.UploadPreset,
		"folder":        u.cfg.Folder,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := form.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(form.FormDataContentType())
	req.SetBody(body.Bytes())

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultUploadTimeout)
	}
	if err := u.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("upload evidence: %w", err)
	}

	var out cloudinaryResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode upload response (status %d): %w", resp.StatusCode(), err)
	}
	if resp.StatusCode() >= 300 || out.SecureURL == "" {
		msg := fmt.Sprintf("status %d", resp.StatusCode())
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrUploadRejected, msg)
	}

	return &UploadedFile{
		URL:      out.SecureURL,
		PublicID: out.PublicID,
		Format:   out.Format,
		Bytes:    out.Bytes,
	}, nil
}

// Delete always fails with ErrDeleteUnsupported: unsigned presets cannot
// destroy assets, so orphaned raw files are cleaned up from the Cloudinary console.
func (u *CloudinaryUploader) Delete(ctx context.Context, publicID string) error {
	return fmt.Errorf("%w: %s", ErrDeleteUnsupported, publicID)
}
