// Package upload sends profile photos to the image upload collaborator.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/pkg/httpclient"
	"github.com/linkwise/linkwise/pkg/tracing"
)

const tracerName = "services/onboarding/upload"

// formField is the multipart field the collaborator reads the file from.
const formField = "file"

// Client uploads images and returns their public URL.
type Client struct {
	http    httpclient.Doer
	url     string
	maxSize int64
	logger  *slog.Logger
}

// New creates an upload client posting to url. Files larger than maxSize
// bytes are refused before any network call.
func New(doer httpclient.Doer, url string, maxSize int64, logger *slog.Logger) *Client {
	return &Client{http: doer, url: url, maxSize: maxSize, logger: logger}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload sends one image and returns its secure_url.
func (c *Client) Upload(ctx context.Context, filename, contentType string, r io.Reader) (secureURL string, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "upload.Image",
		attribute.String("upload.content_type", contentType),
	)
	defer func() { tracing.End(span, err) }()

	if !strings.HasPrefix(contentType, "image/") {
		return "", apperrors.Format("please choose an image file")
	}

	data, err := io.ReadAll(io.LimitReader(r, c.maxSize+1))
	if err != nil {
		return "", apperrors.InvalidInput("could not read the uploaded file")
	}
	if int64(len(data)) > c.maxSize {
		return "", apperrors.Format(fmt.Sprintf("photos must be smaller than %d MB", c.maxSize>>20))
	}
	if len(data) == 0 {
		return "", apperrors.Format("the uploaded file is empty")
	}

	body, formType, err := multipartBody(filename, contentType, data)
	if err != nil {
		return "", apperrors.Internal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("create upload request: %w", err))
	}
	req.Header.Set("Content-Type", formType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "photo upload failed", slog.String("error", err.Error()))
		return "", httpclient.TransportError(err)
	}
	if resp.StatusCode >= 300 {
		return "", httpclient.ParseResponseError(resp)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", apperrors.Network(fmt.Errorf("decode upload response: %w", err))
	}
	if out.SecureURL == "" {
		return "", apperrors.Network(fmt.Errorf("upload response without secure_url"))
	}

	c.logger.InfoContext(ctx, "photo uploaded", slog.Int("bytes", len(data)))
	return out.SecureURL, nil
}

func multipartBody(filename, contentType string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, filepath.Base(filename)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
