package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mygallery/config"
	"mygallery/errs"
)

// ImgBB uploads to the ImgBB image hosting API.
type ImgBB struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      *zap.Logger
}

// NewImgBB builds the backend. A nil client gets one with cfg.Timeout.
func NewImgBB(cfg config.ImgBBConfig, client *http.Client, log *zap.Logger) *ImgBB {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	b := &ImgBB{endpoint: cfg.Endpoint, apiKey: cfg.APIKey, client: client, log: log}
	log.Info("imgbb storage configured", zap.String("api_key", maskKey(cfg.APIKey)))
	return b
}

func (b *ImgBB) Name() string { return "imgbb" }

type imgbbResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		ID         string `json:"id"`
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
		DeleteURL  string `json:"delete_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (b *ImgBB) Store(ctx context.Context, file File) (string, error) {
	if file.Empty() {
		return "", errEmpty()
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", file.Name)
	if err != nil {
		return "", errs.Wrap(errs.KindStorage, err, "Failed to encode image")
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return "", errs.Wrap(errs.KindStorage, err, "Failed to read image")
	}
	if err := mw.Close(); err != nil {
		return "", errs.Wrap(errs.KindStorage, err, "Failed to encode image")
	}

	// The key travels as a query parameter, never as a form field.
	u, err := url.Parse(b.endpoint)
	if err != nil {
		return "", errs.Wrap(errs.KindStorage, err, "Invalid image host endpoint")
	}
	q := u.Query()
	q.Set("key", b.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &body)
	if err != nil {
		return "", errs.Wrap(errs.KindStorage, err, "Failed to build upload request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	log := b.log.With(
		zap.String("endpoint", b.endpoint),
		zap.String("api_key", maskKey(b.apiKey)),
		zap.String("filename", file.Name),
		zap.Int64("size", file.Size),
	)
	log.Debug("uploading image to imgbb")

	resp, err := b.client.Do(req)
	if err != nil {
		log.Error("imgbb request failed", zap.Error(redact(err, b.apiKey)))
		return "", errs.Wrap(errs.KindStorage, redact(err, b.apiKey), "Image host unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(errs.KindStorage, err, "Failed to read image host response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("imgbb rejected upload", zap.Int("status", resp.StatusCode), zap.ByteString("body", raw))
		return "", errs.E(errs.KindStorage, "Image host returned status %d", resp.StatusCode)
	}

	var envelope imgbbResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Error("imgbb response is not valid JSON", zap.ByteString("body", raw))
		return "", errs.Wrap(errs.KindStorage, err, "Malformed image host response")
	}
	if !envelope.Success {
		return "", errs.E(errs.KindStorage, "Image host reported failure: %s", envelope.Error.Message)
	}
	if envelope.Data.URL == "" {
		log.Error("imgbb response has no image url", zap.ByteString("body", raw))
		return "", errs.E(errs.KindStorage, "Image host did not return an image URL")
	}

	log.Info("uploaded image to imgbb", zap.String("url", envelope.Data.URL))
	return envelope.Data.URL, nil
}

// maskKey keeps only a short prefix of an API key for logs.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}

// redact strips the API key from transport errors, which embed the full
// request URL.
func redact(err error, key string) error {
	if key == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, key) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, key, maskKey(key)))
}
