package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Uploader stores image bytes and returns (storagePath, publicURL).
type Uploader interface {
	UploadImage(uid, filename string, data []byte, contentType string) (string, string, error)
}

// Reconciler re-hosts generated images on the application's own storage so
// records never point at ephemeral provider URLs. Re-hosting is best-effort:
// an item that cannot be re-hosted keeps its original string.
type Reconciler struct {
	uploader   Uploader
	httpClient *http.Client
}

func NewReconciler(uploader Uploader) *Reconciler {
	return &Reconciler{
		uploader: uploader,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Reconcile maps every input (URL or data URI) to a storage URL, preserving
// length and order. A per-item failure falls back to the original input and
// never fails the batch.
func (r *Reconciler) Reconcile(ctx context.Context, uid string, images []string) []string {
	out := make([]string, len(images))
	for i, img := range images {
		hosted, err := r.rehost(ctx, uid, img)
		if err != nil {
			log.Printf("reconcile: keeping original for item %d: %v", i, err)
			out[i] = img
			continue
		}
		out[i] = hosted
	}
	return out
}

func (r *Reconciler) rehost(ctx context.Context, uid, img string) (string, error) {
	var data []byte
	var contentType string
	var err error

	if strings.HasPrefix(img, "data:") {
		data, contentType, err = decodeDataURI(img)
	} else {
		data, contentType, err = r.download(ctx, img)
	}
	if err != nil {
		return "", err
	}

	filename := uuid.New().String() + extensionFor(contentType)
	_, publicURL, err := r.uploader.UploadImage(uid, filename, data, contentType)
	if err != nil {
		return "", err
	}

	return publicURL, nil
}

func (r *Reconciler) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}

	return data, contentType, nil
}

// decodeDataURI parses "data:image/png;base64,...." into bytes and a content type.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	sep := strings.Index(rest, ",")
	if sep < 0 {
		return nil, "", fmt.Errorf("malformed data URI")
	}

	meta := rest[:sep]
	payload := rest[sep+1:]

	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("unsupported data URI encoding: %s", meta)
	}
	contentType := strings.TrimSuffix(meta, ";base64")
	if contentType == "" {
		contentType = "image/png"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode data URI: %w", err)
	}

	// Providers label every inline payload image/png; trust the bytes when
	// they sniff as an image.
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		contentType = sniffed
	}

	return data, contentType, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
