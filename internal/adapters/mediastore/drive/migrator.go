// Package drive migra fotos alojadas en Google Drive hacia el storage
// gestionado. Implementa ports/mediastore.Migrator.
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"cattle-dental-health/internal/platform/httpclient"
	"cattle-dental-health/internal/platform/logger"
)

// fileIDPattern extrae el id de links tipo
// https://drive.google.com/file/d/<ID>/view
var fileIDPattern = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)

type Migrator struct {
	download *httpclient.Client
	upload   *httpclient.Client
	apiKey   string
	bucket   string
	log      logger.Logger
	now      func() time.Time
}

type Options struct {
	StoreBaseURL string
	APIKey       string
	Bucket       string
	Timeout      time.Duration
	Log          logger.Logger
}

func New(opts Options) (*Migrator, error) {
	if strings.TrimSpace(opts.StoreBaseURL) == "" {
		return nil, errors.New("drive: store base url requerido")
	}
	up, err := httpclient.NewWithBaseURL(opts.StoreBaseURL, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("drive: %w", err)
	}
	bucket := opts.Bucket
	if bucket == "" {
		bucket = "animaltools-media"
	}
	return &Migrator{
		download: httpclient.New(opts.Timeout),
		upload:   up,
		apiKey:   opts.APIKey,
		bucket:   bucket,
		log:      opts.Log.With(map[string]any{"adapter": "drive"}),
		now:      time.Now,
	}, nil
}

func (m *Migrator) CanMigrate(link string) bool {
	return strings.Contains(link, "drive.google.com")
}

// Migrate baja la foto de Drive y la sube al storage gestionado.
// Devuelve la key definitiva del objeto.
func (m *Migrator) Migrate(ctx context.Context, link, tagCode string, index int) (string, error) {
	match := fileIDPattern.FindStringSubmatch(link)
	if len(match) < 2 {
		return "", fmt.Errorf("drive: link sin file id: %s", link)
	}
	fileID := match[1]

	// El endpoint uc sirve el binario directo para archivos públicos.
	raw, err := m.download.GetBytes(ctx, "https://drive.google.com/uc?export=download&id="+fileID, 0)
	if err != nil {
		return "", fmt.Errorf("drive: download %s: %w", fileID, err)
	}

	key := fmt.Sprintf("integrations/%s-%d-%d.jpg", sanitizeTag(tagCode), m.now().UnixMilli(), index)

	if err := m.put(ctx, key, raw); err != nil {
		return "", err
	}

	m.log.Info("foto migrada", map[string]any{
		"tag":   tagCode,
		"key":   key,
		"bytes": len(raw),
	})
	return key, nil
}

func (m *Migrator) put(ctx context.Context, key string, raw []byte) error {
	fullURL, err := m.uploadURL(key)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, fullURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("drive: new upload request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.upload.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("drive: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpclient.HTTPError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (m *Migrator) uploadURL(key string) (string, error) {
	base := strings.TrimRight(m.upload.BaseURL, "/")
	if base == "" {
		return "", errors.New("drive: upload sin base url")
	}
	return base + "/" + m.bucket + "/" + key, nil
}

func sanitizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "sin-caravana"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, tag)
}
