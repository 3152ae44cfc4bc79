// Package boviplan implementa ports/feed.Source contra la API del
// proveedor de manejo ganadero.
package boviplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"cattle-dental-health/internal/platform/httpclient"
	"cattle-dental-health/internal/platform/logger"
	"cattle-dental-health/internal/ports/feed"
)

type Client struct {
	http       *httpclient.Client
	clientName string
	log        logger.Logger
}

type Options struct {
	BaseURL    string
	ClientName string
	Timeout    time.Duration
	Log        logger.Logger
}

func New(opts Options) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(opts.BaseURL, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("boviplan: %w", err)
	}
	if opts.ClientName == "" {
		return nil, errors.New("boviplan: client name requerido")
	}
	return &Client{
		http:       hc,
		clientName: opts.ClientName,
		log:        opts.Log.With(map[string]any{"adapter": "boviplan"}),
	}, nil
}

// FetchAnimals trae los registros creados o modificados dentro del período.
// El proveedor responde 404 cuando no hay datos; eso no es un error para
// nosotros, se traduce a feed.ErrNoData.
func (c *Client) FetchAnimals(ctx context.Context, dtInit, dtEnd string) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("client", c.clientName)
	q.Set("dt_init", dtInit)
	q.Set("dt_end", dtEnd)

	var raw json.RawMessage
	err := c.http.DoJSON(ctx, http.MethodGet, "/animals_in?"+q.Encode(), nil, nil, &raw)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, feed.ErrNoData
		}
		c.log.Error("fetch de animales falló", map[string]any{
			"dt_init": dtInit,
			"dt_end":  dtEnd,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("boviplan: fetch animals: %w", err)
	}

	return decodeRecords(raw)
}

// decodeRecords tolera los dos formatos conocidos del proveedor:
// {"data": [...]} o el array pelado.
func decodeRecords(raw json.RawMessage) ([]map[string]any, error) {
	if len(raw) == 0 {
		return nil, feed.ErrNoData
	}

	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("boviplan: formato de respuesta desconocido: %w", err)
	}
	return records, nil
}
