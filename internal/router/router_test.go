package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"cattle-dental-health/internal/router"
)

type stubFeed struct {
	items []map[string]any
}

func (s *stubFeed) FetchAnimals(ctx context.Context, dtInit, dtEnd string) ([]map[string]any, error) {
	return s.items, nil
}

func TestHTTP_EndToEnd_WebhookEvaluationReport(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	evaluatorID := "vet-1"

	// 1) El provider externo empuja un animal por webhook (sin auth)
	var webhookResp struct {
		Action string `json:"action"`
		ID     int64  `json:"id"`
		Tag    string `json:"tag"`
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/animal/integration/webhook", "", map[string]any{
			"n°_do_Animal":            "BR-777",
			"n°_do_SISBOV":            "105000000000777",
			"chip":                    "982000000000777",
			"nome_centro_de_custo_id": "Fazenda Teste",
			"peso_atual":              "412.5",
			"fotos": []any{
				map[string]any{"link_do_driver": "https://example.com/foto-frontal.jpg"},
			},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 webhook, got %d body=%s", st, string(body))
		}
		_ = json.Unmarshal(body, &webhookResp)
		if webhookResp.Action != "CREATED" || webhookResp.ID == 0 {
			t.Fatalf("webhook resp = %+v", webhookResp)
		}
	}

	animalID := strconv.FormatInt(webhookResp.ID, 10)

	// 2) El animal quedó consultable con su foto
	{
		st, body := doReq(t, ts.URL, "GET", "/animal/"+animalID, evaluatorID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get animal, got %d body=%s", st, string(body))
		}
		var resp struct {
			TagCode string `json:"tagCode"`
			Media   []struct {
				S3URLPath string `json:"s3UrlPath"`
			} `json:"media"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.TagCode != "BR-777" {
			t.Fatalf("tagCode = %q", resp.TagCode)
		}
		if len(resp.Media) != 1 {
			t.Fatalf("media = %d, want 1", len(resp.Media))
		}
	}

	// 3) Re-entrega del mismo payload: update, sin foto duplicada
	{
		st, body := doReq(t, ts.URL, "POST", "/animal/integration/webhook", "", map[string]any{
			"n°_do_SISBOV": "105000000000777",
			"fotos": []any{
				map[string]any{"link_do_driver": "https://example.com/foto-frontal.jpg"},
			},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 webhook #2, got %d body=%s", st, string(body))
		}
		var resp struct {
			Action string `json:"action"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Action != "UPDATED" {
			t.Fatalf("action = %q, want UPDATED", resp.Action)
		}
	}

	// 4) Sin usuario no se puede evaluar
	{
		st, _ := doReq(t, ts.URL, "POST", "/evaluations", "", map[string]any{
			"animalId": webhookResp.ID,
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 create evaluation without user, got %d", st)
		}
	}

	// 5) El veterinario registra una evaluación con fractura severa
	{
		st, body := doReq(t, ts.URL, "POST", "/evaluations", evaluatorID, map[string]any{
			"animalId": webhookResp.ID,
			"notes":    "fractura en pinza izquierda",
			"teeth": []map[string]any{
				{"toothCode": "I1_L", "fractureLevel": 2},
			},
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create evaluation, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "CRITICAL" {
			t.Fatalf("status = %q, want CRITICAL", resp.Status)
		}
	}

	// 6) El histórico global la lista como crítica
	{
		st, body := doReq(t, ts.URL, "GET", "/evaluations/history", evaluatorID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 history, got %d body=%s", st, string(body))
		}
		var resp struct {
			Data []struct {
				Code          string `json:"code"`
				Status        string `json:"status"`
				WorstFracture int    `json:"worstFracture"`
			} `json:"data"`
			Meta struct {
				Total int `json:"total"`
			} `json:"meta"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Meta.Total != 1 || len(resp.Data) != 1 {
			t.Fatalf("history = %s", string(body))
		}
		if resp.Data[0].Status != "CRITICAL" || resp.Data[0].WorstFracture != 2 {
			t.Fatalf("history row = %+v", resp.Data[0])
		}
	}

	// 7) El dashboard refleja el caso crítico
	{
		st, body := doReq(t, ts.URL, "GET", "/evaluations/dashboard", evaluatorID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 dashboard, got %d body=%s", st, string(body))
		}
		var resp struct {
			TotalAnimals  int `json:"totalAnimals"`
			CriticalCases int `json:"criticalCases"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.TotalAnimals != 1 || resp.CriticalCases != 1 {
			t.Fatalf("dashboard = %s", string(body))
		}
	}

	// 8) El reporte agrega la evaluación y diagnostica la fractura
	{
		st, body := doReq(t, ts.URL, "GET", "/reports/stats", evaluatorID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 reports, got %d body=%s", st, string(body))
		}
		var resp struct {
			General struct {
				Total    int `json:"total"`
				Critical int `json:"critical"`
			} `json:"general"`
			CriticalAnimals []struct {
				Tag       string `json:"tag"`
				Diagnosis string `json:"diagnosis"`
			} `json:"criticalAnimals"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.General.Total != 1 || resp.General.Critical != 1 {
			t.Fatalf("reports general = %s", string(body))
		}
		if len(resp.CriticalAnimals) != 1 || resp.CriticalAnimals[0].Diagnosis != "Fratura Grau 2 (Dente I1_L)" {
			t.Fatalf("criticalAnimals = %s", string(body))
		}
	}
}

func TestHTTP_SyncAuditsRun(t *testing.T) {
	feed := &stubFeed{items: []map[string]any{
		{"n°_do_SISBOV": "105000000000001"},
		{"n°_do_SISBOV": "105000000000002"},
	}}
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil, Feed: feed}))
	defer ts.Close()

	{
		st, body := doReq(t, ts.URL, "GET", "/animal/integration/sync", "admin-1", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 sync, got %d body=%s", st, string(body))
		}
		var resp struct {
			Message string `json:"message"`
			Stats   *struct {
				Total   int `json:"total"`
				Created int `json:"created"`
			} `json:"stats"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Stats == nil || resp.Stats.Total != 2 || resp.Stats.Created != 2 {
			t.Fatalf("sync resp = %s", string(body))
		}
	}

	// la corrida quedó auditada sin actor
	{
		st, body := doReq(t, ts.URL, "GET", "/audit", "admin-1", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 audit, got %d body=%s", st, string(body))
		}
		var entries []struct {
			Action string  `json:"action"`
			UserID *string `json:"userId"`
		}
		_ = json.Unmarshal(body, &entries)

		foundSuccess := false
		for _, e := range entries {
			if e.Action == "SYNC_SUCCESS" {
				foundSuccess = true
				if e.UserID != nil {
					t.Fatalf("SYNC_SUCCESS debe auditarse sin actor")
				}
			}
		}
		if !foundSuccess {
			t.Fatalf("audit sin SYNC_SUCCESS: %s", string(body))
		}
	}
}

func TestHTTP_SyncWithoutFeedIs502(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	st, _ := doReq(t, ts.URL, "GET", "/animal/integration/sync", "admin-1", nil)
	if st != http.StatusBadGateway {
		t.Fatalf("expected 502 sync without feed, got %d", st)
	}
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
