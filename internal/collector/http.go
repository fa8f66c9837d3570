package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FIIDash/internal/model"
)

// HTTPSource implements Source against the fund data backend.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource creates a backend client. proxyURL may be empty.
func NewHTTPSource(baseURL, proxyURL string, timeout time.Duration) *HTTPSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (s *HTTPSource) Name() string { return "http" }

// apiError is the backend's error body.
type apiError struct {
	Message string `json:"erro"`
}

func (s *HTTPSource) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := s.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		var e apiError
		if json.Unmarshal(body, &e) == nil && e.Message != "" {
			msg = e.Message
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return nil, fmt.Errorf("backend: status %d: %s", resp.StatusCode, msg)
	}
	return body, nil
}

// FetchPanel accepts both the {fiis, ultima_atualizacao} envelope and the
// older bare array.
func (s *HTTPSource) FetchPanel(ctx context.Context) (*model.Snapshot, error) {
	body, err := s.get(ctx, "/fiis", nil)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)

	var snap model.Snapshot
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &snap.Assets); err != nil {
			return nil, fmt.Errorf("backend decode panel: %w", err)
		}
		return &snap, nil
	}
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("backend decode panel: %w", err)
	}
	return &snap, nil
}

// Search resolves a free-form query to a ticker. The backend answers 404
// when no fund matches.
func (s *HTTPSource) Search(ctx context.Context, query string) (model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.SearchResult{}, ErrEmptyQuery
	}
	body, err := s.get(ctx, "/search", url.Values{"q": {query}})
	if err != nil {
		return model.SearchResult{}, err
	}
	var r model.SearchResult
	if err := json.Unmarshal(body, &r); err != nil {
		return model.SearchResult{}, fmt.Errorf("backend decode search: %w", err)
	}
	return r, nil
}

func (s *HTTPSource) FetchAsset(ctx context.Context, ticker string) (model.RawAsset, error) {
	body, err := s.get(ctx, tickerPath(ticker), nil)
	if err != nil {
		return model.RawAsset{}, err
	}
	var raw model.RawAsset
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.RawAsset{}, fmt.Errorf("backend decode asset: %w", err)
	}
	return raw, nil
}

// FetchHourAnalysis pulls the per-hour price aggregation of the last month.
func (s *HTTPSource) FetchHourAnalysis(ctx context.Context, ticker string) (*model.HourAnalysis, error) {
	body, err := s.get(ctx, tickerPath(ticker)+"/analise-horarios", nil)
	if err != nil {
		return nil, err
	}
	var a model.HourAnalysis
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("backend decode hour analysis: %w", err)
	}
	return &a, nil
}

func (s *HTTPSource) FetchQuotes(ctx context.Context, ticker string, period Period) (*model.QuoteHistory, error) {
	q := url.Values{"periodo": {string(period)}}
	body, err := s.get(ctx, tickerPath(ticker)+"/cotacoes", q)
	if err != nil {
		return nil, err
	}
	var h model.QuoteHistory
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, fmt.Errorf("backend decode quotes: %w", err)
	}
	if h.Period == "" {
		h.Period = string(period)
	}
	return &h, nil
}

func (s *HTTPSource) FetchDividends(ctx context.Context, ticker string) (*model.DividendHistory, error) {
	body, err := s.get(ctx, tickerPath(ticker)+"/dividendos", nil)
	if err != nil {
		return nil, err
	}
	var h model.DividendHistory
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, fmt.Errorf("backend decode dividends: %w", err)
	}
	return &h, nil
}

// tickerPath is the resource path of one fund; the backend appends the
// exchange suffix itself.
func tickerPath(ticker string) string {
	return "/fii/" + url.PathEscape(model.NormalizeTicker(ticker))
}
