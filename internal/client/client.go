// Package client talks to a running Canopy server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
	"github.com/MikeSquared-Agency/Canopy/internal/store"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("canopy: %d %s", e.StatusCode, e.Message)
}

type HTTPClient struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, clientID string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// UploadCSV stores the CSV stream r as a new dataset.
func (c *HTTPClient) UploadCSV(ctx context.Context, name string, r io.Reader) (*store.Dataset, error) {
	path := "/api/v1/datasets?name=" + url.QueryEscape(name)
	var ds store.Dataset
	if _, err := c.do(ctx, http.MethodPost, path, "text/csv", r, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (c *HTTPClient) ListDatasets(ctx context.Context) ([]*store.Dataset, error) {
	var out []*store.Dataset
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/datasets", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListRuns(ctx context.Context, datasetID *uuid.UUID, limit int) ([]*store.AnalysisRun, error) {
	q := url.Values{}
	if datasetID != nil {
		q.Set("dataset_id", datasetID.String())
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/runs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []*store.AnalysisRun
	if _, err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Analyze runs the pipeline remotely over records. cached reports a
// server-side cache hit.
func (c *HTTPClient) Analyze(ctx context.Context, records []dataset.Record, filter dataset.Filter, opts analysis.Options) (state *analysis.AnalysisState, cached bool, err error) {
	body, err := json.Marshal(map[string]interface{}{"records": records, "filter": filter, "config": opts})
	if err != nil {
		return nil, false, err
	}
	return c.analyze(ctx, "/api/v1/analyze", body)
}

func (c *HTTPClient) AnalyzeDataset(ctx context.Context, id uuid.UUID, filter dataset.Filter, opts analysis.Options) (*analysis.AnalysisState, bool, error) {
	body, err := json.Marshal(map[string]interface{}{"filter": filter, "config": opts})
	if err != nil {
		return nil, false, err
	}
	return c.analyze(ctx, "/api/v1/datasets/"+id.String()+"/analyze", body)
}

func (c *HTTPClient) analyze(ctx context.Context, path string, body []byte) (*analysis.AnalysisState, bool, error) {
	var state analysis.AnalysisState
	resp, err := c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body), &state)
	if err != nil {
		return nil, false, err
	}
	return &state, resp.Header.Get("X-Canopy-Cache") == "hit", nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.clientID != "" {
		req.Header.Set("X-Client-ID", c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp, nil
}
