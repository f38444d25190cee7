package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/fileripper/internal/definition"
	"github.com/JonMunkholm/fileripper/internal/record"
)

// maxErrorBody caps how much of a failed reply is kept in the error.
const maxErrorBody = 512

// APIExporter POSTs each envelope as JSON to a fixed URL.
type APIExporter struct {
	url     string
	headers map[string]string
	client  *http.Client
	logger  *slog.Logger
}

func newAPI(def definition.ExportDefinition, opts Options) *APIExporter {
	return &APIExporter{
		url:     def.APIURL,
		headers: def.HTTPHeaders,
		client:  opts.HTTPClient,
		logger:  opts.Logger,
	}
}

// Export sends result and decodes the JSON reply. An empty reply body is
// accepted.
func (e *APIExporter) Export(ctx context.Context, result record.Result) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Target: e.url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for name, value := range e.headers {
		req.Header.Set(name, value)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return &TransportError{Target: e.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{
			Target:     e.url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected reply: %s", bytes.TrimSpace(snippet)),
		}
	}

	var reply any
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil && !errors.Is(err, io.EOF) {
		return &TransportError{Target: e.url, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode reply: %w", err)}
	}

	e.logger.Debug("api export acknowledged",
		"url", e.url,
		"status", resp.StatusCode,
		"records", len(result.Records),
		"reply", reply,
	)
	return nil
}

func (e *APIExporter) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
