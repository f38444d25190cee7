package web

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/JonMunkholm/fileripper/internal/definition"
	"github.com/JonMunkholm/fileripper/internal/logging"
	"github.com/JonMunkholm/fileripper/internal/process"
)

const masked = "[MASKED]"

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	State string        `json:"state"` // pending, ok or failed
	Pass  *process.Pass `json:"pass,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	pass := s.passes.LastPass()
	if pass == nil {
		writeJSON(w, http.StatusOK, StatusResponse{State: "pending"})
		return
	}

	state := "ok"
	if !pass.OK() {
		state = "failed"
	}
	writeJSON(w, http.StatusOK, StatusResponse{State: state, Pass: pass})
}

// handleDefinitions lists the definitions of the last pass in configuration
// shape, with credentials removed.
func (s *Server) handleDefinitions(w http.ResponseWriter, r *http.Request) {
	pass := s.passes.LastPass()
	if pass == nil {
		writeJSON(w, http.StatusOK, map[string]any{"file_definitions": []any{}})
		return
	}

	defs := pass.LoadedDefinitions()
	entries := make([]map[string]any, 0, len(defs))
	for _, def := range defs {
		entry, err := maskedEntry(def)
		if err != nil {
			logging.FromContext(r.Context()).Error("failed to render definition",
				"file_mask", def.FileMask(),
				"error", err,
			)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to render definitions"})
			return
		}
		entries = append(entries, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"file_definitions": entries})
}

// maskedEntry renders def as a configuration entry. Passwords in connection
// URLs and every HTTP header value are replaced.
func maskedEntry(def *definition.FileDefinition) (map[string]any, error) {
	data, err := json.Marshal(def)
	if err != nil {
		return nil, err
	}
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}

	exp, _ := entry[definition.KeyExportDefinition].(map[string]any)
	for _, key := range []string{definition.KeyDBConnectionString, definition.KeyAMQPURL, definition.KeyAPIURL} {
		if v, ok := exp[key].(string); ok {
			exp[key] = redactURL(v)
		}
	}
	if headers, ok := exp[definition.KeyHTTPHeaders].(map[string]any); ok {
		for name := range headers {
			headers[name] = masked
		}
	}
	return entry, nil
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return masked
	}
	if u.User == nil {
		return raw
	}
	return u.Redacted()
}
