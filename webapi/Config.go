/*
File Name:  Config.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Exposes the config-sync store to local tooling: listing the current
snapshot and setting a single value through its text mirror, the same
entry point a UI numeric field would use.
*/

package webapi

import (
	"net/http"
)

type apiConfigEntry struct {
	Category    string `json:"category"`
	Name        string `json:"name"`
	Type        uint8  `json:"type"`
	Description string `json:"description"`
	TextValue   string `json:"value"`
}

// apiConfigList returns the current configuration snapshot, sorted by
// full name, using each entry's text mirror.
//
// Request:  GET /config/list
// Response: 200 with a JSON array of apiConfigEntry
func (api *WebapiInstance) apiConfigList(w http.ResponseWriter, r *http.Request) {
	if api.config == nil {
		encodeJSON(w, r, api.logError, []apiConfigEntry{})
		return
	}

	snapshot := api.config.Snapshot()
	out := make([]apiConfigEntry, 0, len(snapshot))
	for _, entry := range snapshot {
		out = append(out, apiConfigEntry{
			Category:    entry.Category,
			Name:        entry.Name,
			Type:        uint8(entry.Type),
			Description: entry.Description,
			TextValue:   entry.TextMirror,
		})
	}
	encodeJSON(w, r, api.logError, out)
}

type apiConfigSetRequest struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

// apiConfigSet applies a single value through its text mirror. A no-op
// update (the submitted text equals the current value) is silently
// absorbed without re-broadcasting, per the config-sync loop-suppression
// rule.
//
// Request:  POST /config/set with JSON apiConfigSetRequest
// Response: 204 on success, 400 on a malformed body or unparsable value
func (api *WebapiInstance) apiConfigSet(w http.ResponseWriter, r *http.Request) {
	if api.config == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	var req apiConfigSetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	if err := api.config.SetFromText(req.Category, req.Name, req.Value); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
