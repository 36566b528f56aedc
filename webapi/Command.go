/*
File Name:  Command.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Exposes the CLI command surface (shutdown, reboot, check-for-updates)
over HTTP, routing requests through the same CommandHandlers registry the
wire protocol's CommandMessage payload dispatches through.
*/

package webapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tablesight/core/protocol"
)

type apiCommandRequest struct {
	Parameters []string `json:"parameters"`
}

// apiCommand dispatches {name} through the host's CommandHandlers. A
// missing or failing handler is logged by CommandHandlers.Dispatch and
// this still responds 202, matching the "logged, never escalated"
// error model the command surface shares with the wire protocol.
//
// Request:  POST /command/{name} with optional JSON apiCommandRequest
// Response: 202 once dispatched; 404 if no commands registry is wired
func (api *WebapiInstance) apiCommand(w http.ResponseWriter, r *http.Request) {
	if api.commands == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	name := mux.Vars(r)["name"]

	var req apiCommandRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			return
		}
	}

	api.commands.Dispatch(&protocol.CommandMessage{Command: name, Parameters: req.Parameters})
	w.WriteHeader(http.StatusAccepted)
}
