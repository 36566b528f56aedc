/*
File Name:  API.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Local HTTP+WebSocket status/control surface exposed by both the server
and client binaries: connectivity status, the peer table, the config-sync
store, and the shutdown/reboot/check-for-updates command surface.
*/

package webapi

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/tablesight/core"
	"github.com/tablesight/core/configsync"
)

// PeerSource abstracts over *core.Server (many peers) and a single
// *core.Client connection (at most one peer) so the status endpoints work
// against either.
type PeerSource interface {
	Peers() []*core.Peer
}

// ClientPeerSource adapts a *core.Client to PeerSource.
type ClientPeerSource struct {
	Client *core.Client
}

func (c ClientPeerSource) Peers() []*core.Peer {
	if server := c.Client.Server(); server != nil {
		return []*core.Peer{server}
	}
	return nil
}

// WSUpgrader is used for the peer-event-stream websocket. It allows all
// origins; this endpoint is intended for localhost tooling only.
var WSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebapiInstance is the running local API surface.
type WebapiInstance struct {
	Router *mux.Router

	peers    PeerSource
	config   *configsync.Store
	commands *core.CommandHandlers
	logError func(function, format string, v ...interface{})

	subscribersMu sync.Mutex
	subscribers   map[chan peerEvent]struct{}

	servers []*http.Server
}

// Start constructs the router, registers every route, and begins
// listening on each address in listenAddresses. apiKey may be uuid.Nil to
// disable authentication (not recommended outside local development).
func Start(peers PeerSource, config *configsync.Store, commands *core.CommandHandlers, logError func(function, format string, v ...interface{}), listenAddresses []string, apiKey uuid.UUID) *WebapiInstance {
	if logError == nil {
		logError = func(function, format string, v ...interface{}) {}
	}

	api := &WebapiInstance{
		Router:      mux.NewRouter(),
		peers:       peers,
		config:      config,
		commands:    commands,
		logError:    logError,
		subscribers: make(map[chan peerEvent]struct{}),
	}

	if apiKey != uuid.Nil {
		api.Router.Use(api.authenticateMiddleware(apiKey))
	}

	api.Router.HandleFunc("/status", api.apiStatus).Methods("GET")
	api.Router.HandleFunc("/status/peers", api.apiStatusPeers).Methods("GET")
	api.Router.HandleFunc("/status/peers/ws", api.apiStatusPeersStream).Methods("GET")
	api.Router.HandleFunc("/config/list", api.apiConfigList).Methods("GET")
	api.Router.HandleFunc("/config/set", api.apiConfigSet).Methods("POST")
	api.Router.HandleFunc("/command/{name}", api.apiCommand).Methods("POST")

	for _, listen := range listenAddresses {
		go api.listen(listen)
	}

	return api
}

func (api *WebapiInstance) listen(listen string) {
	api.logError("webapi.listen", "starting local API at %s", listen)

	server := &http.Server{
		Addr:         listen,
		Handler:      api.Router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS12},
	}
	api.subscribersMu.Lock()
	api.servers = append(api.servers, server)
	api.subscribersMu.Unlock()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		api.logError("webapi.listen", "listening on %s: %v", listen, err)
	}
}

// Stop shuts down every listening server.
func (api *WebapiInstance) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	api.subscribersMu.Lock()
	servers := api.servers
	api.subscribersMu.Unlock()

	for _, server := range servers {
		server.Shutdown(ctx)
	}
}

func encodeJSON(w http.ResponseWriter, r *http.Request, logError func(function, format string, v ...interface{}), data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logError("webapi.encodeJSON", "writing response for %s: %v", r.URL.Path, err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, data interface{}) error {
	if r.Body == nil {
		http.Error(w, "", http.StatusBadRequest)
		return errors.New("no request body")
	}
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		http.Error(w, "", http.StatusBadRequest)
		return err
	}
	return nil
}

// authenticateMiddleware checks the x-api-key header against apiKey.
func (api *WebapiInstance) authenticateMiddleware(apiKey uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			keyID, err := uuid.Parse(r.Header.Get("x-api-key"))
			if err != nil || keyID != apiKey {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
