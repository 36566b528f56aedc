/*
File Name:  main.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Example server binary: wires together the peer-to-peer core, the
configuration-sync store, the local webapi surface, and the
shutdown/reboot/check-for-updates command set. The vision pipeline that
would actually produce ScanReport/Metadata/ViewportFrame/PerfStats
payloads is out of scope; this binary only proves the wire layer.
*/

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/tablesight/core"
	"github.com/tablesight/core/configsync"
	"github.com/tablesight/core/protocol"
	"github.com/tablesight/core/store"
	"github.com/tablesight/core/webapi"
)

func main() {
	configFile := flag.String("config", "Config.yaml", "path to the YAML configuration file")
	flag.Parse()

	var config core.Config
	status, err := core.LoadConfig(*configFile, &config)
	if status != core.ExitSuccess {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(status)
	}

	logFile, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(core.ExitErrorLogInit)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	logError := func(function, format string, v ...interface{}) {
		log.Printf("["+function+"] "+format, v...)
	}

	registry := protocol.AppRegistry()
	configsync.Register(registry)

	configStore, err := store.NewPogrebStore("config.db")
	if err != nil {
		logError("main", "opening config store: %v", err)
		os.Exit(core.ExitErrorConfigAccess)
	}

	var server *core.Server
	configManager := configsync.NewStore(func(msg protocol.Message) {
		if server == nil {
			return
		}
		for _, peer := range server.Peers() {
			if err := peer.Send(msg); err != nil {
				logError("configManager.publish", "sending to %s: %v", peer.Address, err)
			}
		}
	})
	loadPersistedConfig(configManager, configStore)
	configManager.Define("search", "CodeDefinition", configsync.String, "active card-code definition", "Standard")
	configManager.Define("capture", "ViewportType", configsync.Integer, "active viewport mode", int64(2))

	var webapiInstance *webapi.WebapiInstance

	filters := &core.Filters{
		OnServerConnect: func(peer *core.Peer) {
			if webapiInstance != nil {
				webapiInstance.NotifyConnect(peer)
			}
		},
		OnDisconnect: func(peer *core.Peer, reason string) {
			if webapiInstance != nil {
				webapiInstance.NotifyDisconnect(peer, reason)
			}
		},
		OnPing: func(peer *core.Peer) {
			if webapiInstance != nil {
				webapiInstance.NotifyPing(peer)
			}
		},
		OnMessage: func(peer *core.Peer, msg interface{}) {
			payload, ok := msg.(protocol.Message)
			if !ok {
				return
			}
			if configManager.OnMessage(peer, payload) {
				return
			}
			logError("OnMessage", "unhandled message %T from %s", payload, peer.Address)
		},
		LogError: logError,
	}

	shutdownRequested := make(chan struct{})
	commands := core.NewCommandHandlers(filters)
	commands.Register(core.CommandShutdown, func(parameters []string) error {
		close(shutdownRequested)
		return nil
	})
	commands.Register(core.CommandReboot, func(parameters []string) error {
		close(shutdownRequested)
		return nil
	})
	commands.Register(core.CommandCheckForUpdates, func(parameters []string) error {
		logError("CommandCheckForUpdates", "update checks are not implemented in this build")
		return nil
	})

	server = core.NewServer(config.DiscoveryPort, config.ControlPort, registry, filters)
	if status, err := server.Start(); status != core.ExitSuccess {
		logError("main", "starting server: %v", err)
		os.Exit(status)
	}

	if len(config.APIListen) > 0 {
		webapiInstance = webapi.Start(server, configManager, commands, logError, config.APIListen, uuid.New())
	}

	log.Printf("tablesight-server %s listening: discovery=%d control=%d", core.Version, config.DiscoveryPort, config.ControlPort)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
	case <-shutdownRequested:
	}

	persistConfig(configManager, configStore)
	server.Stop()
	if webapiInstance != nil {
		webapiInstance.Stop()
	}
}

// configSnapshotKey is the fixed key the server's configsync snapshot is
// persisted under in configStore, so restarts resume with the last
// locally mutated values instead of only the compiled-in defaults.
const configSnapshotKey = "configsync/snapshot"

func persistConfig(manager *configsync.Store, backing store.Store) {
	snapshot := &configsync.ConfigValueList{Entries: manager.Snapshot()}
	backing.Set([]byte(configSnapshotKey), snapshot.Encode())
}

func loadPersistedConfig(manager *configsync.Store, backing store.Store) {
	data, found := backing.Get([]byte(configSnapshotKey))
	if !found {
		return
	}
	msg, err := configsync.DecodeConfigValueList(data)
	if err != nil {
		return
	}
	manager.ApplySnapshot(msg)
}
