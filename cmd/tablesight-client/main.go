/*
File Name:  main.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Example client binary: pairs with a server via broadcast discovery (or a
configured/remembered unicast hint), mirrors its configuration store, and
exposes a local webapi surface. The UI that would render ViewportFrame
payloads is out of scope; this binary only proves the wire layer.
*/

package main

import (
	"flag"
	"fmt"
	"log"
	"net"
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

// addressBookName is the fixed label a single-server client remembers its
// last-working server address under.
const addressBookName = "default"

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

	addressBookStore, err := store.NewPogrebStore("addressbook.db")
	if err != nil {
		logError("main", "opening address book: %v", err)
		os.Exit(core.ExitErrorConfigAccess)
	}
	addressBook := store.NewAddressBook(addressBookStore)

	var client *core.Client
	configManager := configsync.NewStore(func(msg protocol.Message) {
		if client == nil {
			return
		}
		if server := client.Server(); server != nil {
			if err := server.Send(msg); err != nil {
				logError("configManager.publish", "sending to server: %v", err)
			}
		}
	})

	var webapiInstance *webapi.WebapiInstance

	filters := &core.Filters{
		OnClientConnect: func(peer *core.Peer) {
			if webapiInstance != nil {
				webapiInstance.NotifyConnect(peer)
			}
			addressBook.Remember(addressBookName, peer.Address.IPv4, peer.Address.Port)
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

	commands := core.NewCommandHandlers(filters)
	commands.Register(core.CommandCheckForUpdates, func(parameters []string) error {
		logError("CommandCheckForUpdates", "update checks are not implemented in this build")
		return nil
	})

	client = core.NewClient(config.DiscoveryPort, core.DefaultClientControlPort, registry, filters)
	client.ServerHints = resolveHints(config.SeedList, addressBook, logError)
	client.OnConfigListRequest = func(server *core.Peer) {
		if err := configsync.RequestSnapshot(server); err != nil {
			logError("OnConfigListRequest", "requesting snapshot from %s: %v", server.Address, err)
		}
	}

	if status, err := client.Start(); status != core.ExitSuccess {
		logError("main", "starting client: %v", err)
		os.Exit(status)
	}

	if len(config.APIListen) > 0 {
		webapiInstance = webapi.Start(webapi.ClientPeerSource{Client: client}, configManager, commands, logError, config.APIListen, uuid.New())
	}

	log.Printf("tablesight-client %s advertising on discovery port %d", core.Version, config.DiscoveryPort)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	client.Stop()
	if webapiInstance != nil {
		webapiInstance.Stop()
	}
}

// resolveHints builds the client's unicast Advertise target list from the
// static seed list plus the address book's last-known-working server, so
// a restart can reconnect without waiting for the broadcast interval.
func resolveHints(seedList []string, addressBook *store.AddressBook, logError func(function, format string, v ...interface{})) []*net.UDPAddr {
	var hints []*net.UDPAddr

	for _, seed := range seedList {
		addr, err := net.ResolveUDPAddr("udp4", seed)
		if err != nil {
			logError("resolveHints", "parsing seed address %q: %v", seed, err)
			continue
		}
		hints = append(hints, addr)
	}

	if ipv4, port, found := addressBook.Lookup(addressBookName); found {
		hints = append(hints, core.PeerAddress{IPv4: ipv4, Port: port}.UDPAddr())
	}

	return hints
}
