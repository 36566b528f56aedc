/*
File Name:  Command.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Fixes the CLI surface external tooling expects (shutdown, reboot,
check-for-updates), carried as protocol.CommandMessage payloads. The core
only transports and dispatches the envelope; the actual OS-level actions
are supplied by the host application via CommandHandlers.
*/

package core

import "github.com/tablesight/core/protocol"

// Command names understood by the default CLI surface.
const (
	CommandShutdown        = "shutdown"
	CommandReboot          = "reboot"
	CommandCheckForUpdates = "check-for-updates"
)

// CommandHandlers maps a command name to the function invoked when a
// CommandMessage carrying that name is dispatched. Unregistered commands
// are logged and dropped, matching the "unknown id" error model.
type CommandHandlers struct {
	handlers map[string]func(parameters []string) error
	filters  *Filters
}

// NewCommandHandlers creates an empty handler set.
func NewCommandHandlers(filters *Filters) *CommandHandlers {
	filters.initFilters()
	return &CommandHandlers{handlers: make(map[string]func(parameters []string) error), filters: filters}
}

// Register installs the handler for a command name, overwriting any
// previous registration.
func (c *CommandHandlers) Register(command string, handler func(parameters []string) error) {
	c.handlers[command] = handler
}

// Dispatch looks up and runs the handler for msg.Command. A missing
// handler or handler error is logged via Filters.LogError, never returned
// to the caller, matching the protocol core's "state violation: logged,
// never raises" error model.
func (c *CommandHandlers) Dispatch(msg *protocol.CommandMessage) {
	handler, ok := c.handlers[msg.Command]
	if !ok {
		c.filters.LogError("CommandHandlers.Dispatch", "no handler registered for command %q", msg.Command)
		return
	}
	if err := handler(msg.Parameters); err != nil {
		c.filters.LogError("CommandHandlers.Dispatch", "command %q failed: %v", msg.Command, err)
	}
}
