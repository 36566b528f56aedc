/*
File Name:  Exit.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team
*/

package core

// Exit codes signal why the application exited, for consistent operator
// tooling across the server and client binaries. Clients are free to
// define additional ones above these.
const (
	ExitSuccess           = 0 // Graceful shutdown requested by a command.
	ExitErrorConfigAccess = 1 // Error accessing the config file.
	ExitErrorConfigRead   = 2 // Error reading the config file.
	ExitErrorConfigParse  = 3 // Error parsing the config file.
	ExitErrorLogInit      = 4 // Error initializing the log file.
	ExitErrorBind         = 5 // Could not bind any interface on Server.Start/Client.Start.
)
