// Package cli implements the fb4rasp command-line interface.
//
// The root command runs the dashboard; subcommands cover the rest:
//
//	fb4rasp [run]          - Start the engine, producers and dashboard
//	fb4rasp agent          - Serve system snapshots to a dashboard over WebSocket
//	fb4rasp doctor         - Diagnose config, router and agent connectivity
//	fb4rasp init           - Create a starter config file
//	fb4rasp remote add     - Add a monitored host to the config file
//	fb4rasp remote list    - Show configured remotes
//	fb4rasp version        - Print build information
//
// Global flags (--config, --verbose) live on the root command. Commands
// load the config with the config package, build their collaborators and
// block until the user quits or a signal arrives.
package cli
