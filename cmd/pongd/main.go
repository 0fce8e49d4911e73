// pongd is a server-authoritative multiplayer pong server.
//
// Usage:
//
//	pongd serve              - Start the WebSocket game server
//	pongd version            - Print the version
//
// Clients connect over WebSocket at /ws, create or join rooms by code, and
// receive authoritative state snapshots every tick. A small JSON API exposes
// health, live rooms, and recent match history.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pongd",
	Short: "Multiplayer pong game server",
	Long: `pongd runs an authoritative multiplayer pong server.

All physics run on the server at a fixed tick rate; clients send only
directional input and render the state snapshots they receive.

Examples:
  pongd serve
  pongd serve --addr :8080
  pongd serve --config ./pongd.yaml`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println("pongd", version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
