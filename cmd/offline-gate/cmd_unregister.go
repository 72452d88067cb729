package main

import (
	offlinegate "github.com/offline-gate/offline-gate"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cmdUnregister = &cobra.Command{
	Use:   "unregister",
	Short: "Remove the worker from a running gateway",
	Long: `
The "unregister" command waits for an active worker instance on the gateway
and parks it, returning the gateway to pure passthrough. Intended for
cleanup and testing; normal application flow never needs it.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		registrar := offlinegate.NewRegistrar(unregisterOptions.ControlURL, &log.Logger)
		return registrar.Unregister(cmd.Context())
	},
}

// UnregisterOptions bundles all options for the unregister command.
type UnregisterOptions struct {
	ControlURL string
}

var unregisterOptions UnregisterOptions

func init() {
	cmdRoot.AddCommand(cmdUnregister)

	f := cmdUnregister.Flags()
	f.StringVar(&unregisterOptions.ControlURL, "control-url", "http://localhost:8080/.offline-gate", "control surface of the gateway")
}
