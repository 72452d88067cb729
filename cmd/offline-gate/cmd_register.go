package main

import (
	offlinegate "github.com/offline-gate/offline-gate"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cmdRegister = &cobra.Command{
	Use:   "register",
	Short: "Register the worker on a running gateway",
	Long: `
The "register" command asks a running gateway to install and activate its
worker. Registration is fire-and-forget: the command returns as soon as the
gateway has accepted the request, not when the worker is active. Use the
"status" endpoint on the control surface to observe the lifecycle.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		registrar := offlinegate.NewRegistrar(registerOptions.ControlURL, &log.Logger)
		return registrar.Register(cmd.Context())
	},
}

// RegisterOptions bundles all options for the register command.
type RegisterOptions struct {
	ControlURL string
}

var registerOptions RegisterOptions

func init() {
	cmdRoot.AddCommand(cmdRegister)

	f := cmdRegister.Flags()
	f.StringVar(&registerOptions.ControlURL, "control-url", "http://localhost:8080/.offline-gate", "control surface of the gateway")
}
