package main

import (
	"net/http"
	"net/url"

	offlinegate "github.com/offline-gate/offline-gate"
	"github.com/offline-gate/offline-gate/cache"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cmdServe = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway in front of the origin",
	Long: `
The "serve" command starts the gateway daemon. The worker starts parked
(pure passthrough) unless --register is given; the host application can
register it at any time through the control surface.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// ServeOptions bundles all options for the serve command.
type ServeOptions struct {
	Config   string
	Origin   string
	Register bool
}

var serveOptions ServeOptions

func init() {
	cmdRoot.AddCommand(cmdServe)

	f := cmdServe.Flags()
	f.StringVar(&serveOptions.Config, "config", "", "path to config file")
	f.StringVar(&serveOptions.Origin, "origin", "", "origin URL to proxy to (overrides config)")
	f.BoolVar(&serveOptions.Register, "register", false, "register the worker on startup")
}

func runServe() error {
	config, err := offlinegate.LoadConfig(serveOptions.Config)
	if err != nil {
		return err
	}
	if serveOptions.Origin != "" {
		config.Origin = serveOptions.Origin
	}
	if err := config.Validate(); err != nil {
		return err
	}

	originURL, err := url.Parse(config.Origin)
	if err != nil {
		return err
	}

	var provider cache.PartitionProvider
	if config.DB == "memory" {
		provider = cache.NewMemCache()
	} else {
		provider = cache.NewSQLiteCache(config.DB)
	}

	gateway := offlinegate.CreateGateway(offlinegate.Config{
		Cache:           provider,
		OriginURL:       *originURL,
		Manifest:        offlinegate.Manifest(config.Manifest),
		APIPathSegment:  config.APIPathSegment,
		ExcludedSchemes: config.ExcludedSchemes,
		Logger:          &log.Logger,
	})

	if serveOptions.Register {
		gateway.Register()
	}

	router := chi.NewRouter()
	router.Mount(config.ControlPrefix, gateway.ControlHandler())
	router.Handle("/*", gateway)

	log.Info().
		Str("listen", config.Listen).
		Str("origin", config.Origin).
		Str("version", gateway.Version()).
		Msg("Starting gateway")
	return http.ListenAndServe(config.Listen, router)
}
