// canopyctl analyses sustainability CSV exports locally or against a
// running Canopy server.
//
// Usage:
//
//	canopyctl analyze --csv brands.csv [--format table|json|markdown] [--country USA ...]
//	canopyctl facets --csv brands.csv
//	canopyctl upload --csv brands.csv --name spring --api http://localhost:8700
//	canopyctl runs --api http://localhost:8700 [--dataset ID]
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "canopyctl",
		Usage:   "Sustainability analytics for fashion brand datasets",
		Version: version,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"CANOPY_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Config file supplying analysis defaults",
				EnvVars: []string{"CANOPY_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "api",
				Value:   "http://localhost:8700",
				Usage:   "Canopy server URL",
				EnvVars: []string{"CANOPY_API_URL"},
			},
			&cli.StringFlag{
				Name:    "client-id",
				Value:   "canopyctl",
				Usage:   "Client id sent to the server",
				EnvVars: []string{"CANOPY_CLIENT_ID"},
			},
		},

		Commands: []*cli.Command{
			analyzeCommand(),
			facetsCommand(),
			uploadCommand(),
			runsCommand(),
		},
	}
}
