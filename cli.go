package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// Applicator defines the interface for the core application logic.
// This allows the CLI to be tested independently of the main app implementation.
type Applicator interface {
	Serve(ctx context.Context, cfgPath string) error
	InitDB(ctx context.Context, cfgPath string) error
	Ingest(ctx context.Context, cfgPath, userID string, pdfPaths []string) error
	Dashboard(ctx context.Context, cfgPath, userID string) error
	ExportSQL(ctx context.Context, destDir string) error
}

// BuildCLI creates the full CLI command structure for the application.
// It injects the core application logic (the Applicator) into the command actions.
func BuildCLI(app Applicator) *cli.Command {
	// Define flags that are common across multiple commands.
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "config.yaml",
		Usage:   "path to the configuration file",
	}

	userFlag := &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "tenant user id (defaults to default_user_id from the config)",
	}

	serveCmd := &cli.Command{
		Name:  "serve",
		Usage: "Run the statement dashboard web server",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Serve(ctx, c.String("config"))
		},
	}

	initDBCmd := &cli.Command{
		Name:  "init-db",
		Usage: "Create the database file and schema",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.InitDB(ctx, c.String("config"))
		},
	}

	ingestCmd := &cli.Command{
		Name:      "ingest",
		Usage:     "Extract and store one or more statement PDFs",
		ArgsUsage: "statement.pdf [statement.pdf ...]",
		Flags:     []cli.Flag{configFlag, userFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return fmt.Errorf("at least one statement PDF path is required")
			}
			return app.Ingest(ctx, c.String("config"), c.String("user"), paths)
		},
	}

	dashboardCmd := &cli.Command{
		Name:  "dashboard",
		Usage: "Print the dashboard aggregates for a tenant as JSON",
		Flags: []cli.Flag{configFlag, userFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Dashboard(ctx, c.String("config"), c.String("user"))
		},
	}

	exportSQLCmd := &cli.Command{
		Name:  "export-sql",
		Usage: "Write the embedded sql files to disk for customisation via sql_path",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dest",
				Value: ".",
				Usage: "directory in which to create the sql directory",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.ExportSQL(ctx, c.String("dest"))
		},
	}

	// Assemble the root command.
	rootCmd := &cli.Command{
		Name:     "cardledger",
		Usage:    "Ingest credit card statement PDFs and serve spending dashboards",
		Commands: []*cli.Command{serveCmd, initDBCmd, ingestCmd, dashboardCmd, exportSQLCmd},
	}

	return rootCmd
}
