package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/fraction12/wireflow/internal/auth"
)

var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "wireflow",
		Usage:   "Wireframing document server with a live collaboration and automation bridge",
		Version: version,
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP and websocket server",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the automation bridge over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:      "export",
				Usage:     "Render a frame of the saved document to a PNG file",
				ArgsUsage: "<output.png>",
				Action:    exportFrame,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "frame",
						Usage: "Frame id (defaults to the active frame)",
					},
					&cli.FloatFlag{
						Name:  "scale",
						Usage: "Pixel scale factor",
						Value: 1,
					},
				},
			},
			{
				Name:      "hash-secret",
				Usage:     "Print a bcrypt hash for BRIDGE_SECRET_HASH",
				ArgsUsage: "<secret>",
				Action:    hashSecret,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func hashSecret(_ context.Context, cmd *cli.Command) error {
	secret := cmd.Args().First()
	if secret == "" {
		return fmt.Errorf("usage: wireflow hash-secret <secret>")
	}
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
