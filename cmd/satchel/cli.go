package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/satchel/internal/errors"
	"github.com/hpungsan/satchel/internal/mcp"
	"github.com/hpungsan/satchel/internal/ops"
	"github.com/hpungsan/satchel/internal/web"
)

// newCLIApp creates the CLI application with all commands. env may be nil
// when only help or version output is needed.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "satchel",
		Usage:   "Chat-session artifact store",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(env),
			mcpCmd(env),
			statsCmd(env),
			gcCmd(env),
			sessionCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind to"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			if len(env.Config.AuthTokens) == 0 {
				return outputError(errors.NewInvalidRequest("no auth_tokens configured; add them to config.json"))
			}

			auth := web.NewStaticTokenAuthenticator(env.Config.AuthTokens)
			srv := web.NewServer(env, auth, c.String("bind"), c.Int("port"))
			return web.Run(env, srv)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP tool server on stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "User identity the tools act as (defaults to mcp_user from config)"},
		},
		Action: func(c *cli.Context) error {
			userID := c.String("user")
			if userID == "" {
				userID = env.Config.MCPUser
			}
			if userID == "" {
				return outputError(errors.NewInvalidRequest("acting user is required: pass --user or set mcp_user in config.json"))
			}
			return mcp.Run(env, userID, Version)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Report object store contents per namespace",
		Action: func(c *cli.Context) error {
			stats, err := env.Store.ComputeStats()
			if err != nil {
				return outputError(err)
			}
			return outputJSON(stats)
		},
	}
}

// gcCmd creates the gc command.
func gcCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "gc",
		Usage: "Remove object store directories with no artifact record",
		Action: func(c *cli.Context) error {
			output, err := ops.CollectGarbage(env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// sessionCmd creates the session command group.
func sessionCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Manage chat sessions",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true, Usage: "Owner user id"},
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Session title"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.CreateSession(env, ops.CreateSessionInput{
						UserID: c.String("user"),
						Title:  c.String("title"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Soft-delete a session and disable its artifacts",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true, Usage: "Owner user id"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(errors.NewInvalidRequest("session id argument is required"))
					}
					output, err := ops.DeleteSession(env, ops.DeleteSessionInput{
						SessionID: c.Args().First(),
						UserID:    c.String("user"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if satchelErr, ok := err.(*errors.SatchelError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", satchelErr.Code, satchelErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
