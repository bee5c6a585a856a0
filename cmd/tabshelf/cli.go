package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/config"
	"github.com/hpungsan/tabshelf/internal/errors"
	"github.com/hpungsan/tabshelf/internal/ops"
	"github.com/hpungsan/tabshelf/internal/surface"
	"github.com/hpungsan/tabshelf/internal/tabs"
	"github.com/hpungsan/tabshelf/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(store *ops.Store, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "tabshelf",
		Usage:   "Saved tab collections for your new-tab page",
		Version: Version,
		Commands: []*cli.Command{
			listCmd(store),
			searchCmd(store),
			getCmd(store),
			createCmd(store),
			renameCmd(store),
			deleteCmd(store),
			moveCmd(store),
			addTabCmd(store),
			removeTabCmd(store),
			renameTabCmd(store),
			exportCmd(store, cfg),
			importCmd(store, cfg),
			serveCmd(store, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addressFlags select a collection by name when no id argument is given.
func addressFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Collection name (case-insensitive)"},
	}
}

// resolve finds the collection named by the positional id or --name.
func resolve(store *ops.Store, c *cli.Context) (collection.Collection, error) {
	addr, err := ops.ValidateAddress(c.Args().First(), c.String("name"))
	if err != nil {
		return collection.Collection{}, err
	}
	return store.Resolve(addr)
}

// listCmd creates the list command.
func listCmd(store *ops.Store) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List collections in display order",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := store.Search(ops.SearchInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(store *ops.Store) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find collections whose name, tab titles or tab urls contain a term",
		ArgsUsage: "<term>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			term := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(term) == "" {
				return outputError(errors.NewInvalidRequest("search term is required"))
			}
			output, err := store.Search(ops.SearchInput{
				Query:  term,
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// getCmd creates the get command.
func getCmd(store *ops.Store) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one collection by id or name",
		ArgsUsage: "[id]",
		Flags:     addressFlags(),
		Action: func(c *cli.Context) error {
			col, err := resolve(store, c)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(col)
		},
	}
}

// createCmd creates the create command.
func createCmd(store *ops.Store) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a collection, optionally seeded with urls",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "url", Aliases: []string{"u"}, Usage: "Tab url (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			name := strings.Join(c.Args().Slice(), " ")
			urls := c.StringSlice("url")

			var (
				output *ops.CreateOutput
				err    error
			)
			if len(urls) == 0 {
				output, err = store.CreateEmpty(c.Context, name)
			} else {
				entries := make([]collection.TabEntry, 0, len(urls))
				for _, u := range urls {
					entries = append(entries, collection.TabEntry{URL: u, Title: collection.DisplayTitle("", u)})
				}
				output, err = store.CreateFromOpenTabs(c.Context, ops.CreateInput{Name: name, Tabs: entries})
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// renameCmd creates the rename command.
func renameCmd(store *ops.Store) *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename a collection",
		ArgsUsage: "[id]",
		Flags: append(addressFlags(),
			&cli.StringFlag{Name: "to", Aliases: []string{"t"}, Required: true, Usage: "New name"},
		),
		Action: func(c *cli.Context) error {
			col, err := resolve(store, c)
			if err != nil {
				return outputError(err)
			}
			output, err := store.Rename(c.Context, ops.RenameInput{ID: col.ID, Name: c.String("to")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(store *ops.Store) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a collection",
		ArgsUsage: "[id]",
		Flags:     addressFlags(),
		Action: func(c *cli.Context) error {
			col, err := resolve(store, c)
			if err != nil {
				return outputError(err)
			}
			output, err := store.Delete(c.Context, col.ID)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// moveCmd creates the move command.
func moveCmd(store *ops.Store) *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Move a collection so it sits just before another",
		ArgsUsage: "[id]",
		Flags: append(addressFlags(),
			&cli.StringFlag{Name: "before", Aliases: []string{"b"}, Required: true, Usage: "Id of the collection to move in front of"},
		),
		Action: func(c *cli.Context) error {
			col, err := resolve(store, c)
			if err != nil {
				return outputError(err)
			}
			output, err := store.Reorder(c.Context, ops.ReorderInput{DraggedID: col.ID, BeforeID: c.String("before")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// addTabCmd creates the add-tab command.
func addTabCmd(store *ops.Store) *cli.Command {
	return &cli.Command{
		Name:      "add-tab",
		Usage:     "Add a tab to a collection",
		ArgsUsage: "[id]",
		Flags: append(addressFlags(),
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Required: true, Usage: "Tab url"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Tab title (defaults to the url's host)"},
		),
		Action: func(c *cli.Context) error {
			col, err := resolve(store, c)
			if err != nil {
				return outputError(err)
			}
			url := c.String("url")
			output, err := store.AddTab(c.Context, ops.AddTabInput{
				CollectionID: col.ID,
				Tab:          collection.TabEntry{URL: url, Title: collection.DisplayTitle(c.String("title"), url)},
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// removeTabCmd creates the remove-tab command.
func removeTabCmd(store *ops.Store) *cli.Command {
	return &cli.Command{
		Name:      "remove-tab",
		Usage:     "Remove every tab with a url from a collection",
		ArgsUsage: "[id]",
		Flags: append(addressFlags(),
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Required: true, Usage: "Tab url"},
		),
		Action: func(c *cli.Context) error {
			col, err := resolve(store, c)
			if err != nil {
				return outputError(err)
			}
			output, err := store.DeleteTab(c.Context, ops.DeleteTabInput{CollectionID: col.ID, URL: c.String("url")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// renameTabCmd creates the rename-tab command.
func renameTabCmd(store *ops.Store) *cli.Command {
	return &cli.Command{
		Name:      "rename-tab",
		Usage:     "Change the title of a saved tab",
		ArgsUsage: "[id]",
		Flags: append(addressFlags(),
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Required: true, Usage: "Tab url"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "New title"},
		),
		Action: func(c *cli.Context) error {
			col, err := resolve(store, c)
			if err != nil {
				return outputError(err)
			}
			output, err := store.RenameTab(c.Context, ops.RenameTabInput{
				CollectionID: col.ID,
				URL:          c.String("url"),
				Title:        c.String("title"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(store *ops.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all collections to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.tabshelf/exports/collections-<timestamp>.<ext>)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(ops.ExportJSON), Usage: "Export format: json|markdown"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, store, cfg, ops.ExportInput{
				Path:   c.String("path"),
				Format: ops.ExportFormat(c.String("format")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(store *ops.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import collections from a JSON export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeMerge), Usage: "Import mode: merge|replace"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, store, cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(store *ops.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the new-tab page and the extension bridge",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (overrides config)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (overrides config)"},
			&cli.BoolFlag{Name: "offline", Usage: "Run without the extension bridge; open tabs are simulated in memory"},
		},
		Action: func(c *cli.Context) error {
			if bind := c.String("bind"); bind != "" {
				cfg.Bind = bind
			}
			if port := c.Int("port"); port > 0 {
				cfg.Port = port
			}

			logger := log.New(os.Stderr, "", log.LstdFlags)
			session, opts := newSession(store, cfg, logger, c.Bool("offline"))
			session.Init(c.Context)

			return web.Run(web.NewServer(session, cfg, opts))
		},
	}
}

// newSession wires the page session to either the extension bridge or an
// in-memory browser.
func newSession(store *ops.Store, cfg *config.Config, logger *log.Logger, offline bool) (*surface.Session, web.Options) {
	opts := web.Options{Version: Version, Logger: logger}
	if offline {
		return surface.New(store, tabs.NewMemory(), cfg, surface.WithLogger(logger)), opts
	}

	bridge := tabs.NewBridge(
		tabs.WithTimeout(cfg.BridgeTimeout()),
		tabs.WithOriginPatterns(tabs.OriginPatterns(cfg.AllowedOrigins)),
		tabs.WithBridgeLogger(logger),
		tabs.WithEventHandler(func(event string) {
			logger.Printf("[bridge] extension %s", event)
		}),
	)
	opts.Bridge = bridge
	return surface.New(store, bridge, cfg, surface.WithLogger(logger)), opts
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
	if sErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
