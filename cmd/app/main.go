package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/vollan/othala/internal"
	"github.com/vollan/othala/internal/index"
	"github.com/vollan/othala/internal/launcher"
	"github.com/vollan/othala/internal/logbook"
	"github.com/vollan/othala/internal/models"
	"github.com/vollan/othala/internal/printer"
	"github.com/vollan/othala/internal/reconcile"
	"github.com/vollan/othala/internal/registry"
	"github.com/vollan/othala/internal/selector"
	pkgconfig "github.com/vollan/othala/pkg/config"
)

func newApp(cmd *cli.Command) (*internal.App, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOrInit(configPath, internal.NewDefaultConfig(), cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return internal.New(internal.WithConfig(cfg))
}

func clientNewAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	client, err := app.Registry.NewClient(registry.NewClientParams{
		Name:    cmd.String("name"),
		ID:      cmd.String("id"),
		Email:   cmd.String("email"),
		Phone:   cmd.String("phone"),
		Contact: cmd.String("contact"),
		Notes:   cmd.String("notes"),
	})
	if err != nil {
		return printer.Errorf("create client: %v", err)
	}
	printer.Success("client %s (%s) created", client.ID, client.Name)
	return nil
}

func clientListAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	clients, err := app.Store.Clients()
	if err != nil {
		return err
	}
	page, ok := selector.ClientPage(clients, int(cmd.Int("page")))
	if !ok {
		if page.TotalPages == 0 {
			printer.Info("no clients yet")
			return nil
		}
		printer.Info("no more clients (pages 0..%d)", page.TotalPages-1)
		return nil
	}

	printer.Heading("Clients — page %d of %d", page.Index+1, page.TotalPages)
	for i, item := range page.Items {
		printer.Info("%d) %-6s %s", i+1, item.ID, item.Label)
	}
	return nil
}

func projectNewAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	project, overflow, err := app.Registry.NewProject(
		cmd.String("client"), cmd.String("type"), cmd.String("id"))
	if err != nil {
		return printer.Errorf("create project: %v", err)
	}
	printer.Success("project %s created at %s", project.ID, project.Path)
	if overflow {
		printer.Warning("more than 9 projects for this client today; ids now run past one digit")
	}
	return nil
}

func projectListAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if cmd.Bool("from-index") {
		return listProjectsFromIndex(app, cmd.String("client"), int(cmd.Int("page")))
	}

	projects, err := app.Store.Projects()
	if err != nil {
		return err
	}
	if client := cmd.String("client"); client != "" {
		filtered := models.Projects{}
		for id, p := range projects {
			if p.ClientID == client {
				filtered[id] = p
			}
		}
		projects = filtered
	}

	page, ok := selector.ProjectPage(projects, int(cmd.Int("page")))
	if !ok {
		if page.TotalPages == 0 {
			printer.Info("no projects yet")
			return nil
		}
		printer.Info("no more projects (pages 0..%d)", page.TotalPages-1)
		return nil
	}

	printer.Heading("Projects — page %d of %d (most recent first)", page.Index+1, page.TotalPages)
	for i, item := range page.Items {
		printer.Info("%d) %-16s client %s", i+1, item.ID, item.Label)
	}
	return nil
}

// listProjectsFromIndex pages through the sqlite index instead of the
// JSON units; the index carries status, which the units do not.
func listProjectsFromIndex(app *internal.App, clientID string, page int) error {
	rows, total, err := app.DB.ListCases(clientID, selector.PageSize, page*selector.PageSize)
	if err != nil {
		return err
	}
	totalPages := (total + selector.PageSize - 1) / selector.PageSize
	if len(rows) == 0 {
		if total == 0 {
			printer.Info("no projects in the index")
			return nil
		}
		printer.Info("no more projects (pages 0..%d)", totalPages-1)
		return nil
	}

	printer.Heading("Projects — page %d of %d (most recent first)", page+1, totalPages)
	for i, row := range rows {
		printer.Info("%d) %-16s client %-6s %s", i+1, row.ID, row.ClientID, row.Status)
	}
	return nil
}

func projectOpenAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	project, err := app.Registry.OpenProject(cmd.StringArg("id"))
	if err != nil {
		return printer.Errorf("open project: %v", err)
	}
	printer.Success("opened %s", project.ID)

	if err := launcher.OpenDir(project.Path); err != nil {
		printer.Warning("file browser: %v", err)
	}
	if viewer := app.Config.User.Viewer; viewer != "" && cmd.Bool("viewer") {
		if err := launcher.Launch(viewer, project.Path); err != nil {
			printer.Warning("viewer: %v", err)
		}
	}
	return nil
}

func projectStatusAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	pid, status := cmd.StringArg("id"), cmd.StringArg("status")
	if err := app.Registry.UpdateStatus(pid, status); err != nil {
		return printer.Errorf("update status: %v", err)
	}
	printer.Success("%s → %s", pid, status)
	return nil
}

func logAddAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	projects, err := app.Store.Projects()
	if err != nil {
		return err
	}
	project, ok := projects[cmd.StringArg("id")]
	if !ok {
		return printer.Errorf("unknown project %q", cmd.StringArg("id"))
	}

	entry, err := app.Logbook.AddLog(project, app.Config.User.Name, cmd.String("step"), cmd.String("notes"))
	if err != nil {
		return printer.Errorf("add log: %v", err)
	}
	printer.Success("log %s recorded", entry.LogID)
	return nil
}

func logListAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	projects, err := app.Store.Projects()
	if err != nil {
		return err
	}
	project, ok := projects[cmd.StringArg("id")]
	if !ok {
		return printer.Errorf("unknown project %q", cmd.StringArg("id"))
	}

	entries, err := app.Logbook.ReadLogs(project)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printer.Info("no log entries")
		return nil
	}
	printer.Heading("Logs for %s", project.ID)
	for _, e := range entries {
		printer.Info("%s  %-20s %s (%d images)",
			e.Timestamp.Format("2006-01-02 15:04"), e.Step, e.Notes, len(e.Images))
	}
	return nil
}

func logStepsAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	recents, err := app.Store.Recents()
	if err != nil {
		return err
	}
	if len(recents.Steps) == 0 {
		printer.Info("no recent steps")
		return nil
	}
	for i, step := range recents.Steps {
		printer.Info("%d) %s", i+1, step)
	}
	return nil
}

func importAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Registry.ImportVolume(cmd.StringArg("id"), cmd.StringArg("source"))
	if err != nil {
		return err
	}
	if !res.OK {
		return printer.Errorf("import failed (%s): %v", res.Reason, res.Err)
	}
	printer.Success("imported %d files (%s) to %s", res.Files, res.Mode, res.Dest)
	return nil
}

func searchAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	hits, err := app.DB.SearchLogs(cmd.StringArg("query"), int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		printer.Info("no matches")
		return nil
	}
	for _, h := range hits {
		printer.Info("%-16s %s  %s — %s", h.CaseID, h.LogID, h.Step, h.Snippet)
	}
	return nil
}

func syncAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	// New() already reconciles and syncs on startup; run once more so the
	// command reports what it found.
	changes, err := reconcile.Run(app.Store, app.Config.Tree.Root, time.Now(), app.Logger)
	if err != nil {
		return err
	}
	if err := index.Sync(app.DB, app.Store, app.Logger); err != nil {
		return err
	}
	if changes.Empty() {
		printer.Success("index already consistent")
	} else {
		printer.Success("healed %d clients, %d projects, %d memberships",
			len(changes.NewClients), len(changes.NewProjects), len(changes.Memberships))
	}
	return nil
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	printer.Info("watching %s (ctrl-c to stop)", app.Config.Tree.Root)
	return app.Watch(ctx)
}

func activityAction(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	projects, err := app.Store.Projects()
	if err != nil {
		return err
	}
	project, ok := projects[cmd.StringArg("id")]
	if !ok {
		return printer.Errorf("unknown project %q", cmd.StringArg("id"))
	}

	lines, err := logbook.TailActivity(project.Path, int(cmd.Int("lines")))
	if err != nil {
		return err
	}
	for _, line := range lines {
		printer.Info("%s", line)
	}
	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
	pageFlag := &cli.IntFlag{
		Name:    "page",
		Aliases: []string{"p"},
		Usage:   "Zero-based page number",
	}

	cmd := &cli.Command{
		Name:  "othala",
		Usage: "Local-first client and project tree manager with structured ids, scaffolding, and a searchable log index",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:  "client",
				Usage: "Manage clients",
				Commands: []*cli.Command{
					{
						Name:   "new",
						Usage:  "Create a client and its directory",
						Action: clientNewAction,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Client name", Required: true},
							&cli.StringFlag{Name: "id", Usage: "Explicit client id (default: suggested from initials)"},
							&cli.StringFlag{Name: "email"},
							&cli.StringFlag{Name: "phone"},
							&cli.StringFlag{Name: "contact"},
							&cli.StringFlag{Name: "notes"},
						},
					},
					{
						Name:   "list",
						Usage:  "List clients in insertion order, 9 per page",
						Action: clientListAction,
						Flags:  []cli.Flag{pageFlag},
					},
				},
			},
			{
				Name:  "project",
				Usage: "Manage projects",
				Commands: []*cli.Command{
					{
						Name:   "new",
						Usage:  "Create a project under a client",
						Action: projectNewAction,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "client", Usage: "Client id", Required: true},
							&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Project type letter (X, A, PK)", Value: registry.DefaultType},
							&cli.StringFlag{Name: "id", Usage: "Explicit project id, bypassing generation"},
						},
					},
					{
						Name:   "list",
						Usage:  "List projects most recent first, 9 per page",
						Action: projectListAction,
						Flags: []cli.Flag{
							pageFlag,
							&cli.StringFlag{Name: "client", Usage: "Only this client's projects"},
							&cli.BoolFlag{Name: "from-index", Usage: "Browse via the sqlite index (includes status)"},
						},
					},
					{
						Name:      "open",
						Usage:     "Mark a project opened and show it in the file browser",
						Action:    projectOpenAction,
						Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "viewer", Usage: "Also launch the configured viewer"},
						},
					},
					{
						Name:      "status",
						Usage:     "Update a project's status",
						Action:    projectStatusAction,
						Arguments: []cli.Argument{&cli.StringArg{Name: "id"}, &cli.StringArg{Name: "status"}},
					},
					{
						Name:      "activity",
						Usage:     "Show the tail of a project's activity log",
						Action:    activityAction,
						Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "lines", Value: 20, Usage: "How many lines to show"},
						},
					},
				},
			},
			{
				Name:  "log",
				Usage: "Project log entries",
				Commands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Append a log entry and create its image folder",
						Action:    logAddAction,
						Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "step", Aliases: []string{"s"}, Usage: "Workflow step", Required: true},
							&cli.StringFlag{Name: "notes", Aliases: []string{"m"}, Usage: "Free-text notes"},
						},
					},
					{
						Name:      "list",
						Usage:     "Show a project's log entries",
						Action:    logListAction,
						Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
					},
					{
						Name:   "steps",
						Usage:  "Show the most recently used steps",
						Action: logStepsAction,
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import a DICOM folder or zip into a project",
				Action:    importAction,
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}, &cli.StringArg{Name: "source"}},
			},
			{
				Name:      "search",
				Usage:     "Full-text search over log steps and notes",
				Action:    searchAction,
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20},
				},
			},
			{
				Name:   "sync",
				Usage:  "Heal the index from the directory tree and rebuild the search index",
				Action: syncAction,
			},
			{
				Name:   "watch",
				Usage:  "Watch the tree and keep the index current until interrupted",
				Action: watchAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
