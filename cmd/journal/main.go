package main

import (
	"fmt"
	"os"

	"journal/internal/app"
	"journal/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a JournalApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "ImportDefinition", "NewEvent").
func newApp(cmd *cobra.Command, operation string) (*app.JournalApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewJournalApp(cfg, operation, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	mode := cfg.Display.Color
	if cmd.Flags().Changed("color") {
		mode, _ = cmd.Flags().GetString("color")
	}
	setupColor(mode)
	return a, nil
}

// closeApp closes a, which saves the journal after mutating commands, and
// reports its error unless the command already failed.
func closeApp(a *app.JournalApp, err *error) {
	if cerr := a.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

// scope returns the project scope selected with --project.
func scope(cmd *cobra.Command) (uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString("project")
	return app.ParseScope(raw)
}

var rootCmd = &cobra.Command{
	Use:          "journal",
	Short:        "Structured activity journal",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Projects Dir: %s\n", cfg.Store.ProjectsDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Store:      %s\n", cfg.Store.Type)
		switch cfg.Store.Type {
		case "filesystem", "":
			fmt.Printf("  Projects: %s\n", cfg.Store.ProjectsDir)
		case "sqlite":
			fmt.Printf("  Database: %s\n", cfg.Store.SQLitePath)
		case "s3":
			fmt.Printf("  Bucket:   %s\n", cfg.Store.S3Bucket)
			fmt.Printf("  Prefix:   %s\n", cfg.Store.S3Prefix)
		}
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		fmt.Printf("Color:      %s\n", cfg.Display.Color)
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import NAME FILE",
	Short: "Import a project definition (JSON or YAML)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "ImportDefinition")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if err := a.ImportDefinition(args[0], args[1]); err != nil {
			return fmt.Errorf("importing definition: %w", err)
		}
		fmt.Printf("Imported %s from %s\n", args[0], args[1])
		return nil
	},
}

// project command
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "ListProjects")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		projects := a.Projects()
		if len(projects) == 0 {
			fmt.Println("No projects. Import a definition first.")
			return nil
		}
		for _, p := range projects {
			printProject(a, p)
		}
		return nil
	},
}

// template command
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Browse templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List event templates, or trace templates with --traces",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		traces, _ := cmd.Flags().GetBool("traces")
		s, err := scope(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "ListTemplates")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if traces {
			items := a.TraceTemplates(s)
			if len(items) == 0 {
				fmt.Println("No trace templates.")
			}
			for _, t := range items {
				fmt.Printf("%s  %-30s  last used %s\n", idColor.Sprint(t.ID), t.Name, formatTime(a, t.LastUsed))
			}
			return nil
		}

		items := a.EventTemplates(s)
		if len(items) == 0 {
			fmt.Println("No event templates.")
		}
		for _, t := range items {
			fmt.Printf("%s  %-30s  last used %s\n", idColor.Sprint(t.ID), t.Name, formatTime(a, t.LastUsed))
		}
		return nil
	},
}

// trace command
var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Manage traces",
}

var traceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active traces",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		s, err := scope(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd, "ListTraces")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		traces := a.Traces(s)
		if len(traces) == 0 {
			fmt.Println("No active traces.")
			return nil
		}
		for _, t := range traces {
			printTraceItem(a, t)
		}
		return nil
	},
}

var traceNewCmd = &cobra.Command{
	Use:   "new TEMPLATE NAME",
	Short: "Start a trace from a trace template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		origins, _ := cmd.Flags().GetStringArray("origin")
		s, err := scope(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd, "NewTrace")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		view, err := a.NewTrace(args[0], args[1], origins, s)
		if err != nil {
			return fmt.Errorf("creating trace: %w", err)
		}
		printTrace(a, view)
		return nil
	},
}

var traceViewCmd = &cobra.Command{
	Use:   "view TRACE",
	Short: "Show a trace and the suggested next events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		s, err := scope(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd, "ViewTrace")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		view, err := a.ViewTrace(args[0], s)
		if err != nil {
			return err
		}
		printTrace(a, view)
		return nil
	},
}

var traceCompleteCmd = &cobra.Command{
	Use:   "complete TRACE",
	Short: "Mark a trace completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		s, err := scope(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd, "CompleteTrace")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		view, err := a.CompleteTrace(args[0], s)
		if err != nil {
			return fmt.Errorf("completing trace: %w", err)
		}
		fmt.Printf("Completed %s %s\n", view.Name, idColor.Sprint(view.ID))
		return nil
	},
}

// event command
var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage events",
}

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		s, err := scope(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd, "ListEvents")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		events := a.Events(s)
		if len(events) == 0 {
			fmt.Println("No events.")
			return nil
		}
		for _, e := range events {
			fmt.Printf("%s  %-14s  %-24s  %s\n",
				idColor.Sprint(e.ID),
				formatTime(a, e.CreatedAt),
				labelColor(e.EventTemplate == nil).Sprint(e.TemplateLabel()),
				labelColor(e.TraceName == nil).Sprint(e.TraceLabel()),
			)
		}
		return nil
	},
}

var eventNewCmd = &cobra.Command{
	Use:   "new TRACE TEMPLATE",
	Short: "Log an event against a trace",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		fields, _ := cmd.Flags().GetStringArray("field")
		tags, _ := cmd.Flags().GetStringArray("tag")
		s, err := scope(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd, "NewEvent")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		view, err := a.NewEvent(args[0], args[1], fields, tags, s)
		if err != nil {
			return fmt.Errorf("logging event: %w", err)
		}
		printEvent(a, view)
		return nil
	},
}

var eventViewCmd = &cobra.Command{
	Use:   "view ID",
	Short: "Show an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "ViewEvent")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		view, err := a.ViewEvent(args[0])
		if err != nil {
			return err
		}
		printEvent(a, view)
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export the whole journal to one snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		passphrase := ""
		if encrypt {
			p, err := readPassphrase("Passphrase: ", true)
			if err != nil {
				return err
			}
			passphrase = p
		}

		a, err := newApp(cmd, "Export")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if err := a.Export(args[0], passphrase); err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
		fmt.Printf("Exported to %s\n", args[0])
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore FILE",
	Short: "Merge a snapshot file into the journal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		encrypted, _ := cmd.Flags().GetBool("encrypted")
		passphrase := ""
		if encrypted {
			p, err := readPassphrase("Passphrase: ", false)
			if err != nil {
				return err
			}
			passphrase = p
		}

		a, err := newApp(cmd, "Restore")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if err := a.Restore(args[0], passphrase); err != nil {
			return fmt.Errorf("restoring: %w", err)
		}
		fmt.Printf("Restored from %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("project", "", "Restrict listings to one project id")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Also write log records to stderr")
	rootCmd.PersistentFlags().String("color", "auto", "Colorize output (auto|always|never)")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	projectCmd.AddCommand(projectListCmd)

	templateCmd.AddCommand(templateListCmd)
	templateListCmd.Flags().Bool("traces", false, "List trace templates instead of event templates")

	traceCmd.AddCommand(traceListCmd)
	traceCmd.AddCommand(traceNewCmd)
	traceNewCmd.Flags().StringArray("origin", nil, "Trace this one originates from (repeatable)")
	traceCmd.AddCommand(traceViewCmd)
	traceCmd.AddCommand(traceCompleteCmd)

	eventCmd.AddCommand(eventListCmd)
	eventCmd.AddCommand(eventNewCmd)
	eventNewCmd.Flags().StringArrayP("field", "f", nil, "Set a field as name=value; name= clears it (repeatable)")
	eventNewCmd.Flags().StringArrayP("tag", "t", nil, "Add a tag (repeatable)")
	eventCmd.AddCommand(eventViewCmd)

	exportCmd.Flags().Bool("encrypt", false, "Encrypt the snapshot with a passphrase")
	restoreCmd.Flags().Bool("encrypted", false, "Decrypt the snapshot with a passphrase")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(restoreCmd)
}
