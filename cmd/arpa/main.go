package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SGullin/arpa/internal/app"
	"github.com/SGullin/arpa/internal/archivist"
	"github.com/SGullin/arpa/internal/config"
	"github.com/SGullin/arpa/internal/database"
	"github.com/SGullin/arpa/internal/database/migrations"
	"github.com/SGullin/arpa/internal/model"
	"github.com/SGullin/arpa/internal/pipeline"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// app.Close(). operation identifies the CLI command being run.
func newApp(operation string, observer pipeline.Observer) (*app.App, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg, operation, observer)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

var rootCmd = &cobra.Command{
	Use:   "arpa",
	Short: "Pulsar observation archive and measurement pipeline",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Driver:       %s\n", cfg.Database.Driver)
		fmt.Printf("Database:     %s\n", cfg.Database.URL)
		fmt.Printf("Raw storage:  %s\n", cfg.Paths.RawFileStorage)
		fmt.Printf("Temp dir:     %s\n", cfg.Paths.TempDir)
		fmt.Printf("Diagnostics:  %s\n", strings.Join(cfg.Behaviour.Diagnostics, ", "))
		fmt.Printf("Log dir:      %s\n", cfg.Paths.LogDir)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the metadata database",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or migrate the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		db, driver, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrations.Up(db, driver); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}

		fmt.Println("Database schema is up to date.")
		return nil
	},
}

var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the database schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		db, driver, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrations.Check(db, driver); err != nil {
			return err
		}

		fmt.Println("Database schema is current.")
		return nil
	},
}

// cook command
var cookCmd = &cobra.Command{
	Use:   "cook RAW TEMPLATE",
	Short: "Generate and archive measurements from a raw file",
	Long: `Runs the measurement pipeline on a raw file against a template.
RAW and TEMPLATE are either database ids or paths to files; paths are
registered (and archived, by policy) first.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		parText, _ := cmd.Flags().GetString("par")
		username, _ := cmd.Flags().GetString("user")

		a, err := newApp("Cook", func(s pipeline.Status) {
			fmt.Println(s)
		})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()

		raw, err := a.Pipeline.ResolveRaw(ctx, args[0])
		if err != nil {
			return fmt.Errorf("resolving raw file: %w", err)
		}

		var ephemeris *model.ParMeta
		if parText != "" {
			ephemeris, err = a.Pipeline.ResolvePar(ctx, raw, parText)
			if err != nil {
				return fmt.Errorf("resolving ephemeride: %w", err)
			}
		}

		template, err := a.Pipeline.ResolveTemplate(ctx, raw, args[1])
		if err != nil {
			return fmt.Errorf("resolving template: %w", err)
		}

		var userID int64
		if username != "" {
			user, err := archivist.Find[model.User](
				ctx, a.Store, "username = ?", strings.ToLower(username),
			)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("no user named %q", username)
			}
			userID = user.ID()
		}

		// Input registration may have opened an implicit transaction;
		// settle it so the run gets a transaction of its own.
		if a.Store.Live() {
			if err := a.Store.CommitTransaction(); err != nil {
				return err
			}
		}

		return a.Pipeline.Cook(ctx, userID, raw, ephemeris, template)
	},
}

// pulsar command
var pulsarCmd = &cobra.Command{
	Use:   "pulsar",
	Short: "Manage registered pulsars",
}

var pulsarAddCmd = &cobra.Command{
	Use:   "add ALIAS [JNAME BNAME RA DEC]",
	Short: "Register a pulsar",
	Long: `Registers a pulsar from a catalogue-style line. Unknown fields
may be given as "." placeholders.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, err := model.ParsePulsarLine(strings.Join(args, " "))
		if err != nil {
			return err
		}

		a, err := newApp("AddPulsar", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		id, err := a.Store.Insert(ctx, meta)
		if err != nil {
			return err
		}
		if err := a.Store.CommitTransaction(); err != nil {
			return err
		}

		fmt.Printf("Registered pulsar %s (id = %d)\n", meta.Alias, id)
		return nil
	},
}

var pulsarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered pulsars",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListPulsars", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		pulsars, err := archivist.GetAll[model.PulsarMeta](
			context.Background(), a.Store,
		)
		if err != nil {
			return err
		}

		if len(pulsars) == 0 {
			fmt.Println("No pulsars registered.")
			return nil
		}
		for _, p := range pulsars {
			fmt.Printf("#%-5d %-12s J:%-12s B:%-12s RA:%-12s Dec:%s\n",
				p.ID(),
				p.Alias,
				orDot(p.JName),
				orDot(p.BName),
				orDot(p.J2000RA),
				orDot(p.J2000Dec),
			)
		}
		return nil
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		admin, _ := cmd.Flags().GetBool("admin")

		user, err := model.NewUser(username, name, email, admin)
		if err != nil {
			return err
		}

		a, err := newApp("AddUser", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.Store.Insert(context.Background(), user)
		if err != nil {
			return err
		}
		if err := a.Store.CommitTransaction(); err != nil {
			return err
		}

		fmt.Printf("Registered user %s (id = %d)\n", user.Username, id)
		return nil
	},
}

// telescope command
var telescopeCmd = &cobra.Command{
	Use:   "telescope",
	Short: "Manage telescopes",
}

var telescopeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a telescope",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		abbreviation, _ := cmd.Flags().GetString("abbreviation")
		code, _ := cmd.Flags().GetString("code")

		telescope := &model.TelescopeID{
			Name:         strings.ToLower(name),
			Abbreviation: strings.ToLower(abbreviation),
			Code:         code,
		}

		a, err := newApp("AddTelescope", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.Store.Insert(context.Background(), telescope)
		if err != nil {
			return err
		}
		if err := a.Store.CommitTransaction(); err != nil {
			return err
		}

		fmt.Printf("Registered telescope %s (id = %d)\n", telescope.Name, id)
		return nil
	},
}

// obssystem command
var obsSystemCmd = &cobra.Command{
	Use:   "obssystem",
	Short: "Manage observing systems",
}

var obsSystemAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an observing system",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		telescope, _ := cmd.Flags().GetString("telescope")
		frontend, _ := cmd.Flags().GetString("frontend")
		backend, _ := cmd.Flags().GetString("backend")
		clock, _ := cmd.Flags().GetString("clock")
		code, _ := cmd.Flags().GetString("code")

		a, err := newApp("AddObsSystem", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()

		lowered := strings.ToLower(telescope)
		tel, err := archivist.Find[model.TelescopeID](
			ctx, a.Store,
			"name = ? OR abbreviation = ?", lowered, lowered,
		)
		if err != nil {
			return err
		}
		if tel == nil {
			return fmt.Errorf("no telescope named %q", telescope)
		}

		system := &model.ObsSystem{
			Name:        name,
			TelescopeID: tel.ID(),
			Frontend:    strings.ToLower(frontend),
			Backend:     strings.ToLower(backend),
			Clock:       clock,
			Code:        code,
		}

		id, err := a.Store.Insert(ctx, system)
		if err != nil {
			return err
		}
		if err := a.Store.CommitTransaction(); err != nil {
			return err
		}

		fmt.Printf("Registered observing system %s (id = %d)\n", system.Name, id)
		return nil
	},
}

var obsSystemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List observing systems",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListObsSystems", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		systems, err := archivist.GetAll[model.ObsSystem](
			context.Background(), a.Store,
		)
		if err != nil {
			return err
		}

		if len(systems) == 0 {
			fmt.Println("No observing systems registered.")
			return nil
		}
		for _, s := range systems {
			fmt.Printf("#%-5d %-16s telescope:%-4d frontend:%-10s backend:%s\n",
				s.ID(), s.Name, s.TelescopeID, s.Frontend, s.Backend)
		}
		return nil
	},
}

func orDot(s *string) string {
	if s == nil {
		return "."
	}
	return *s
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbCheckCmd)

	cookCmd.Flags().String("par", "", "Ephemeride to install: id or path")
	cookCmd.Flags().String("user", "", "Username to attribute the run to")

	pulsarCmd.AddCommand(pulsarAddCmd)
	pulsarCmd.AddCommand(pulsarListCmd)

	userAddCmd.Flags().String("username", "", "Login name (3-12 characters)")
	userAddCmd.Flags().String("name", "", "Real name")
	userAddCmd.Flags().String("email", "", "Email address")
	userAddCmd.Flags().Bool("admin", false, "Grant admin rights")
	_ = userAddCmd.MarkFlagRequired("username")
	_ = userAddCmd.MarkFlagRequired("name")
	_ = userAddCmd.MarkFlagRequired("email")
	userCmd.AddCommand(userAddCmd)

	telescopeAddCmd.Flags().String("name", "", "Full telescope name")
	telescopeAddCmd.Flags().String("abbreviation", "", "Short name")
	telescopeAddCmd.Flags().String("code", "", "Observatory code")
	_ = telescopeAddCmd.MarkFlagRequired("name")
	_ = telescopeAddCmd.MarkFlagRequired("code")
	telescopeCmd.AddCommand(telescopeAddCmd)

	obsSystemAddCmd.Flags().String("name", "", "System name")
	obsSystemAddCmd.Flags().String("telescope", "", "Telescope name or abbreviation")
	obsSystemAddCmd.Flags().String("frontend", "", "Receiver name")
	obsSystemAddCmd.Flags().String("backend", "", "Backend instrument name")
	obsSystemAddCmd.Flags().String("clock", "", "Clock identifier")
	obsSystemAddCmd.Flags().String("code", "", "System code")
	_ = obsSystemAddCmd.MarkFlagRequired("name")
	_ = obsSystemAddCmd.MarkFlagRequired("telescope")
	obsSystemCmd.AddCommand(obsSystemAddCmd)
	obsSystemCmd.AddCommand(obsSystemListCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(cookCmd)
	rootCmd.AddCommand(pulsarCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(telescopeCmd)
	rootCmd.AddCommand(obsSystemCmd)
}
