package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coffeeshop/internal/auth"
	"coffeeshop/internal/catalog"
	"coffeeshop/internal/config"
	"coffeeshop/internal/logger"
	"coffeeshop/internal/session"
	"coffeeshop/internal/shop"
	"coffeeshop/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var titleStyle = lipgloss.NewStyle().Bold(true)

type app struct {
	out    io.Writer
	params auth.Params

	driver  string
	dbPath  string
	profile string
	asJSON  bool
	verbose bool
}

func newApp(out io.Writer) *app {
	return &app{out: out, params: auth.DefaultParams}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Browse, shop and administer the coffee shop",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	f := root.PersistentFlags()
	f.StringVar(&a.driver, "driver", config.DriverBolt, "storage driver (memory, bolt, redis, scylla, minio)")
	f.StringVar(&a.dbPath, "db", "", "bolt file (default $BOLT_PATH)")
	f.StringVarP(&a.profile, "profile", "p", "default", "storage profile to work on")
	f.BoolVar(&a.asJSON, "json", false, "print JSON instead of tables")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "log to stdout")

	root.AddCommand(
		productsCmd(a),
		cartCmd(a),
		registerCmd(a),
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		profileCmd(a),
		tokenCmd(a),
		checkoutCmd(a),
		ordersCmd(a),
		adminCmd(a),
	)
	return root
}

func (a *app) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Driver = a.driver
	if a.dbPath != "" {
		cfg.Bolt.Path = a.dbPath
	}
	return cfg, cfg.Validate()
}

func (a *app) logger(cfg *config.Config) (*zap.Logger, error) {
	if !a.verbose {
		return zap.NewNop(), nil
	}
	return logger.New(cfg.Log)
}

// withShop opens the profile's shop for one command and closes the backend
// when it returns.
func (a *app) withShop(fn func(ctx context.Context, cmd *cobra.Command, args []string, s *shop.Shop) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := a.config()
		if err != nil {
			return err
		}
		lg, err := a.logger(cfg)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		backend, err := storage.Open(ctx, cfg, lg)
		if err != nil {
			return err
		}
		defer backend.Close()

		opts := shop.Options{
			Logger: lg,
			Hasher: auth.NewHasher(a.params),
			Admin: &session.AdminAccount{
				Username: cfg.Admin.Name,
				Email:    cfg.Admin.Email,
				Password: cfg.Admin.Password,
			},
		}
		if cfg.Catalog.SeedFile != "" {
			if opts.Seed, err = catalog.LoadSeedFile(cfg.Catalog.SeedFile); err != nil {
				return err
			}
		}
		root := storage.New(backend, storage.WithLogger(lg))
		s, err := shop.Open(ctx, root.Namespace("profile:"+a.profile+":"), opts)
		if err != nil {
			return err
		}
		return fn(ctx, cmd, args, s)
	}
}

// print writes v as JSON with --json, otherwise runs text.
func (a *app) print(v any, text func(w io.Writer)) error {
	if a.asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(a.out)
	return nil
}

func (a *app) done(format string, args ...any) {
	if !a.asJSON {
		fmt.Fprintf(a.out, "✅ "+format+"\n", args...)
	}
}

func renderTable(w io.Writer, title string, headers []string, rows [][]string) {
	if title != "" {
		fmt.Fprintln(w, titleStyle.Render(title))
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
