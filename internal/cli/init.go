package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/pkg/sshutil"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string // Where to write; defaults to ./fb4rasp.<format>
	Format         string // yaml or toml
	Router         string // Pre-specified router SSH address
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use defaults
}

var initFlags InitOptions

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file",
	Long: `Create a starter fb4rasp config file in the current directory.

Interactive mode offers the hosts from ~/.ssh/config as the router.

Examples:
  fb4rasp init
  fb4rasp init --format toml
  fb4rasp init --non-interactive --router admin@192.168.1.1:2222`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(cmd.OutOrStdout(), initFlags)
	},
}

func init() {
	initCmd.Flags().StringVar(&initFlags.Format, "format", config.FormatYAML, "config format: yaml or toml")
	initCmd.Flags().StringVar(&initFlags.Router, "router", "", "router SSH address (user@host:port or ~/.ssh/config alias)")
	initCmd.Flags().BoolVarP(&initFlags.Overwrite, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initFlags.NonInteractive, "non-interactive", false, "skip prompts and use defaults")
	rootCmd.AddCommand(initCmd)
}

const customRouter = "\x00custom"

// Init writes a new config file.
func Init(out io.Writer, opts InitOptions) error {
	if opts.Format == "" {
		opts.Format = config.FormatYAML
	}
	if opts.Format != config.FormatYAML && opts.Format != config.FormatTOML {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown format %q", opts.Format),
			"Use --format yaml or --format toml")
	}
	if opts.Path == "" {
		opts.Path = config.ConfigBaseName + "." + opts.Format
	}

	if _, err := os.Stat(opts.Path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", opts.Path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", opts.Path)).
				Value(&overwrite),
		))
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if opts.Router != "" {
		cfg.Router.Address = opts.Router
	}
	if !opts.NonInteractive {
		if err := promptConfig(cfg, opts.Router == ""); err != nil {
			return err
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	data, err := config.Marshal(cfg, opts.Format)
	if err != nil {
		return err
	}

	header := `# fb4rasp configuration
# Run 'fb4rasp' to start the dashboard, 'fb4rasp remote add' to watch more hosts.

`
	if err := os.WriteFile(opts.Path, []byte(header+string(data)), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", opts.Path),
			"Check directory permissions")
	}

	fmt.Fprintf(out, "Created %s\n\n", opts.Path)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  fb4rasp agent               - On each machine to watch")
	fmt.Fprintln(out, "  fb4rasp remote add <n> <ip> - Add it to this dashboard")
	fmt.Fprintln(out, "  fb4rasp                     - Start the dashboard")
	return nil
}

// routerOptions lists the concrete hosts from ~/.ssh/config followed by a
// free-form entry.
func routerOptions(hosts []sshutil.HostEntry) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(hosts)+1)
	for _, h := range hosts {
		opts = append(opts, huh.NewOption(h.Label(), h.Alias))
	}
	return append(opts, huh.NewOption("Other address...", customRouter))
}

func promptConfig(cfg *config.Config, askRouter bool) error {
	router := cfg.Router.Address
	layout := cfg.Display.Layout
	useRouter := cfg.Router.Enable
	touchKeys := cfg.Touch.Enable
	choice := customRouter

	var groups []*huh.Group
	groups = append(groups, huh.NewGroup(
		huh.NewConfirm().
			Title("Poll a router for network throughput?").
			Value(&useRouter),
	))

	if askRouter {
		hosts, _ := sshutil.ConfigHosts(sshutil.ConfigPath())
		if len(hosts) > 0 {
			choice = hosts[0].Alias
			groups = append(groups, huh.NewGroup(
				huh.NewSelect[string]().
					Title("Router").
					Description("Hosts from ~/.ssh/config").
					Options(routerOptions(hosts)...).
					Value(&choice),
			).WithHideFunc(func() bool { return !useRouter }))
		}
		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Title("Router SSH address").
				Description("user@host:port or an ~/.ssh/config alias").
				Placeholder(cfg.Router.Address).
				Value(&router).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("router address is required")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return !useRouter || choice != customRouter }))
	}

	groups = append(groups, huh.NewGroup(
		huh.NewSelect[string]().
			Title("Panel layout").
			Options(
				huh.NewOption("Vertical (stacked)", "vertical"),
				huh.NewOption("Horizontal (side by side)", "horizontal"),
			).
			Value(&layout),
		huh.NewConfirm().
			Title("Emulate the touch sensor with the keyboard?").
			Value(&touchKeys),
	))

	if err := huh.NewForm(groups...).Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive flag")
	}

	if choice != customRouter {
		router = choice
	}
	cfg.Router.Enable = useRouter
	cfg.Router.Address = strings.TrimSpace(router)
	cfg.Display.Layout = layout
	cfg.Touch.Enable = touchKeys
	return nil
}
