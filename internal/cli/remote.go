package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zaczkows/fb4rasp/internal/collect"
	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/errors"
)

var (
	remotePortFlag     int
	remoteDisabledFlag bool
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage the hosts shown on the dashboard",
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <ip>",
	Short: "Add or replace a remote agent",
	Long: `Add a machine running 'fb4rasp agent' to the config file.

Examples:
  fb4rasp remote add nas 192.168.1.10
  fb4rasp remote add media-pc 192.168.1.20 --port 9000`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return remoteAdd(cmd.OutOrStdout(), cfgFile, args[0], args[1], remotePortFlag, !remoteDisabledFlag)
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured remotes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			return err
		}
		listRemotes(cmd.OutOrStdout(), cfg.Remotes)
		return nil
	},
}

func init() {
	remoteAddCmd.Flags().IntVar(&remotePortFlag, "port", config.DefaultRemotePort, "agent port")
	remoteAddCmd.Flags().BoolVar(&remoteDisabledFlag, "disabled", false, "add the remote without polling it")
	remoteCmd.AddCommand(remoteAddCmd, remoteListCmd)
	rootCmd.AddCommand(remoteCmd)
}

func remoteAdd(out io.Writer, explicit, name, ip string, port int, enable bool) error {
	path, err := config.Find(explicit)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"No config file found",
			"Run 'fb4rasp init' first, or pass --config")
	}

	r := config.RemoteConfig{IP: ip, Port: port}
	if !enable {
		r.Enable = &enable
	}
	if err := config.AddRemote(path, name, r); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %s (%s) to %s\n", name, collect.RemoteURL(ip, port), path)
	return nil
}

func listRemotes(out io.Writer, remotes map[string]config.RemoteConfig) {
	if len(remotes) == 0 {
		fmt.Fprintln(out, "No remotes configured. Add one with 'fb4rasp remote add <name> <ip>'.")
		return
	}
	for _, name := range config.SortedRemoteNames(remotes) {
		r := remotes[name]
		state := "enabled"
		if !r.Enabled() {
			state = "disabled"
		}
		fmt.Fprintf(out, "%-16s %-40s %s\n", name, collect.RemoteURL(r.IP, r.Port), state)
	}
}
