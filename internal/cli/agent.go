package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/zaczkows/fb4rasp/internal/agent"
	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/logger"
	"github.com/zaczkows/fb4rasp/internal/metrics"
)

var agentListenFlag string

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Serve system snapshots to a dashboard",
	Long: `Run on a machine you want to see on a dashboard. The agent answers
WebSocket clients on /ws/sysinfo with CPU and memory snapshots at the
interval they request, and serves Prometheus metrics on /metrics.

Examples:
  fb4rasp agent
  fb4rasp agent --listen 127.0.0.1:12345`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return agentCommand(cmd.Context(), agentListenFlag)
	},
}

func init() {
	agentCmd.Flags().StringVar(&agentListenFlag, "listen", "", "address to listen on (default agent.listen or "+agent.DefaultListen+")")
	rootCmd.AddCommand(agentCmd)
}

func agentCommand(ctx context.Context, listen string) error {
	if listen == "" {
		cfg, _, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			return err
		}
		listen = cfg.Agent.Listen
	}

	srv := agent.New(agent.Options{
		Listen:  listen,
		Metrics: metrics.New(),
		Logger:  logger.NewEnvLogger("[agent]"),
	})
	return srv.ListenAndServe(ctx)
}
