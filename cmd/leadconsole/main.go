// Command leadconsole is the operator console for the lead-gen pipeline.
//
// With no subcommand it starts the interactive shell. The board subcommand
// opens the drag-and-drop board; the rest run one action and exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/leadconsole/internal/client/config"
	"github.com/dmitrijs2005/leadconsole/internal/client/services"
	"github.com/dmitrijs2005/leadconsole/internal/client/tui"
)

var rootCmd = &cobra.Command{
	Use:           "leadconsole",
	Short:         "Operator console for the lead-gen pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsole(cmd, func(ctx context.Context, c *console) error {
			c.app(os.Stdin, os.Stdout).Root(ctx, c.cfg.OnlineCheckInterval)
			return nil
		})
	},
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the board and move items with the mouse",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsole(cmd, func(ctx context.Context, c *console) error {
			return tui.Run(ctx, c.env(), c.notices, c.canvas())
		})
	},
}

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsole(cmd, func(ctx context.Context, c *console) error {
			return c.app(os.Stdin, os.Stdout).Leads(ctx)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lead stats and recent report alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsole(cmd, func(ctx context.Context, c *console) error {
			return c.app(os.Stdin, os.Stdout).Stats(ctx)
		})
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Weekly reports",
}

var reportsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Start weekly report generation and wait for the re-fetch",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsole(cmd, func(ctx context.Context, c *console) error {
			p := services.NewReportsPage(ctx, c.env())
			defer p.Close()

			sched, err := p.GenerateWeekly(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Job accepted, refreshing in %s...\n", c.cfg.ReportsDelay)
			select {
			case <-sched.Done():
			case <-ctx.Done():
				sched.Stop()
				return ctx.Err()
			}
			if err := sched.Err(); err != nil {
				return err
			}
			fmt.Printf("%d reports.\n", len(p.Items()))
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <collection>",
	Short: "Export a collection snapshot to the configured sink",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsole(cmd, func(ctx context.Context, c *console) error {
			return c.app(os.Stdin, os.Stdout).Export(ctx, args[0])
		})
	},
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags())

	reportsCmd.AddCommand(reportsGenerateCmd)
	rootCmd.AddCommand(boardCmd, leadsCmd, statsCmd, reportsCmd, exportCmd)
}

// withConsole loads the config, opens the console and runs fn until it
// returns or the process is interrupted.
func withConsole(cmd *cobra.Command, fn func(ctx context.Context, c *console) error) error {
	cfg, err := config.Load("", cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := openConsole(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			fmt.Fprintln(os.Stderr, "closing console:", cerr)
		}
	}()

	c.logger.Info(ctx, "console started", "command", cmd.Name(), "api", cfg.APIBaseURL)
	if err := fn(ctx, c); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
