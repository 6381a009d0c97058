package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/contractnest/contractnest/cmd/contractnest/cli"
	"github.com/contractnest/contractnest/internal/app"
	"github.com/contractnest/contractnest/internal/auth"
	"github.com/contractnest/contractnest/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "contractnest",
		Short:         "ContractNest settings API and operations tooling",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(serveCmd(), jobsCmd(), tokensCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func jobsCmd() *cobra.Command {
	jobs := &cobra.Command{Use: "jobs", Short: "Inspect and trigger background jobs"}

	jobs.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show queue depths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			c := cli.NewJobsCLI(cfg.RedisAddr)
			defer c.Close()
			stats, err := c.InspectQueues(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "QUEUE\tPENDING\tACTIVE\tSCHEDULED\tRETRY\tARCHIVED")
			for _, s := range stats {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
			}
			return tw.Flush()
		},
	})

	var tenant, subject, message string
	trigger := &cobra.Command{
		Use:       "trigger <event>",
		Short:     "Enqueue a notification or maintenance job",
		Args:      cobra.ExactArgs(1),
		ValidArgs: cli.KnownEvents(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			req := cli.TriggerRequest{Event: args[0], Subject: subject, Message: message}
			if tenant != "" {
				if req.TenantID, err = uuid.Parse(tenant); err != nil {
					return fmt.Errorf("tenant id: %w", err)
				}
			}
			c := cli.NewJobsCLI(cfg.RedisAddr)
			defer c.Close()
			info, err := c.Trigger(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s on %s (id %s)\n", info.Type, info.Queue, info.ID)
			return nil
		},
	}
	trigger.Flags().StringVar(&tenant, "tenant", "", "tenant id the notification is for")
	trigger.Flags().StringVar(&subject, "subject", "", "notification subject")
	trigger.Flags().StringVar(&message, "message", "", "notification body")
	jobs.AddCommand(trigger)
	return jobs
}

func tokensCmd() *cobra.Command {
	tokens := &cobra.Command{Use: "tokens", Short: "Manage tenant API tokens"}

	withService := func(ctx context.Context, fn func(*auth.Service) error) error {
		cfg, err := app.LoadConfig()
		if err != nil {
			return err
		}
		pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 2, ApplicationName: "contractnest-cli"})
		if err != nil {
			return err
		}
		defer pool.Close()
		return fn(auth.NewService(auth.NewRepository(pool)))
	}

	var actor string
	issue := &cobra.Command{
		Use:   "issue <tenant-id> <name>",
		Short: "Issue a token and print its secret once",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(svc *auth.Service) error {
				actorID := actor
				if actorID == "" {
					actorID = uuid.NewString()
				}
				return cli.IssueToken(cmd.Context(), cmd.OutOrStdout(), svc, args[0], actorID, args[1])
			})
		},
	}
	issue.Flags().StringVar(&actor, "actor", "", "actor id recorded in audit logs (random when empty)")

	revoke := &cobra.Command{
		Use:   "revoke <tenant-id> <prefix>",
		Short: "Revoke a token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(svc *auth.Service) error {
				return cli.RevokeToken(cmd.Context(), cmd.OutOrStdout(), svc, args[0], args[1])
			})
		},
	}

	tokens.AddCommand(issue, revoke)
	return tokens
}
