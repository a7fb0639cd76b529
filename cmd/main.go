package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/xapi-mis-backend/internal/app"
	"github.com/yungbote/xapi-mis-backend/internal/data/db"
	learnerrepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/learner"
	xapirepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/xapi"
	"github.com/yungbote/xapi-mis-backend/internal/data/seed"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runtime struct {
	cfg app.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:           "xapi-mis",
		Short:         "xAPI learning record store and learner management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			log, err := app.NewLogger(cfg)
			if err != nil {
				return err
			}
			rt.cfg, rt.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.log != nil {
				rt.log.Sync()
			}
		},
	}
	root.AddCommand(newServeCmd(rt), newMigrateCmd(rt), newSeedCmd(rt))
	return root
}

func newServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}
}

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			theDB, err := app.OpenDB(rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer db.Close(theDB)
			rt.log.Info("migrations applied", "driver", rt.cfg.DBDriver)
			return nil
		},
	}
}

func newSeedCmd(rt *runtime) *cobra.Command {
	opts := seed.Options{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with sample learners and statements",
		RunE: func(cmd *cobra.Command, args []string) error {
			theDB, err := app.OpenDB(rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer db.Close(theDB)

			s := seed.New(theDB, rt.log,
				learnerrepo.NewLearnerRepo(theDB, rt.log),
				xapirepo.NewStatementRepo(theDB, rt.log),
				opts,
			)
			res, err := s.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d learners and %d statements\n", res.Learners, res.Statements)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Active, "active", seed.DefaultActive, "active learners to create")
	cmd.Flags().IntVar(&opts.Inactive, "inactive", seed.DefaultInactive, "inactive learners to create")
	cmd.Flags().Int64Var(&opts.RandSeed, "rand-seed", 0, "random seed; 0 picks one from the clock")
	return cmd
}
