package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/octal-backend/internal/data/db"
	"github.com/yungbote/octal-backend/internal/data/repos"
	"github.com/yungbote/octal-backend/internal/modules/learning/graphcheck"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/logger"
	"github.com/yungbote/octal-backend/internal/services"
)

func newRootCmd() *cobra.Command {
	var logMode string
	root := &cobra.Command{
		Use:           "octalctl",
		Short:         "Operator tasks for the octal backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logMode, "log-mode", "development", "logger mode (development, production, test)")
	newLog := func() (*logger.Logger, error) { return logger.New(logMode) }

	root.AddCommand(newMigrateCmd(newLog), newSeedCmd(newLog), newCheckGraphCmd())
	return root
}

func openDB(log *logger.Logger) (*db.Service, error) {
	return db.NewService(db.ConfigFromEnv(log), log)
}

func newMigrateCmd(newLog func() (*logger.Logger, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLog()
			if err != nil {
				return err
			}
			defer log.Sync()
			svc, err := openDB(log)
			if err != nil {
				return err
			}
			defer svc.Close()
			if err := db.Migrate(svc.DB()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newSeedCmd(newLog func() (*logger.Logger, error)) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load an exercise bank (the built-in one unless --file is given)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bank, err := loadBank(file)
			if err != nil {
				return err
			}
			log, err := newLog()
			if err != nil {
				return err
			}
			defer log.Sync()
			svc, err := openDB(log)
			if err != nil {
				return err
			}
			defer svc.Close()
			if err := db.Migrate(svc.DB()); err != nil {
				return err
			}
			gdb := svc.DB()
			bankService := services.NewExerciseBankService(
				gdb, log,
				repos.NewExerciseConceptRepo(gdb, log),
				repos.NewExerciseRepo(gdb, log),
				repos.NewResponseRepo(gdb, log),
			)
			report, err := bankService.Seed(dbctx.Context{Ctx: cmd.Context()}, bank)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d concepts, %d exercises, %d responses\n",
				report.Concepts, report.Exercises, report.Responses)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML exercise bank to load")
	return cmd
}

func loadBank(file string) (*services.ExerciseBank, error) {
	if file == "" {
		return services.DefaultExerciseBank()
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return services.LoadExerciseBank(f)
}

func newCheckGraphCmd() *cobra.Command {
	var acyclic bool
	cmd := &cobra.Command{
		Use:   "check-graph <file|->",
		Short: "Validate a concept graph JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			g, err := graphcheck.Validator{RequireAcyclic: acyclic}.ValidateJSON(raw)
			if err != nil {
				if ge, ok := graphcheck.AsIntegrityError(err); ok {
					if ge.NodeID != "" {
						return fmt.Errorf("invalid graph (%s at %q): %s", ge.Kind, ge.NodeID, ge.Reason)
					}
					return fmt.Errorf("invalid graph (%s): %s", ge.Kind, ge.Reason)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d concepts, %d dependencies\n", len(g.Nodes), len(g.Edges))
			return nil
		},
	}
	cmd.Flags().BoolVar(&acyclic, "acyclic", false, "reject dependency cycles")
	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}
