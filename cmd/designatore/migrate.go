package main

import (
	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			if rollback {
				if err := entity.RollbackLast(a.db); err != nil {
					return err
				}
				a.logger.Info("Rolled back last migration")
				return nil
			}
			if err := entity.Migrate(a.db); err != nil {
				return err
			}
			a.logger.Info("Migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the most recent migration")
	return cmd
}
