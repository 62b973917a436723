package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Digitalhour/ACSCoreOS-sub013/pkg/database"
)

func (c *Commands) newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "执行所有未应用的迁移",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			if err := database.RunMigrations(sqlDB, a.Logger); err != nil {
				return err
			}
			return printVersion(cmd, sqlDB)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "回滚迁移",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			if err := database.RollbackMigrations(sqlDB, steps, a.Logger); err != nil {
				return err
			}
			return printVersion(cmd, sqlDB)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "回滚步数")

	version := &cobra.Command{
		Use:   "version",
		Short: "显示当前迁移版本",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return printVersion(cmd, sqlDB)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func printVersion(cmd *cobra.Command, db *sql.DB) error {
	v, dirty, err := database.MigrationVersion(db)
	if err != nil {
		return fmt.Errorf("读取迁移版本失败: %w", err)
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "迁移版本: %d (%s)\n", v, state)
	return nil
}
