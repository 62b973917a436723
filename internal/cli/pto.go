package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *Commands) newPtoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pto",
		Short: "休假批处理",
	}

	var year int
	accrue := &cobra.Command{
		Use:   "accrue",
		Short: "按策略发放年度额度（可重复执行）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateYear(year); err != nil {
				return err
			}
			a, err := c.open(true)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Service.PtoBalance.AccrueYear(cmd.Context(), year, "")
			if err != nil {
				return err
			}
			renderAccrual(cmd.OutOrStdout(), res)
			return nil
		},
	}
	accrue.Flags().IntVar(&year, "year", time.Now().Year(), "发放年份")

	var (
		reconcileYear int
		fix           bool
	)
	reconcile := &cobra.Command{
		Use:   "reconcile",
		Short: "以流水校验余额",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateYear(reconcileYear); err != nil {
				return err
			}
			a, err := c.open(true)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.Service.PtoBalance.Reconcile(cmd.Context(), reconcileYear, fix)
			if err != nil {
				return err
			}
			renderReconcile(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	reconcile.Flags().IntVar(&reconcileYear, "year", time.Now().Year(), "对账年份")
	reconcile.Flags().BoolVar(&fix, "fix", false, "以流水为准修正余额")

	cmd.AddCommand(accrue, reconcile)
	return cmd
}

func validateYear(year int) error {
	if year < 2000 || year > 2100 {
		return fmt.Errorf("年份超出范围: %d", year)
	}
	return nil
}
