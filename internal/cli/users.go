package cli

import "github.com/spf13/cobra"

func (c *Commands) newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "员工批处理",
	}

	var dryRun bool
	normalize := &cobra.Command{
		Use:   "normalize-names",
		Short: "按姓名字段重新生成显示名",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(true)
			if err != nil {
				return err
			}
			defer a.Close()

			changes, err := a.Service.User.NormalizeNames(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			renderNameChanges(cmd.OutOrStdout(), changes, dryRun)
			return nil
		},
	}
	normalize.Flags().BoolVar(&dryRun, "dry-run", false, "只输出差异，不写入")

	cmd.AddCommand(normalize)
	return cmd
}
