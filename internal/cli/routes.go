package cli

import (
	"github.com/spf13/cobra"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/api/router"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
)

func (c *Commands) newRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "路由权限",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "列出 /api 路由及其权限",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(true)
			if err != nil {
				return err
			}
			defer a.Close()

			perms, err := a.Service.RoutePermission.List(cmd.Context())
			if err != nil {
				return err
			}
			renderRoutes(cmd.OutOrStdout(), router.DiscoverRoutes(a.Engine), perms)
			return nil
		},
	}

	var req dto.SyncRoutesRequest
	sync := &cobra.Command{
		Use:   "sync",
		Short: "以路由表为准同步权限记录",
		Example: `  coreosctl routes sync --dry-run
  coreosctl routes sync --prune`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(true)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Service.RoutePermission.Sync(cmd.Context(), router.DiscoverRoutes(a.Engine), &req, "")
			if err != nil {
				return err
			}
			renderSync(cmd.OutOrStdout(), res)
			return nil
		},
	}
	sync.Flags().BoolVar(&req.Prune, "prune", false, "删除失效路由（默认仅停用）")
	sync.Flags().BoolVar(&req.DryRun, "dry-run", false, "只输出差异，不写入")

	cmd.AddCommand(list, sync)
	return cmd
}
