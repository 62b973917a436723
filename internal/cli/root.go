package cli

import (
	"github.com/spf13/cobra"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/app"
)

// Bootstrap 构建进程依赖（测试时替换）
type Bootstrap func(opts app.Options) (*app.App, error)

// Commands coreosctl 子命令集合
type Commands struct {
	bootstrap  Bootstrap
	configPath string
}

// NewCommands 创建命令集合；bootstrap 为 nil 时使用 app.New
func NewCommands(bootstrap Bootstrap) *Commands {
	if bootstrap == nil {
		bootstrap = app.New
	}
	return &Commands{bootstrap: bootstrap}
}

// NewRootCmd coreosctl 根命令
func (c *Commands) NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "coreosctl",
		Short:         "CoreOS 运维命令行",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")

	root.AddCommand(
		c.newMigrateCmd(),
		c.newRoutesCmd(),
		c.newPtoCmd(),
		c.newUsersCmd(),
	)
	return root
}

// open 加载应用依赖，migrate 控制是否自动执行迁移
func (c *Commands) open(migrate bool) (*app.App, error) {
	return c.bootstrap(app.Options{ConfigPath: c.configPath, Migrate: migrate})
}
