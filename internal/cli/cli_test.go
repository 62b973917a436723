package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/app"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

var errBoot = errors.New("boot failed")

func failingBootstrap(calls *[]app.Options) Bootstrap {
	return func(opts app.Options) (*app.App, error) {
		*calls = append(*calls, opts)
		return nil, errBoot
	}
}

func execute(t *testing.T, c *Commands, args ...string) (string, error) {
	t.Helper()
	root := c.NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewCommands(nil).NewRootCmd()

	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
		{"routes", "list"},
		{"routes", "sync"},
		{"pto", "accrue"},
		{"pto", "reconcile"},
		{"users", "normalize-names"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestCommands_PassConfigAndMigrateFlag(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantMigrate bool
	}{
		{"migrate up 不自动迁移", []string{"migrate", "up"}, false},
		{"migrate version 不自动迁移", []string{"migrate", "version"}, false},
		{"routes sync 先迁移", []string{"routes", "sync", "--dry-run"}, true},
		{"pto accrue 先迁移", []string{"pto", "accrue", "--year", "2025"}, true},
		{"users normalize-names 先迁移", []string{"users", "normalize-names"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []app.Options
			c := NewCommands(failingBootstrap(&calls))

			_, err := execute(t, c, append([]string{"--config", "/etc/coreos.yaml"}, tt.args...)...)
			require.ErrorIs(t, err, errBoot)
			require.Len(t, calls, 1)
			assert.Equal(t, "/etc/coreos.yaml", calls[0].ConfigPath)
			assert.Equal(t, tt.wantMigrate, calls[0].Migrate)
		})
	}
}

func TestPtoAccrue_RejectsYearOutOfRange(t *testing.T) {
	var calls []app.Options
	c := NewCommands(failingBootstrap(&calls))

	_, err := execute(t, c, "pto", "accrue", "--year", "1999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "年份超出范围")
	assert.Empty(t, calls, "年份非法时不应连接数据库")
}

func TestRenderRoutes(t *testing.T) {
	routes := []dto.RouteInfo{
		{Method: "GET", Path: "/api/parts", Handler: "PartHandler.ListParts"},
		{Method: "POST", Path: "/api/parts", Handler: "PartHandler.CreatePart"},
		{Method: "GET", Path: "/health", Handler: "func1"},
	}
	perms := []model.RoutePermission{
		{Method: "GET", Path: "/api/parts", Roles: model.StringArray{"admin", "hr"}, IsActive: true},
	}

	var buf bytes.Buffer
	renderRoutes(&buf, routes, perms)
	out := buf.String()

	assert.Contains(t, out, "PartHandler.ListParts")
	assert.Contains(t, out, "admin,hr")
	assert.Contains(t, out, "PartHandler.CreatePart")
	assert.NotContains(t, out, "/health")
}

func TestRenderSync(t *testing.T) {
	res := &dto.SyncRoutesResponse{
		DryRun:    true,
		Added:     []dto.RouteInfo{{Method: "GET", Path: "/api/wiki/pages", Handler: "WikiHandler.ListPages"}},
		Stale:     []dto.RouteInfo{{Method: "GET", Path: "/api/old"}},
		Unchanged: 3,
		Pruned:    true,
	}

	var buf bytes.Buffer
	renderSync(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "added")
	assert.Contains(t, out, "pruned")
	assert.Contains(t, out, "新增 1，更新 0，失效 1，未变 3（预演，未写入）")
}

func TestRenderReconcile(t *testing.T) {
	var buf bytes.Buffer
	renderReconcile(&buf, nil)
	assert.Equal(t, "余额与流水一致\n", buf.String())

	buf.Reset()
	renderReconcile(&buf, []dto.ReconcileRow{{
		BalanceID: "b1", UserID: "u1", PtoTypeID: "t1", Year: 2025,
		Drift: model.BalanceDrift{Balance: decimal.RequireFromString("1.5"), Used: decimal.Zero, Pending: decimal.Zero},
		Fixed: true,
	}})
	assert.Contains(t, buf.String(), "1.5")
	assert.Contains(t, buf.String(), "(1 rows)")
}

func TestRenderNameChanges(t *testing.T) {
	var buf bytes.Buffer
	renderNameChanges(&buf, []dto.NormalizeNameChange{
		{EmployeeNumber: "E001", Before: "JOHN o'brien", After: "John O'Brien"},
	}, true)
	out := buf.String()
	assert.Contains(t, out, "John O'Brien")
	assert.Contains(t, out, "待更新 1 人")

	buf.Reset()
	renderNameChanges(&buf, nil, false)
	assert.Equal(t, "所有显示名均已规范\n", buf.String())
}
