package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

// renderRoutes 路由表与权限记录合并输出；未同步的路由标记为 "-"
func renderRoutes(w io.Writer, routes []dto.RouteInfo, perms []model.RoutePermission) {
	byKey := make(map[string]model.RoutePermission, len(perms))
	for _, p := range perms {
		byKey[p.Key()] = p
	}

	t := newTable(w, table.Row{"Method", "Path", "Handler", "Roles", "Active"})
	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/api/") {
			continue
		}
		roles, active := "-", "-"
		if p, ok := byKey[model.RouteKey(r.Method, r.Path)]; ok {
			roles = strings.Join(p.Roles, ",")
			if roles == "" {
				roles = "(任意)"
			}
			active = fmt.Sprintf("%t", p.IsActive)
		}
		t.AppendRow(table.Row{r.Method, r.Path, r.Handler, roles, active})
	}
	t.Render()
}

func renderSync(w io.Writer, res *dto.SyncRoutesResponse) {
	t := newTable(w, table.Row{"Change", "Method", "Path", "Handler"})
	appendRoutes := func(kind string, routes []dto.RouteInfo) {
		for _, r := range routes {
			t.AppendRow(table.Row{kind, r.Method, r.Path, r.Handler})
		}
	}
	appendRoutes("added", res.Added)
	appendRoutes("updated", res.Updated)
	stale := "stale"
	if res.Pruned {
		stale = "pruned"
	}
	appendRoutes(stale, res.Stale)
	t.Render()

	mode := ""
	if res.DryRun {
		mode = "（预演，未写入）"
	}
	_, _ = fmt.Fprintf(w, "新增 %d，更新 %d，失效 %d，未变 %d%s\n",
		len(res.Added), len(res.Updated), len(res.Stale), res.Unchanged, mode)
}

func renderAccrual(w io.Writer, res *dto.AccrualResult) {
	t := newTable(w, table.Row{"Year", "Policies", "Accrued", "Skipped", "Rollover", "Total"})
	t.AppendRow(table.Row{res.Year, res.Policies, res.Accrued, res.Skipped, res.Rollover, res.Total.String()})
	t.Render()
}

func renderReconcile(w io.Writer, rows []dto.ReconcileRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "余额与流水一致")
		return
	}
	t := newTable(w, table.Row{"Balance", "User", "Type", "Year", "Δ Balance", "Δ Used", "Δ Pending", "Fixed"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.BalanceID, r.UserID, r.PtoTypeID, r.Year,
			r.Drift.Balance.String(), r.Drift.Used.String(), r.Drift.Pending.String(), r.Fixed,
		})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func renderNameChanges(w io.Writer, changes []dto.NormalizeNameChange, dryRun bool) {
	if len(changes) == 0 {
		_, _ = fmt.Fprintln(w, "所有显示名均已规范")
		return
	}
	t := newTable(w, table.Row{"Employee", "Before", "After"})
	for _, ch := range changes {
		t.AppendRow(table.Row{ch.EmployeeNumber, ch.Before, ch.After})
	}
	t.Render()
	verb := "已更新"
	if dryRun {
		verb = "待更新"
	}
	_, _ = fmt.Fprintf(w, "%s %d 人\n", verb, len(changes))
}
