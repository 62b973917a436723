package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
)

func setupTestPartService() (PartService, *mockRepos) {
	repo, mocks := newMockRepos()
	return NewPartService(repo, NewActivityService(repo, zap.NewNop()), zap.NewNop()), mocks
}

func TestPartService_CreateAndConflict(t *testing.T) {
	svc, mocks := setupTestPartService()

	p, err := svc.Create(context.Background(), &dto.CreatePartRequest{
		PartNumber: " HV-100 ", Name: "Hydraulic valve", UnitPrice: dec("42.50"), Quantity: 3, ReorderLevel: 5,
	}, "admin")
	if err != nil {
		t.Fatalf("Create 应成功，但返回错误: %v", err)
	}
	if p.PartNumber != "HV-100" || !p.IsLowStock() {
		t.Errorf("配件内容不符合预期: %+v", p)
	}
	if got := mocks.activity.descriptions(); len(got) != 1 || got[0] != "创建配件" {
		t.Errorf("应记录一条创建日志，实际: %v", got)
	}

	_, err = svc.Create(context.Background(), &dto.CreatePartRequest{PartNumber: "HV-100", Name: "Dup"}, "admin")
	if !errors.Is(err, ErrPartNumberExists) {
		t.Errorf("期望 ErrPartNumberExists，实际: %v", err)
	}

	_, err = svc.Create(context.Background(), &dto.CreatePartRequest{PartNumber: "HV-200", Name: "Neg", UnitPrice: dec("-1")}, "admin")
	if !errors.Is(err, ErrPartNegativePrice) {
		t.Errorf("期望 ErrPartNegativePrice，实际: %v", err)
	}
}

func TestPartService_Update(t *testing.T) {
	svc, mocks := setupTestPartService()
	mocks.part.Create(context.Background(), &model.Part{PartNumber: "A-1", Name: "Filter", IsActive: true})
	mocks.part.Create(context.Background(), &model.Part{PartNumber: "B-1", Name: "Belt", IsActive: true})

	if _, err := svc.Update(context.Background(), "part-A-1", &dto.UpdatePartRequest{PartNumber: strPtr("B-1")}, "admin"); !errors.Is(err, ErrPartNumberExists) {
		t.Errorf("改为已占用编号期望 ErrPartNumberExists，实际: %v", err)
	}

	qty := 20
	updated, err := svc.Update(context.Background(), "part-A-1", &dto.UpdatePartRequest{Quantity: &qty, PartNumber: strPtr("A-1")}, "admin")
	if err != nil {
		t.Fatalf("Update 应成功，但返回错误: %v", err)
	}
	if updated.Quantity != 20 || updated.Version != 2 {
		t.Errorf("更新结果不符合预期: qty=%d version=%d", updated.Quantity, updated.Version)
	}

	if _, err := svc.Update(context.Background(), "missing", &dto.UpdatePartRequest{}, "admin"); !errors.Is(err, ErrPartNotFound) {
		t.Errorf("期望 ErrPartNotFound，实际: %v", err)
	}
}

func TestPartService_List(t *testing.T) {
	svc, mocks := setupTestPartService()
	mocks.part.Create(context.Background(), &model.Part{PartNumber: "A-1", Name: "Oil filter", Category: "filters", Quantity: 1, ReorderLevel: 2, IsActive: true})
	mocks.part.Create(context.Background(), &model.Part{PartNumber: "B-1", Name: "Drive belt", Category: "belts", Quantity: 10, ReorderLevel: 2, IsActive: true})

	tests := []struct {
		name string
		req  dto.PartListRequest
		want int64
	}{
		{"全部", dto.PartListRequest{}, 2},
		{"关键字", dto.PartListRequest{Keyword: "FILTER"}, 1},
		{"分类", dto.PartListRequest{Category: "belts"}, 1},
		{"低库存", dto.PartListRequest{LowStock: true}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, total, err := svc.List(context.Background(), &req)
			if err != nil {
				t.Fatalf("List 应成功，但返回错误: %v", err)
			}
			if total != tt.want {
				t.Errorf("期望 %d 条，实际: %d", tt.want, total)
			}
		})
	}
}

func TestPartService_Import(t *testing.T) {
	svc, mocks := setupTestPartService()
	mocks.part.Create(context.Background(), &model.Part{PartNumber: "A-1", Name: "Old name", IsActive: false})

	buf := buildWorkbook(t, [][]interface{}{
		{"Part #", "Name", "Price", "Qty", "Reorder Level", "Location"},
		{"A-1", "Oil filter", "$1,250.00", "4", "2", "Bin 3"},
		{"C-1", "Coupler", "8.5", "", "", ""},
		{"C-1", "Coupler again", "8.5", "", "", ""},
		{"D-1", "", "1", "1", "1", ""},
		{"E-1", "Bad price", "abc", "1", "1", ""},
		{"F-1", "Bad qty", "1", "-2", "1", ""},
		{"", "", "", "", "", ""},
	})

	resp, err := svc.Import(context.Background(), buf, "admin")
	if err != nil {
		t.Fatalf("Import 应成功，但返回错误: %v", err)
	}
	if resp.Total != 6 || resp.Created != 1 || resp.Updated != 1 || resp.Failed != 4 {
		t.Errorf("期望 total=6 created=1 updated=1 failed=4，实际: %+v", resp)
	}

	existing := mocks.part.parts["part-A-1"]
	if existing.Name != "Oil filter" || !existing.UnitPrice.Equal(dec("1250")) || !existing.IsActive || existing.Location != "Bin 3" {
		t.Errorf("已存在配件应按导入内容更新: %+v", existing)
	}
	if _, ok := mocks.part.parts["part-C-1"]; !ok {
		t.Error("新配件应已创建")
	}
}

func TestPartService_Import_BadHeader(t *testing.T) {
	svc, _ := setupTestPartService()
	buf := buildWorkbook(t, [][]interface{}{
		{"SKU", "Title"},
		{"A-1", "Filter"},
	})

	if _, err := svc.Import(context.Background(), buf, "admin"); !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("期望 ErrImportBadHeader，实际: %v", err)
	}
}
