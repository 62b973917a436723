package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
)

// ── 配件模块业务错误 ──

var (
	ErrPartNotFound      = errors.New("配件不存在")
	ErrPartNumberExists  = errors.New("配件编号已存在")
	ErrPartNegativePrice = errors.New("单价不能为负数")
)

// PartService 配件目录业务接口
type PartService interface {
	Create(ctx context.Context, req *dto.CreatePartRequest, callerID string) (*model.Part, error)
	GetByID(ctx context.Context, id string) (*model.Part, error)
	List(ctx context.Context, req *dto.PartListRequest) ([]model.Part, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdatePartRequest, callerID string) (*model.Part, error)
	Delete(ctx context.Context, id string, callerID string) error
	// Import 按 part_number 导入配件：已存在则更新，否则新建
	Import(ctx context.Context, reader io.Reader, callerID string) (*dto.ImportPartResponse, error)
}

type partService struct {
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
}

// NewPartService 创建 PartService 实例
func NewPartService(repo *repository.Repository, activity ActivityService, logger *zap.Logger) PartService {
	return &partService{repo: repo, activity: activity, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *partService) Create(ctx context.Context, req *dto.CreatePartRequest, callerID string) (*model.Part, error) {
	number := strings.TrimSpace(req.PartNumber)
	if err := s.ensureNumberFree(ctx, number, ""); err != nil {
		return nil, err
	}
	if req.UnitPrice.IsNegative() {
		return nil, ErrPartNegativePrice
	}

	p := &model.Part{
		PartNumber:   number,
		Name:         req.Name,
		Description:  req.Description,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		UnitPrice:    req.UnitPrice,
		Quantity:     req.Quantity,
		ReorderLevel: req.ReorderLevel,
		Location:     req.Location,
		IsActive:     true,
	}
	p.CreatedBy = &callerID
	p.UpdatedBy = &callerID

	if err := s.repo.Part.Create(ctx, p); err != nil {
		s.logger.Error("创建配件失败", zap.String("part_number", number), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePart, Description: "创建配件",
		SubjectType: "part", SubjectID: p.PartID, CauserID: callerID,
		Properties: map[string]interface{}{"part_number": number},
	})
	return p, nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *partService) GetByID(ctx context.Context, id string) (*model.Part, error) {
	p, err := s.repo.Part.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartNotFound
		}
		s.logger.Error("查询配件失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *partService) List(ctx context.Context, req *dto.PartListRequest) ([]model.Part, int64, error) {
	list, total, err := s.repo.Part.List(ctx, repository.PartFilter{
		Keyword:  strings.TrimSpace(req.Keyword),
		Category: req.Category,
		LowStock: req.LowStock,
	}, repository.Page{Offset: req.GetOffset(), Limit: req.GetPageSize()})
	if err != nil {
		s.logger.Error("搜索配件失败", zap.Error(err))
		return nil, 0, err
	}
	return list, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *partService) Update(ctx context.Context, id string, req *dto.UpdatePartRequest, callerID string) (*model.Part, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PartNumber != nil {
		number := strings.TrimSpace(*req.PartNumber)
		if number != p.PartNumber {
			if err := s.ensureNumberFree(ctx, number, p.PartID); err != nil {
				return nil, err
			}
			p.PartNumber = number
		}
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Manufacturer != nil {
		p.Manufacturer = *req.Manufacturer
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, ErrPartNegativePrice
		}
		p.UnitPrice = *req.UnitPrice
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.ReorderLevel != nil {
		p.ReorderLevel = *req.ReorderLevel
	}
	if req.Location != nil {
		p.Location = *req.Location
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	p.UpdatedBy = &callerID

	if err := s.repo.Part.Update(ctx, p); err != nil {
		s.logger.Error("更新配件失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePart, Description: "更新配件",
		SubjectType: "part", SubjectID: id, CauserID: callerID,
	})
	return p, nil
}

// ────────────────────── Delete ──────────────────────

func (s *partService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Part.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除配件失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePart, Description: "删除配件",
		SubjectType: "part", SubjectID: id, CauserID: callerID,
	})
	return nil
}

// ═══════════════════════════════════════════════════════════
// Import — Excel 导入配件
// ═══════════════════════════════════════════════════════════
//
// 阶段 1：逐行解析校验，收集错误行
// 阶段 2：有效行在单事务内按 part_number upsert

// partImportColumns 支持的表头别名
var partImportColumns = map[string][]string{
	"part_number":   {"配件编号", "part_number", "part number", "part #"},
	"name":          {"名称", "name"},
	"description":   {"描述", "description"},
	"manufacturer":  {"厂商", "manufacturer"},
	"category":      {"分类", "category"},
	"unit_price":    {"单价", "unit_price", "unit price", "price"},
	"quantity":      {"数量", "quantity", "qty"},
	"reorder_level": {"补货线", "reorder_level", "reorder level"},
	"location":      {"库位", "location"},
}

func (s *partService) Import(ctx context.Context, reader io.Reader, callerID string) (*dto.ImportPartResponse, error) {
	excelRows, err := readFirstSheet(reader)
	if err != nil {
		return nil, err
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}
	col := parseHeaderIndex(excelRows[0], partImportColumns)
	if col["part_number"] < 0 || col["name"] < 0 {
		return nil, ErrImportBadHeader
	}
	if len(excelRows)-1 > maxImportRows {
		return nil, ErrImportTooManyRows
	}

	resp := &dto.ImportPartResponse{}
	var valid []*model.Part
	seen := make(map[string]int)

	// ── 阶段 1：解析 ──
	for i := 1; i < len(excelRows); i++ {
		r := excelRows[i]
		rowNum := i + 1
		number := cellAt(r, col["part_number"])
		name := cellAt(r, col["name"])
		if number == "" && name == "" {
			continue
		}
		resp.Total++

		fail := func(reason string) {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportUserError{Row: rowNum, Reason: reason})
		}
		if number == "" || name == "" {
			fail("配件编号和名称不能为空")
			continue
		}
		if prev, dup := seen[number]; dup {
			fail(fmt.Sprintf("配件编号与第 %d 行重复", prev))
			continue
		}

		price, err := parseDecimalCell(cellAt(r, col["unit_price"]))
		if err != nil || price.IsNegative() {
			fail("单价格式无效")
			continue
		}
		qty, err := parseIntCell(cellAt(r, col["quantity"]))
		if err != nil || qty < 0 {
			fail("数量格式无效")
			continue
		}
		reorder, err := parseIntCell(cellAt(r, col["reorder_level"]))
		if err != nil || reorder < 0 {
			fail("补货线格式无效")
			continue
		}

		seen[number] = rowNum
		valid = append(valid, &model.Part{
			PartNumber:   number,
			Name:         name,
			Description:  cellAt(r, col["description"]),
			Manufacturer: cellAt(r, col["manufacturer"]),
			Category:     cellAt(r, col["category"]),
			UnitPrice:    price,
			Quantity:     qty,
			ReorderLevel: reorder,
			Location:     cellAt(r, col["location"]),
			IsActive:     true,
		})
	}
	if resp.Total == 0 {
		return nil, ErrImportNoData
	}
	if len(valid) == 0 {
		return resp, nil
	}

	// ── 阶段 2：upsert ──
	created, updated := 0, 0
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		created, updated = 0, 0
		for _, p := range valid {
			existing, err := tx.Part.GetByNumber(ctx, p.PartNumber)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err != nil {
				p.CreatedBy = &callerID
				p.UpdatedBy = &callerID
				if err := tx.Part.Create(ctx, p); err != nil {
					return err
				}
				created++
				continue
			}

			existing.Name = p.Name
			existing.Description = p.Description
			existing.Manufacturer = p.Manufacturer
			existing.Category = p.Category
			existing.UnitPrice = p.UnitPrice
			existing.Quantity = p.Quantity
			existing.ReorderLevel = p.ReorderLevel
			existing.Location = p.Location
			existing.IsActive = true
			existing.UpdatedBy = &callerID
			if err := tx.Part.Update(ctx, existing); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("导入配件失败", zap.Error(err))
		return nil, err
	}
	resp.Created, resp.Updated = created, updated

	s.logger.Info("配件导入完成",
		zap.Int("total", resp.Total),
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Int("failed", resp.Failed),
	)
	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNamePart, Description: "导入配件",
		SubjectType: "part", CauserID: callerID,
		Properties: map[string]interface{}{"created": created, "updated": updated, "failed": resp.Failed},
	})
	return resp, nil
}

// ensureNumberFree 检查配件编号未被其他配件占用
func (s *partService) ensureNumberFree(ctx context.Context, number, excludeID string) error {
	existing, err := s.repo.Part.GetByNumber(ctx, number)
	if err == nil && existing.PartID != excludeID {
		return ErrPartNumberExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func parseDecimalCell(v string) (decimal.Decimal, error) {
	v = strings.TrimPrefix(strings.ReplaceAll(v, ",", ""), "$")
	if v == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v)
}

func parseIntCell(v string) (int, error) {
	v = strings.ReplaceAll(v, ",", "")
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
