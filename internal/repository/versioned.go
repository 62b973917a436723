package repository

import (
	"context"

	"gorm.io/gorm"

	pkgerrors "github.com/Digitalhour/ACSCoreOS-sub013/pkg/errors"
)

// updateVersioned 以 WHERE pk = ? AND version = ? 条件更新 fields，并递增 version
// 影响行数为 0 时返回 ErrOptimisticLock（*pkgerrors.StaleRecordError）
func updateVersioned(ctx context.Context, db *gorm.DB, value interface{}, pkColumn, id string, oldVersion int, fields map[string]interface{}) error {
	fields["version"] = oldVersion + 1

	result := db.WithContext(ctx).
		Model(value).
		Where(pkColumn+" = ? AND version = ?", id, oldVersion).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.Stale(tableName(db, value), id)
	}
	return nil
}

// tableName 解析模型对应的表名，失败时返回空串
func tableName(db *gorm.DB, value interface{}) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(value); err != nil {
		return ""
	}
	return stmt.Schema.Table
}

// softDelete 写入删除人并软删除
func softDelete(ctx context.Context, db *gorm.DB, value interface{}, pkColumn, id, deletedBy string) error {
	return db.WithContext(ctx).
		Model(value).
		Where(pkColumn+" = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
