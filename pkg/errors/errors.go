package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// StaleRecordError 带表名与主键的乐观锁冲突，errors.Is 匹配 ErrOptimisticLock
type StaleRecordError struct {
	Table string
	ID    string
}

func (e *StaleRecordError) Error() string {
	return fmt.Sprintf("%s(%s): %s", e.Table, e.ID, ErrOptimisticLock.Error())
}

func (e *StaleRecordError) Unwrap() error { return ErrOptimisticLock }

// Stale 构造乐观锁冲突错误
func Stale(table, id string) error {
	return &StaleRecordError{Table: table, ID: id}
}
