package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestStale(t *testing.T) {
	err := fmt.Errorf("更新余额: %w", Stale("pto_balances", "b-1"))

	if !errors.Is(err, ErrOptimisticLock) {
		t.Fatalf("期望匹配 ErrOptimisticLock，实际: %v", err)
	}

	var stale *StaleRecordError
	if !errors.As(err, &stale) {
		t.Fatalf("期望可提取 StaleRecordError")
	}
	if stale.Table != "pto_balances" || stale.ID != "b-1" {
		t.Errorf("表名或主键错误: %+v", stale)
	}
}
