package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
)

// canActFor 调用方能否查看 / 审批目标员工的数据
//   - admin / hr：全部员工
//   - 本人
//   - 直属上级
func canActFor(ctx context.Context, repo *repository.Repository, caller Caller, userID string) (*model.User, bool, error) {
	target, err := repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}
	if caller.IsPrivileged() || caller.UserID == userID {
		return target, true, nil
	}
	return target, isManagerOf(caller, target), nil
}

func isManagerOf(caller Caller, target *model.User) bool {
	return target.ManagerID != nil && *target.ManagerID == caller.UserID
}

// reportIDs 返回直属下属的用户 ID
func reportIDs(ctx context.Context, repo *repository.Repository, managerID string) ([]string, error) {
	reports, err := repo.User.ListByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(reports))
	for _, u := range reports {
		ids = append(ids, u.UserID)
	}
	return ids, nil
}
