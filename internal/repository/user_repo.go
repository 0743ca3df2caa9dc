package repository

import (
	"Crewboard/internal/model"
	"context"

	"gorm.io/gorm"
)

type UserRepo interface {
	GetUser(ctx context.Context, userID uint64) (*model.User, error)
	GetUsersByIDs(ctx context.Context, userIDs []uint64) (map[uint64]*model.User, error)
	ExistAll(ctx context.Context, userIDs []uint64) (bool, error)
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &userRepoImpl{db: db}
}

// GetUser 根据用户 ID 获取用户
func (s *userRepoImpl) GetUser(ctx context.Context, userID uint64) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	return &user, err
}

// GetUsersByIDs 批量获取用户并按 ID 建索引
func (s *userRepoImpl) GetUsersByIDs(ctx context.Context, userIDs []uint64) (map[uint64]*model.User, error) {
	res := make(map[uint64]*model.User, len(userIDs))
	if len(userIDs) == 0 {
		return res, nil
	}

	var users []*model.User
	err := s.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		res[u.ID] = u
	}
	return res, nil
}

// ExistAll 检查给定用户 ID 是否全部存在
func (s *userRepoImpl) ExistAll(ctx context.Context, userIDs []uint64) (bool, error) {
	if len(userIDs) == 0 {
		return true, nil
	}
	seen := make(map[uint64]struct{}, len(userIDs))
	for _, id := range userIDs {
		seen[id] = struct{}{}
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("id IN ?", userIDs).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == int64(len(seen)), nil
}
