package repository

import (
	"Crewboard/internal/model"
	"context"

	"gorm.io/gorm"
)

const (
	ReactionAdded   = "added"
	ReactionRemoved = "removed"
)

type ReactionRepo interface {
	Toggle(ctx context.Context, msgID, userID uint64, emoji string) (string, error)
}

type reactionRepoImpl struct {
	db *gorm.DB
}

func NewReactionRepo(db *gorm.DB) ReactionRepo {
	return &reactionRepoImpl{db: db}
}

// Toggle 回应开关，单事务内先删后插
// 删到行说明此前已点过，本次为取消；没删到则插入，插入撞唯一键说明并发
// 对手刚点上，再删一次等价于取消。InnoDB 的 1062 不会中断事务，可以继续
func (s *reactionRepoImpl) Toggle(ctx context.Context, msgID, userID uint64, emoji string) (string, error) {
	action := ReactionAdded
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("message_id = ? AND user_id = ? AND emoji = ?", msgID, userID, emoji).
			Delete(&model.Reaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			action = ReactionRemoved
			return nil
		}

		err := tx.Create(&model.Reaction{MessageID: msgID, UserID: userID, Emoji: emoji}).Error
		if err != nil {
			if IsDuplicateKeyError(err) {
				action = ReactionRemoved
				return tx.Where("message_id = ? AND user_id = ? AND emoji = ?", msgID, userID, emoji).
					Delete(&model.Reaction{}).Error
			}
			return err
		}
		return nil
	})
	return action, err
}
