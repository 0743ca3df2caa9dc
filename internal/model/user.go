package model

import "time"

// User 用户展示信息，由外部账号体系同步，本域只读
type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Nickname  string    `gorm:"type:varchar(50);not null" json:"nickname"`
	AvatarURL string    `gorm:"type:varchar(512);column:avatar_url;default:'default_avatar.png'" json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }
