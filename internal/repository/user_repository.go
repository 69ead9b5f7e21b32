package repository

import (
	"github.com/cartrecovery/internal/models"

	"gorm.io/gorm"
)

// userContactColumns 弃购检测只关心联系信息
var userContactColumns = []string{"id", "email", "display_name", "locale", "status"}

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetContactsByIDs(ids []uint) (map[uint]models.User, error)
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetContactsByIDs 批量读取用户联系信息，按用户 ID 索引；不存在的 ID 不出现在结果中
func (r *GormUserRepository) GetContactsByIDs(ids []uint) (map[uint]models.User, error) {
	unique := dedupeIDs(ids)
	result := make(map[uint]models.User, len(unique))
	if len(unique) == 0 {
		return result, nil
	}
	var users []models.User
	if err := r.db.Select(userContactColumns).Where("id IN ?", unique).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, user := range users {
		result[user.ID] = user
	}
	return result, nil
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
