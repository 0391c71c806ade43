package storage

import (
	"context"

	"gorm.io/gorm"

	"quest-go/internal/models"
)

// QuestRepository 定义 quest 数据的访问接口。
type QuestRepository interface {
	Create(ctx context.Context, quest *models.Quest) error
	GetByID(ctx context.Context, id uint) (*models.Quest, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Quest, error)
}

type gormQuestRepository struct {
	db *gorm.DB
}

// NewGormQuestRepository creates a new GORM-based QuestRepository.
func NewGormQuestRepository(db *gorm.DB) QuestRepository {
	return &gormQuestRepository{db: db}
}

func (r *gormQuestRepository) Create(ctx context.Context, quest *models.Quest) error {
	return r.db.WithContext(ctx).Create(quest).Error
}

// GetByID 未找到时返回 gorm.ErrRecordNotFound。
func (r *gormQuestRepository) GetByID(ctx context.Context, id uint) (*models.Quest, error) {
	var quest models.Quest
	if err := r.db.WithContext(ctx).First(&quest, id).Error; err != nil {
		return nil, err
	}
	return &quest, nil
}

func (r *gormQuestRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Quest, error) {
	var quests []models.Quest
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&quests).Error
	return quests, err
}
