package storage

import (
	"context"

	"gorm.io/gorm"

	"quest-go/internal/models"
)

// AttachmentRepository 定义 quest 附件的数据访问接口。
type AttachmentRepository interface {
	Create(ctx context.Context, att *models.QuestAttachment) error
	GetByID(ctx context.Context, id uint) (*models.QuestAttachment, error)
	// ListByQuest 按上传顺序 (id 升序) 返回附件，这也是前端的显示顺序。
	ListByQuest(ctx context.Context, questID uint) ([]models.QuestAttachment, error)
	Delete(ctx context.Context, id uint) error
}

type gormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GORM-based AttachmentRepository.
func NewGormAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &gormAttachmentRepository{db: db}
}

func (r *gormAttachmentRepository) Create(ctx context.Context, att *models.QuestAttachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

func (r *gormAttachmentRepository) GetByID(ctx context.Context, id uint) (*models.QuestAttachment, error) {
	var att models.QuestAttachment
	if err := r.db.WithContext(ctx).First(&att, id).Error; err != nil {
		return nil, err
	}
	return &att, nil
}

func (r *gormAttachmentRepository) ListByQuest(ctx context.Context, questID uint) ([]models.QuestAttachment, error) {
	atts := make([]models.QuestAttachment, 0)
	err := r.db.WithContext(ctx).
		Where("quest_id = ?", questID).
		Order("id ASC").
		Find(&atts).Error
	return atts, err
}

// Delete 软删除附件记录。记录不存在时返回 gorm.ErrRecordNotFound。
func (r *gormAttachmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.QuestAttachment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
