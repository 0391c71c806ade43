package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quest-go/internal/models"
	"quest-go/internal/storage"

	"gorm.io/gorm"
)

var ErrQuestNotFound = errors.New("quest 不存在")

// QuestService 管理 quest 本身，附件由 AttachmentService 负责。
type QuestService interface {
	Create(ctx context.Context, ownerID uint, title, description string) (*models.Quest, error)
	Get(ctx context.Context, questID uint) (*models.Quest, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Quest, error)
}

type questService struct {
	questRepo storage.QuestRepository
}

// NewQuestService 创建一个新的 QuestService 实例。
func NewQuestService(questRepo storage.QuestRepository) QuestService {
	return &questService{questRepo: questRepo}
}

func (s *questService) Create(ctx context.Context, ownerID uint, title, description string) (*models.Quest, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: quest 标题不能为空", ErrInvalidInput)
	}
	quest := &models.Quest{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
	}
	if err := s.questRepo.Create(ctx, quest); err != nil {
		return nil, fmt.Errorf("创建 quest 失败: %w", err)
	}
	return quest, nil
}

func (s *questService) Get(ctx context.Context, questID uint) (*models.Quest, error) {
	quest, err := s.questRepo.GetByID(ctx, questID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("获取 quest %d 失败: %w", questID, err)
	}
	return quest, nil
}

func (s *questService) ListByOwner(ctx context.Context, ownerID uint) ([]models.Quest, error) {
	quests, err := s.questRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("获取用户 %d 的 quest 列表失败: %w", ownerID, err)
	}
	return quests, nil
}
