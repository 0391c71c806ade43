package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"quest-go/internal/apitypes"
	"quest-go/internal/models"
	"quest-go/internal/storage"

	"gorm.io/gorm"
)

var (
	ErrAttachmentNotFound = errors.New("附件不存在")
	ErrForbidden          = errors.New("没有权限执行该操作")
)

// EventPublisher 发布附件变更事件，由 kafka.AttachmentEventPublisher 实现。
type EventPublisher interface {
	Publish(ctx context.Context, event apitypes.AttachmentEvent) error
}

// UploadInput 描述一次附件上传。
type UploadInput struct {
	ActorID  uint
	QuestID  uint
	FileName string
	MimeType string
	Size     int64
	Content  io.Reader
}

// AttachmentService 负责附件的存储、持久化和事件发布。
type AttachmentService interface {
	Upload(ctx context.Context, in UploadInput) (*models.QuestAttachment, error)
	ListByQuest(ctx context.Context, questID uint) ([]models.QuestAttachment, error)
	// Delete 只允许上传者或 quest 的所有者删除。
	Delete(ctx context.Context, actorID, attachmentID uint) error
}

type attachmentService struct {
	questRepo      storage.QuestRepository
	attachmentRepo storage.AttachmentRepository
	files          apitypes.StorageService
	events         EventPublisher
	now            func() time.Time
}

// NewAttachmentService 创建 AttachmentService。events 为 nil 时不发布事件。
func NewAttachmentService(questRepo storage.QuestRepository, attachmentRepo storage.AttachmentRepository, files apitypes.StorageService, events EventPublisher) AttachmentService {
	return &attachmentService{
		questRepo:      questRepo,
		attachmentRepo: attachmentRepo,
		files:          files,
		events:         events,
		now:            time.Now,
	}
}

func (s *attachmentService) Upload(ctx context.Context, in UploadInput) (*models.QuestAttachment, error) {
	if in.FileName == "" || in.Content == nil {
		return nil, fmt.Errorf("%w: 缺少文件", ErrInvalidInput)
	}
	if _, err := s.questRepo.GetByID(ctx, in.QuestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("查询 quest %d 失败: %w", in.QuestID, err)
	}

	info, err := s.files.UploadFile(ctx, in.Content, in.Size, in.FileName, in.MimeType)
	if err != nil {
		return nil, fmt.Errorf("保存文件 %s 失败: %w", in.FileName, err)
	}

	att := &models.QuestAttachment{
		QuestID:     in.QuestID,
		UploaderID:  in.ActorID,
		FileName:    in.FileName,
		FileType:    info.MimeType,
		FileSize:    info.Size,
		FileURL:     info.URL,
		StoragePath: info.Path,
	}
	if att.FileType == "" {
		att.FileType = in.MimeType
	}
	if err := s.attachmentRepo.Create(ctx, att); err != nil {
		// 记录写入失败时清理已经存下的文件
		if delErr := s.files.DeleteFile(ctx, info.Path); delErr != nil {
			log.Printf("清理孤立文件 %s 失败: %v", info.Path, delErr)
		}
		return nil, fmt.Errorf("保存附件记录失败: %w", err)
	}

	s.publish(ctx, apitypes.AttachmentCreated, in.ActorID, att)
	return att, nil
}

func (s *attachmentService) ListByQuest(ctx context.Context, questID uint) ([]models.QuestAttachment, error) {
	if _, err := s.questRepo.GetByID(ctx, questID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("查询 quest %d 失败: %w", questID, err)
	}
	atts, err := s.attachmentRepo.ListByQuest(ctx, questID)
	if err != nil {
		return nil, fmt.Errorf("获取 quest %d 的附件失败: %w", questID, err)
	}
	return atts, nil
}

func (s *attachmentService) Delete(ctx context.Context, actorID, attachmentID uint) error {
	att, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAttachmentNotFound
	}
	if err != nil {
		return fmt.Errorf("查询附件 %d 失败: %w", attachmentID, err)
	}

	if att.UploaderID != actorID {
		quest, err := s.questRepo.GetByID(ctx, att.QuestID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询 quest %d 失败: %w", att.QuestID, err)
		}
		if quest == nil || quest.OwnerID != actorID {
			return ErrForbidden
		}
	}

	if err := s.attachmentRepo.Delete(ctx, attachmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttachmentNotFound
		}
		return fmt.Errorf("删除附件记录 %d 失败: %w", attachmentID, err)
	}
	// 记录已删除，文件清理失败只记日志
	if err := s.files.DeleteFile(ctx, att.StoragePath); err != nil {
		log.Printf("删除附件 %d 的文件 %s 失败: %v", attachmentID, att.StoragePath, err)
	}

	s.publish(ctx, apitypes.AttachmentDeleted, actorID, att)
	return nil
}

func (s *attachmentService) publish(ctx context.Context, typ apitypes.AttachmentEventType, actorID uint, att *models.QuestAttachment) {
	if s.events == nil {
		return
	}
	event := apitypes.AttachmentEvent{
		Type:       typ,
		QuestID:    att.QuestID,
		ActorID:    actorID,
		Attachment: att.ToAPI(),
		Timestamp:  s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("发布附件事件 %s (attachment=%d) 失败: %v", typ, att.ID, err)
	}
}
