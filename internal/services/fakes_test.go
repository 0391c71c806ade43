package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"gorm.io/gorm"

	"quest-go/internal/apitypes"
	"quest-go/internal/models"
)

type memUsers struct {
	mu    sync.Mutex
	users []*models.User
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = uint(len(m.users) + 1)
	m.users = append(m.users, user)
	return nil
}

func (m *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

type memQuests struct {
	quests map[uint]*models.Quest
}

func newMemQuests(quests ...models.Quest) *memQuests {
	m := &memQuests{quests: make(map[uint]*models.Quest)}
	for i := range quests {
		q := quests[i]
		m.quests[q.ID] = &q
	}
	return m
}

func (m *memQuests) Create(_ context.Context, quest *models.Quest) error {
	quest.ID = uint(len(m.quests) + 1)
	m.quests[quest.ID] = quest
	return nil
}

func (m *memQuests) GetByID(_ context.Context, id uint) (*models.Quest, error) {
	q, ok := m.quests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (m *memQuests) ListByOwner(_ context.Context, ownerID uint) ([]models.Quest, error) {
	var out []models.Quest
	for _, q := range m.quests {
		if q.OwnerID == ownerID {
			out = append(out, *q)
		}
	}
	return out, nil
}

type memAttachments struct {
	nextID    uint
	rows      []models.QuestAttachment
	createErr error
}

func (m *memAttachments) Create(_ context.Context, att *models.QuestAttachment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	att.ID = m.nextID
	att.CreatedAt = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	m.rows = append(m.rows, *att)
	return nil
}

func (m *memAttachments) GetByID(_ context.Context, id uint) (*models.QuestAttachment, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			att := m.rows[i]
			return &att, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memAttachments) ListByQuest(_ context.Context, questID uint) ([]models.QuestAttachment, error) {
	out := make([]models.QuestAttachment, 0)
	for _, r := range m.rows {
		if r.QuestID == questID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memAttachments) Delete(_ context.Context, id uint) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memFiles struct {
	stored  map[string][]byte
	deleted []string
	n       int
}

func newMemFiles() *memFiles { return &memFiles{stored: make(map[string][]byte)} }

func (m *memFiles) UploadFile(_ context.Context, r io.Reader, _ int64, fileName, mimeType string) (*apitypes.FileInfo, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	m.n++
	path := fileName + "-" + string(rune('a'+m.n))
	m.stored[path] = buf.Bytes()
	return &apitypes.FileInfo{
		URL:      "/uploads/" + path,
		Path:     path,
		Size:     int64(buf.Len()),
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

func (m *memFiles) DeleteFile(_ context.Context, path string) error {
	m.deleted = append(m.deleted, path)
	delete(m.stored, path)
	return nil
}

type recordingPublisher struct {
	events []apitypes.AttachmentEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event apitypes.AttachmentEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type memBlacklist struct {
	jtis map[string]time.Time
}

func (b *memBlacklist) Add(_ context.Context, jti string, exp time.Time) error {
	if b.jtis == nil {
		b.jtis = make(map[string]time.Time)
	}
	b.jtis[jti] = exp
	return nil
}

func (b *memBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := b.jtis[jti]
	return ok, nil
}

var errBoom = errors.New("boom")
