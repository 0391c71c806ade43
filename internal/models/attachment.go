package models

import "quest-go/internal/apitypes"

// QuestAttachment 是上传到某个 quest 的一个文件。
type QuestAttachment struct {
	BaseModel
	QuestID     uint   `gorm:"index;not null" json:"questId"`
	UploaderID  uint   `gorm:"index;not null" json:"uploaderId"`
	FileName    string `gorm:"type:varchar(255);not null" json:"fileName"`
	FileType    string `gorm:"type:varchar(150);not null" json:"fileType"`
	FileSize    int64  `gorm:"not null" json:"fileSize"`
	FileURL     string `gorm:"type:text;not null" json:"fileUrl"`
	StoragePath string `gorm:"type:text;not null" json:"-"` // 存储后端中的路径或对象 key

	Quest Quest `gorm:"foreignKey:QuestID" json:"-"`
}

// TableName 指定 QuestAttachment 模型的表名。
func (QuestAttachment) TableName() string {
	return "quest_attachments"
}

// ToAPI 转换为接口返回的附件记录，uploaded_at 取创建时间。
func (a *QuestAttachment) ToAPI() apitypes.Attachment {
	return apitypes.Attachment{
		ID:         a.ID,
		FileName:   a.FileName,
		FileType:   a.FileType,
		FileSize:   a.FileSize,
		FileURL:    a.FileURL,
		UploadedAt: a.CreatedAt,
	}
}
