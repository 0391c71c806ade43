package models

// Quest 是课程中的一个学习单元，附件挂在 quest 下面。
type Quest struct {
	BaseModel
	OwnerID     uint   `gorm:"index;not null" json:"ownerId"`
	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	Owner       User              `gorm:"foreignKey:OwnerID" json:"-"`
	Attachments []QuestAttachment `gorm:"foreignKey:QuestID" json:"attachments,omitempty"`
}

// TableName 指定 Quest 模型的表名。
func (Quest) TableName() string {
	return "quests"
}
