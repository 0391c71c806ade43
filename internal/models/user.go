package models

// User 代表系统中的用户 (教师或学员)。
type User struct {
	BaseModel
	Username     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"` // 不暴露密码哈希
	Email        string `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	Nickname     string `gorm:"type:varchar(100)" json:"nickname,omitempty"`

	// 关联关系
	Quests []Quest `gorm:"foreignKey:OwnerID" json:"quests,omitempty"` // 用户创建的 quest
}

// TableName 指定 User 模型的表名。
func (User) TableName() string {
	return "users"
}
