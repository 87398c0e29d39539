package models

type Project struct {
	BaseModel

	Name        string  `gorm:"not null"`
	Description *string `gorm:"type:text"`
	OwnerID     string  `gorm:"type:uuid;not null;index"`

	// Relationships
	Owner User   `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks []Task `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
