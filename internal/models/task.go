package models

import "time"

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task belongs to exactly one Project; visibility is derived entirely from the
// parent project's owner. AssigneeID is a weak reference, the assignee does not
// need any relationship to the owning project.
type Task struct {
	BaseModel

	Title       string       `gorm:"not null"`
	Description *string      `gorm:"type:text"`
	Status      TaskStatus   `gorm:"not null;default:todo"`
	Priority    TaskPriority `gorm:"not null;default:medium"`
	DueDate     *time.Time
	ProjectID   string  `gorm:"type:uuid;not null;index"`
	AssigneeID  *string `gorm:"type:uuid;index"`

	// Relationships
	Project  Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee *User   `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
