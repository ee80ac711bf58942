package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
)

// ValidTaskStatus reports whether status is one of the known task statuses.
func ValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Title          string         `gorm:"type:varchar(100);not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Status         TaskStatus     `gorm:"type:varchar(20);not null;default:'todo';index" json:"status"`
	Priority       Priority       `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	DueDate        *time.Time     `gorm:"index" json:"due_date"`
	ProjectID      uint64         `gorm:"not null;index" json:"project_id"`
	AssignedToID   *uint64        `gorm:"index" json:"assigned_to_id"`
	CreatedByID    uint64         `gorm:"not null;index" json:"created_by_id"`
	EstimatedHours float64        `gorm:"default:0" json:"estimated_hours"`
	ActualHours    float64        `gorm:"default:0" json:"actual_hours"`
	Tags           string         `gorm:"type:varchar(255)" json:"tags"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project      Project          `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	AssignedTo   *User            `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	CreatedBy    User             `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Comments     []TaskComment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Dependencies []TaskDependency `gorm:"foreignKey:TaskID" json:"dependencies,omitempty"`
}

// IsAssignedTo reports whether the task is assigned to the given user.
func (t *Task) IsAssignedTo(userID uint64) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}
