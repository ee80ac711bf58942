package models

import "time"

// TaskDependency records that a task depends on another task.
type TaskDependency struct {
	TaskID      uint64    `gorm:"primarykey" json:"task_id"`
	DependsOnID uint64    `gorm:"primarykey" json:"depends_on_id"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	DependsOn Task `gorm:"foreignKey:DependsOnID" json:"depends_on,omitempty"`
}
