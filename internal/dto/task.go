package dto

import (
	"time"

	"github.com/projectpulse/tracker/internal/models"
)

// TaskCommentDTO represents a task comment in API responses
type TaskCommentDTO struct {
	ID        uint64    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  uint64    `json:"author_id"`
	Author    *UserDTO  `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Status         models.TaskStatus `json:"status"`
	Priority       models.Priority   `json:"priority"`
	DueDate        *time.Time        `json:"due_date"`
	ProjectID      uint64            `json:"project_id"`
	AssignedToID   *uint64           `json:"assigned_to_id"`
	CreatedByID    uint64            `json:"created_by_id"`
	EstimatedHours float64           `json:"estimated_hours"`
	ActualHours    float64           `json:"actual_hours"`
	Tags           string            `json:"tags,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	AssignedTo     *UserDTO          `json:"assigned_to,omitempty"`
	CreatedBy      *UserDTO          `json:"created_by,omitempty"`
	Comments       []TaskCommentDTO  `json:"comments,omitempty"`
	Dependencies   []uint64          `json:"dependencies,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks   []models.Task `json:"tasks"`
	Results int           `json:"results"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
	Total   int64         `json:"total"`
}

// ToTaskCommentDTO converts a TaskComment model to TaskCommentDTO
func ToTaskCommentDTO(comment models.TaskComment) TaskCommentDTO {
	out := TaskCommentDTO{
		ID:        comment.ID,
		Text:      comment.Text,
		AuthorID:  comment.AuthorID,
		CreatedAt: comment.CreatedAt,
	}

	if comment.Author.ID != 0 {
		author := ToUserDTO(comment.Author)
		out.Author = &author
	}

	return out
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	out := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		DueDate:        task.DueDate,
		ProjectID:      task.ProjectID,
		AssignedToID:   task.AssignedToID,
		CreatedByID:    task.CreatedByID,
		EstimatedHours: task.EstimatedHours,
		ActualHours:    task.ActualHours,
		Tags:           task.Tags,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}

	// Include assignee if preloaded
	if task.AssignedTo != nil && task.AssignedTo.ID != 0 {
		assignee := ToUserDTO(*task.AssignedTo)
		out.AssignedTo = &assignee
	}

	// Include creator if preloaded
	if task.CreatedBy.ID != 0 {
		creator := ToUserDTO(task.CreatedBy)
		out.CreatedBy = &creator
	}

	// Include comments if preloaded
	if len(task.Comments) > 0 {
		out.Comments = make([]TaskCommentDTO, len(task.Comments))
		for i, comment := range task.Comments {
			out.Comments[i] = ToTaskCommentDTO(comment)
		}
	}

	// Include dependency ids if preloaded
	if len(task.Dependencies) > 0 {
		out.Dependencies = make([]uint64, len(task.Dependencies))
		for i, dep := range task.Dependencies {
			out.Dependencies[i] = dep.DependsOnID
		}
	}

	return out
}
