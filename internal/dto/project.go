package dto

import (
	"time"

	"github.com/projectpulse/tracker/internal/models"
)

// ProjectMemberDTO represents a project member in API responses
type ProjectMemberDTO struct {
	UserID  uint64    `json:"user_id"`
	AddedAt time.Time `json:"added_at"`
	User    *UserDTO  `json:"user,omitempty"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID                   uint64               `json:"id"`
	Name                 string               `json:"name"`
	Description          string               `json:"description"`
	Status               models.ProjectStatus `json:"status"`
	StartDate            time.Time            `json:"start_date"`
	EndDate              *time.Time           `json:"end_date"`
	OwnerID              uint64               `json:"owner_id"`
	Priority             models.Priority      `json:"priority"`
	Category             string               `json:"category,omitempty"`
	Tags                 string               `json:"tags,omitempty"`
	Budget               float64              `json:"budget"`
	CompletionPercentage int                  `json:"completion_percentage"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
	Owner                *UserDTO             `json:"owner,omitempty"`
	Members              []ProjectMemberDTO   `json:"members,omitempty"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects []models.Project `json:"projects"`
	Results  int              `json:"results"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Total    int64            `json:"total"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	out := ProjectDTO{
		ID:                   project.ID,
		Name:                 project.Name,
		Description:          project.Description,
		Status:               project.Status,
		StartDate:            project.StartDate,
		EndDate:              project.EndDate,
		OwnerID:              project.OwnerID,
		Priority:             project.Priority,
		Category:             project.Category,
		Tags:                 project.Tags,
		Budget:               project.Budget,
		CompletionPercentage: project.CompletionPercentage,
		CreatedAt:            project.CreatedAt,
		UpdatedAt:            project.UpdatedAt,
	}

	// Include owner if preloaded
	if project.Owner.ID != 0 {
		owner := ToUserDTO(project.Owner)
		out.Owner = &owner
	}

	// Include members if preloaded
	if len(project.Members) > 0 {
		out.Members = make([]ProjectMemberDTO, len(project.Members))
		for i, member := range project.Members {
			m := ProjectMemberDTO{
				UserID:  member.UserID,
				AddedAt: member.AddedAt,
			}
			if member.User.ID != 0 {
				user := ToUserDTO(member.User)
				m.User = &user
			}
			out.Members[i] = m
		}
	}

	return out
}
