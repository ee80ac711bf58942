package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/projectpulse/tracker/internal/authz"
	"github.com/projectpulse/tracker/internal/models"
	"github.com/projectpulse/tracker/internal/query"
	"github.com/projectpulse/tracker/internal/repository"
	"gorm.io/gorm"
)

var (
	// ErrPermissionDenied is returned when the actor was identified but lacks
	// rights over the target entity.
	ErrPermissionDenied = errors.New("you do not have permission to perform this action")

	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectNameRequired  = errors.New("project name is required")
	ErrInvalidProjectStatus = errors.New("invalid project status")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrEndBeforeStart       = errors.New("end date cannot be before start date")
	ErrMemberExists         = errors.New("user is already a member of this project")
	ErrCannotRemoveOwner    = errors.New("cannot remove the project owner")
	ErrMemberNotFound       = errors.New("user is not a member of this project")
)

// ProjectService provides business logic for project operations.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, taskRepo repository.TaskRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		userRepo:    userRepo,
	}
}

// projectPreloads are the relations a loaded project carries for access
// checks and responses.
var projectPreloads = []string{"Owner", "Members", "Members.User"}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name        string
	Description string
	Status      models.ProjectStatus
	StartDate   *time.Time
	EndDate     *time.Time
	Priority    models.Priority
	Category    string
	Tags        string
	Budget      float64
}

// CreateProject creates a project owned by the actor. The owner is inserted
// into the member list alongside the ownership reference.
func (s *ProjectService) CreateProject(actor *models.User, input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProjectNameRequired
	}

	status := input.Status
	if status == "" {
		status = models.ProjectStatusPlanning
	}
	if !models.ValidProjectStatus(status) {
		return nil, ErrInvalidProjectStatus
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, ErrInvalidPriority
	}

	startDate := time.Now()
	if input.StartDate != nil {
		startDate = *input.StartDate
	}
	if input.EndDate != nil && input.EndDate.Before(startDate) {
		return nil, ErrEndBeforeStart
	}

	project := &models.Project{
		Name:        name,
		Description: input.Description,
		Status:      status,
		StartDate:   startDate,
		EndDate:     input.EndDate,
		OwnerID:     actor.ID,
		Priority:    priority,
		Category:    input.Category,
		Tags:        input.Tags,
		Budget:      input.Budget,
	}

	member := &models.ProjectMember{
		UserID:  actor.ID,
		AddedAt: time.Now(),
	}

	if err := s.projectRepo.Create(project, member); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.projectRepo.FindByID(project.ID, projectPreloads...)
}

// ListProjects returns the projects visible to the actor.
func (s *ProjectService) ListProjects(actor *models.User, opts query.Options) ([]models.Project, int64, error) {
	scope := repository.Scope{ActorID: actor.ID, Admin: actor.IsAdmin()}

	projects, total, err := s.projectRepo.List(scope, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, total, nil
}

// GetProject returns a project if the actor may read it.
func (s *ProjectService) GetProject(actor *models.User, projectID uint64) (*models.Project, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessProject(actor, project, authz.Read) {
		return nil, ErrPermissionDenied
	}

	return project, nil
}

// UpdateProjectInput represents parameters to update a project. Nil fields
// are left unchanged. The completion percentage is derived and cannot be set.
type UpdateProjectInput struct {
	Name         *string
	Description  *string
	Status       *models.ProjectStatus
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
	Priority     *models.Priority
	Category     *string
	Tags         *string
	Budget       *float64
}

// UpdateProject updates a project if the actor may write it.
func (s *ProjectService) UpdateProject(actor *models.User, projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessProject(actor, project, authz.Write) {
		return nil, ErrPermissionDenied
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrProjectNameRequired
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		if !models.ValidProjectStatus(*input.Status) {
			return nil, ErrInvalidProjectStatus
		}
		project.Status = *input.Status
	}
	if input.Priority != nil {
		if !models.ValidPriority(*input.Priority) {
			return nil, ErrInvalidPriority
		}
		project.Priority = *input.Priority
	}
	if input.StartDate != nil {
		project.StartDate = *input.StartDate
	}
	if input.ClearEndDate {
		project.EndDate = nil
	} else if input.EndDate != nil {
		project.EndDate = input.EndDate
	}
	if project.EndDate != nil && project.EndDate.Before(project.StartDate) {
		return nil, ErrEndBeforeStart
	}
	if input.Category != nil {
		project.Category = *input.Category
	}
	if input.Tags != nil {
		project.Tags = *input.Tags
	}
	if input.Budget != nil {
		project.Budget = *input.Budget
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.projectRepo.FindByID(project.ID, projectPreloads...)
}

// DeleteProject deletes a project and all of its tasks.
func (s *ProjectService) DeleteProject(actor *models.User, projectID uint64) error {
	project, err := s.loadProject(projectID)
	if err != nil {
		return err
	}

	if !authz.CanAccessProject(actor, project, authz.Write) {
		return ErrPermissionDenied
	}

	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// AddMember adds a user to the project's member list. Only the owner or an
// admin may manage members.
func (s *ProjectService) AddMember(actor *models.User, projectID, userID uint64) (*models.Project, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessProject(actor, project, authz.Write) {
		return nil, ErrPermissionDenied
	}

	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if _, err := s.projectRepo.FindMember(projectID, userID); err == nil {
		return nil, ErrMemberExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		AddedAt:   time.Now(),
	}

	if err := s.projectRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return s.projectRepo.FindByID(projectID, projectPreloads...)
}

// RemoveMember removes a user from the project's member list. The owner can
// never be removed through this path.
func (s *ProjectService) RemoveMember(actor *models.User, projectID, userID uint64) (*models.Project, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessProject(actor, project, authz.Write) {
		return nil, ErrPermissionDenied
	}

	if project.OwnerID == userID {
		return nil, ErrCannotRemoveOwner
	}

	if _, err := s.projectRepo.FindMember(projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	if err := s.projectRepo.RemoveMember(projectID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	return s.projectRepo.FindByID(projectID, projectPreloads...)
}

// ProjectStats aggregates a project's task counts.
type ProjectStats struct {
	TotalTasks           int64                       `json:"total_tasks"`
	TasksByStatus        map[models.TaskStatus]int64 `json:"tasks_by_status"`
	CompletionPercentage int                         `json:"completion_percentage"`
}

// GetStats returns task statistics for a project the actor may read.
func (s *ProjectService) GetStats(actor *models.User, projectID uint64) (*ProjectStats, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessProject(actor, project, authz.Read) {
		return nil, ErrPermissionDenied
	}

	counts, err := s.taskRepo.CountByStatus(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	stats := &ProjectStats{
		TasksByStatus:        counts,
		CompletionPercentage: project.CompletionPercentage,
	}
	for _, count := range counts {
		stats.TotalTasks += count
	}

	return stats, nil
}

// RecomputeCompletion recalculates and persists the project's completion
// percentage from its current task set.
func (s *ProjectService) RecomputeCompletion(projectID uint64) error {
	return recomputeCompletion(s.taskRepo, s.projectRepo, projectID)
}

func (s *ProjectService) loadProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID, projectPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}
