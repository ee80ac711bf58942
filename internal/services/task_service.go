package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/projectpulse/tracker/internal/authz"
	"github.com/projectpulse/tracker/internal/models"
	"github.com/projectpulse/tracker/internal/query"
	"github.com/projectpulse/tracker/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrTitleRequired     = errors.New("title is required")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrCommentTextEmpty  = errors.New("comment text is required")
	ErrInvalidDependency = errors.New("dependency task not found or belongs to another project")
	ErrAssigneeNotFound  = errors.New("assigned user not found")
)

// TaskService handles task business logic. Every successful task mutation
// synchronously recomputes the parent project's completion percentage before
// the call returns.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	logger      *slog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, userRepo repository.UserRepository, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// taskPreloads are the relations a loaded task carries for access checks and
// responses. Project.Members is required by the access predicate.
var taskPreloads = []string{
	"Project", "Project.Members", "AssignedTo", "CreatedBy",
	"Comments", "Comments.Author", "Dependencies",
}

// ListTasks returns the tasks visible to the actor, optionally narrowed to a
// single project.
func (s *TaskService) ListTasks(actor *models.User, projectID *uint64, opts query.Options) ([]models.Task, int64, error) {
	scope := repository.Scope{ActorID: actor.ID, Admin: actor.IsAdmin()}

	tasks, total, err := s.taskRepo.List(scope, projectID, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// ListMyTasks returns the tasks assigned to the actor.
func (s *TaskService) ListMyTasks(actor *models.User, opts query.Options) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.ListAssignedTo(actor.ID, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assigned tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task if the actor may read it.
func (s *TaskService) GetTask(actor *models.User, taskID uint64) (*models.Task, error) {
	task, err := s.loadTask(taskID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessTask(actor, task, authz.Read) {
		return nil, ErrPermissionDenied
	}

	return task, nil
}

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	Title          string
	Description    string
	Status         models.TaskStatus
	Priority       models.Priority
	DueDate        *time.Time
	ProjectID      uint64
	AssignedToID   *uint64
	EstimatedHours float64
	Tags           string
	Dependencies   []uint64
}

// CreateTask creates a task in a project the actor can access, then
// recomputes the project's completion percentage.
func (s *TaskService) CreateTask(actor *models.User, input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	status := input.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	if !models.ValidTaskStatus(status) {
		return nil, ErrInvalidTaskStatus
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, ErrInvalidPriority
	}

	project, err := s.projectRepo.FindByID(input.ProjectID, "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	// Any project member may create tasks; read access is the gate here,
	// unlike project administration which is owner-only.
	if !authz.CanAccessProject(actor, project, authz.Read) {
		return nil, ErrPermissionDenied
	}

	if input.AssignedToID != nil {
		if _, err := s.userRepo.FindByID(*input.AssignedToID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAssigneeNotFound
			}
			return nil, fmt.Errorf("failed to find assignee: %w", err)
		}
	}

	if err := s.validateDependencies(input.ProjectID, 0, input.Dependencies); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		Status:         status,
		Priority:       priority,
		DueDate:        input.DueDate,
		ProjectID:      input.ProjectID,
		AssignedToID:   input.AssignedToID,
		CreatedByID:    actor.ID,
		EstimatedHours: input.EstimatedHours,
		Tags:           input.Tags,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if len(input.Dependencies) > 0 {
		if err := s.taskRepo.ReplaceDependencies(task.ID, input.Dependencies); err != nil {
			return nil, fmt.Errorf("failed to store dependencies: %w", err)
		}
	}

	s.recompute(task.ProjectID)

	return s.loadTask(task.ID)
}

// UpdateTaskInput represents input for updating a task. Nil fields are left
// unchanged.
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	Priority       *models.Priority
	DueDate        *time.Time
	ClearDueDate   bool
	AssignedToID   *uint64
	ClearAssignee  bool
	EstimatedHours *float64
	ActualHours    *float64
	Tags           *string
	Dependencies   []uint64
}

// UpdateTask updates a task if the actor may write it, then recomputes the
// project's completion percentage.
func (s *TaskService) UpdateTask(actor *models.User, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.loadTask(taskID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessTask(actor, task, authz.Write) {
		return nil, ErrPermissionDenied
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleRequired
		}
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !models.ValidTaskStatus(*input.Status) {
			return nil, ErrInvalidTaskStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !models.ValidPriority(*input.Priority) {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.ClearAssignee {
		task.AssignedToID = nil
	} else if input.AssignedToID != nil {
		if _, err := s.userRepo.FindByID(*input.AssignedToID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAssigneeNotFound
			}
			return nil, fmt.Errorf("failed to find assignee: %w", err)
		}
		task.AssignedToID = input.AssignedToID
	}
	if input.EstimatedHours != nil {
		task.EstimatedHours = *input.EstimatedHours
	}
	if input.ActualHours != nil {
		task.ActualHours = *input.ActualHours
	}
	if input.Tags != nil {
		task.Tags = *input.Tags
	}

	if input.Dependencies != nil {
		if err := s.validateDependencies(task.ProjectID, task.ID, input.Dependencies); err != nil {
			return nil, err
		}
	}

	// Detach preloaded relations before saving so gorm does not attempt to
	// upsert them alongside the task row.
	saved := *task
	saved.Project = models.Project{}
	saved.AssignedTo = nil
	saved.CreatedBy = models.User{}
	saved.Comments = nil
	saved.Dependencies = nil

	if err := s.taskRepo.Update(&saved); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if input.Dependencies != nil {
		if err := s.taskRepo.ReplaceDependencies(task.ID, input.Dependencies); err != nil {
			return nil, fmt.Errorf("failed to store dependencies: %w", err)
		}
	}

	s.recompute(task.ProjectID)

	return s.loadTask(task.ID)
}

// DeleteTask deletes a task if the actor may write it, then recomputes the
// project's completion percentage.
func (s *TaskService) DeleteTask(actor *models.User, taskID uint64) error {
	task, err := s.loadTask(taskID)
	if err != nil {
		return err
	}

	if !authz.CanAccessTask(actor, task, authz.Write) {
		return ErrPermissionDenied
	}

	projectID := task.ProjectID

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.recompute(projectID)

	return nil
}

// AddComment appends a comment to a task the actor may read.
func (s *TaskService) AddComment(actor *models.User, taskID uint64, text string) (*models.TaskComment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrCommentTextEmpty
	}

	task, err := s.loadTask(taskID)
	if err != nil {
		return nil, err
	}

	// Commenting follows the read rule: any member of the parent project
	// may comment, not only those with write access.
	if !authz.CanAccessTask(actor, task, authz.Read) {
		return nil, ErrPermissionDenied
	}

	comment := &models.TaskComment{
		TaskID:   taskID,
		Text:     text,
		AuthorID: actor.ID,
	}

	if err := s.taskRepo.AddComment(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	comment.Author = *actor
	return comment, nil
}

// recompute refreshes the parent project's completion percentage after a
// committed task mutation. Failures never roll the mutation back; they are
// logged for operational follow-up.
func (s *TaskService) recompute(projectID uint64) {
	if err := recomputeCompletion(s.taskRepo, s.projectRepo, projectID); err != nil {
		s.logger.Error("completion recompute failed",
			"project_id", projectID,
			"error", err,
		)
	}
}

// validateDependencies checks that every dependency exists, belongs to the
// same project, and does not point at the task itself.
func (s *TaskService) validateDependencies(projectID, taskID uint64, deps []uint64) error {
	for _, depID := range deps {
		if depID == taskID {
			return ErrInvalidDependency
		}
		dep, err := s.taskRepo.FindByID(depID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidDependency
			}
			return fmt.Errorf("failed to find dependency: %w", err)
		}
		if dep.ProjectID != projectID {
			return ErrInvalidDependency
		}
	}
	return nil
}

func (s *TaskService) loadTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
