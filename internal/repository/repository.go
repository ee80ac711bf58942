package repository

import (
	"github.com/projectpulse/tracker/internal/models"
	"github.com/projectpulse/tracker/internal/query"
)

// Scope narrows list queries to what the actor is allowed to see. Admins see
// everything; everyone else sees the entities the read rule grants them.
type Scope struct {
	ActorID uint64
	Admin   bool
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// Update updates a user
	Update(user *models.User) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a project and the owner's membership row atomically
	Create(project *models.Project, owner *models.ProjectMember) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// List retrieves projects visible in the scope with filtering and pagination
	List(scope Scope, opts query.Options) ([]models.Project, int64, error)

	// Update updates a project
	Update(project *models.Project) error

	// UpdateCompletionPercentage writes the derived completion value as a
	// narrow single-column update, bypassing model validation and hooks
	UpdateCompletionPercentage(id uint64, percentage int) error

	// Delete deletes a project and cascades to its tasks, comments,
	// dependencies, and memberships
	Delete(id uint64) error

	// AddMember adds a member to a project
	AddMember(member *models.ProjectMember) error

	// RemoveMember removes a member from a project
	RemoveMember(projectID, userID uint64) error

	// FindMember finds a specific project member
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks visible in the scope, optionally narrowed to one
	// project, with filtering and pagination
	List(scope Scope, projectID *uint64, opts query.Options) ([]models.Task, int64, error)

	// ListAssignedTo retrieves tasks assigned to a user
	ListAssignedTo(userID uint64, opts query.Options) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete deletes a task and its comments and dependency rows
	Delete(id uint64) error

	// AddComment appends a comment to a task
	AddComment(comment *models.TaskComment) error

	// ReplaceDependencies replaces a task's dependency set
	ReplaceDependencies(taskID uint64, dependsOn []uint64) error

	// CompletionCounts returns the total and completed task counts for a project
	CompletionCounts(projectID uint64) (total, completed int64, err error)

	// CountByStatus returns per-status task counts for a project
	CountByStatus(projectID uint64) (map[models.TaskStatus]int64, error)
}
