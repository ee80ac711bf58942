package repository

import (
	"github.com/projectpulse/tracker/internal/models"
	"github.com/projectpulse/tracker/internal/query"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	q := r.db

	for _, p := range preload {
		q = q.Preload(p)
	}

	if err := q.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// visibleScope narrows the query to tasks the actor created, is assigned to,
// or can reach through membership in the parent project
func (r *GormTaskRepository) visibleScope(scope Scope) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if scope.Admin {
			return db
		}

		memberSubQuery := r.db.Model(&models.ProjectMember{}).
			Select("1").
			Where("project_members.project_id = tasks.project_id").
			Where("project_members.user_id = ?", scope.ActorID)

		ownerSubQuery := r.db.Model(&models.Project{}).
			Select("1").
			Where("projects.id = tasks.project_id").
			Where("projects.owner_id = ?", scope.ActorID)

		return db.Where(
			"tasks.created_by_id = ? OR tasks.assigned_to_id = ? OR EXISTS (?) OR EXISTS (?)",
			scope.ActorID, scope.ActorID, memberSubQuery, ownerSubQuery,
		)
	}
}

// List retrieves visible tasks with filtering, sort, and pagination
func (r *GormTaskRepository) List(scope Scope, projectID *uint64, opts query.Options) ([]models.Task, int64, error) {
	base := r.db.Model(&models.Task{}).
		Scopes(r.visibleScope(scope), opts.Filters())

	if projectID != nil {
		base = base.Where("tasks.project_id = ?", *projectID)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	err := base.
		Scopes(opts.Ordering(), opts.Projection(), opts.Paginate()).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListAssignedTo retrieves tasks assigned to a user
func (r *GormTaskRepository) ListAssignedTo(userID uint64, opts query.Options) ([]models.Task, int64, error) {
	base := r.db.Model(&models.Task{}).
		Where("tasks.assigned_to_id = ?", userID).
		Scopes(opts.Filters())

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	err := base.
		Scopes(opts.Ordering(), opts.Projection(), opts.Paginate()).
		Preload("Project").
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// Delete deletes a task together with its comments and dependency rows
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("task_id = ? OR depends_on_id = ?", id, id).
			Delete(&models.TaskDependency{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// AddComment appends a comment to a task
func (r *GormTaskRepository) AddComment(comment *models.TaskComment) error {
	return r.db.Create(comment).Error
}

// ReplaceDependencies replaces a task's dependency set
func (r *GormTaskRepository) ReplaceDependencies(taskID uint64, dependsOn []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskDependency{}).Error; err != nil {
			return err
		}

		if len(dependsOn) == 0 {
			return nil
		}

		deps := make([]models.TaskDependency, len(dependsOn))
		for i, depID := range dependsOn {
			deps[i] = models.TaskDependency{TaskID: taskID, DependsOnID: depID}
		}

		return tx.Create(&deps).Error
	})
}

// CompletionCounts returns the total and completed task counts for a project
func (r *GormTaskRepository) CompletionCounts(projectID uint64) (int64, int64, error) {
	var total int64
	if err := r.db.Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}

	var completed int64
	if err := r.db.Model(&models.Task{}).
		Where("project_id = ? AND status = ?", projectID, models.TaskStatusCompleted).
		Count(&completed).Error; err != nil {
		return 0, 0, err
	}

	return total, completed, nil
}

// CountByStatus returns per-status task counts for a project
func (r *GormTaskRepository) CountByStatus(projectID uint64) (map[models.TaskStatus]int64, error) {
	type statusCount struct {
		Status models.TaskStatus
		Count  int64
	}

	var rows []statusCount
	err := r.db.Model(&models.Task{}).
		Select("status, count(*) as count").
		Where("project_id = ?", projectID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}
