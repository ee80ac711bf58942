package repository

import (
	"github.com/projectpulse/tracker/internal/models"
	"github.com/projectpulse/tracker/internal/query"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates the project and the owner's membership row in one transaction
func (r *GormProjectRepository) Create(project *models.Project, owner *models.ProjectMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}

		owner.ProjectID = project.ID
		return tx.Create(owner).Error
	})
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	q := r.db

	for _, p := range preload {
		q = q.Preload(p)
	}

	if err := q.First(&project, id).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// visibleScope narrows the query to projects the actor owns or is a member of
func (r *GormProjectRepository) visibleScope(scope Scope) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if scope.Admin {
			return db
		}

		memberSubQuery := r.db.Model(&models.ProjectMember{}).
			Select("1").
			Where("project_members.project_id = projects.id").
			Where("project_members.user_id = ?", scope.ActorID)

		return db.Where("projects.owner_id = ? OR EXISTS (?)", scope.ActorID, memberSubQuery)
	}
}

// List retrieves visible projects with filtering, sort, and pagination
func (r *GormProjectRepository) List(scope Scope, opts query.Options) ([]models.Project, int64, error) {
	base := r.db.Model(&models.Project{}).
		Scopes(r.visibleScope(scope), opts.Filters())

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	err := base.
		Scopes(opts.Ordering(), opts.Projection(), opts.Paginate()).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// UpdateCompletionPercentage writes the derived aggregate without touching
// any other column and without firing model hooks or validation
func (r *GormProjectRepository) UpdateCompletionPercentage(id uint64, percentage int) error {
	return r.db.Model(&models.Project{}).
		Where("id = ?", id).
		UpdateColumn("completion_percentage", percentage).Error
}

// Delete deletes a project and all related data in a transaction
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint64
		if err := tx.Model(&models.Task{}).
			Where("project_id = ?", id).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskComment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id IN ? OR depends_on_id IN ?", taskIDs, taskIDs).
				Delete(&models.TaskDependency{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}

// AddMember adds a member to a project
func (r *GormProjectRepository) AddMember(member *models.ProjectMember) error {
	return r.db.Create(member).Error
}

// RemoveMember removes a member from a project
func (r *GormProjectRepository) RemoveMember(projectID, userID uint64) error {
	return r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{}).Error
}

// FindMember finds a specific project member
func (r *GormProjectRepository) FindMember(projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}
