package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/projectpulse/tracker/internal/dto"
	apierrors "github.com/projectpulse/tracker/internal/errors"
	"github.com/projectpulse/tracker/internal/middleware"
	"github.com/projectpulse/tracker/internal/models"
	"github.com/projectpulse/tracker/internal/query"
	"github.com/projectpulse/tracker/internal/services"
)

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks visible to the current user. The "project"
// query key narrows the listing to one project.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	opts, err := query.Parse(c.Request.URL.Query(), query.TaskSpec)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	var projectID *uint64
	if raw := c.Query("project"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project filter")
			return
		}
		projectID = &id
	}

	tasks, total, err := h.taskService.ListTasks(user, projectID, opts)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.TaskListResponse{
		Tasks:   tasks,
		Results: len(tasks),
		Page:    opts.Page,
		Limit:   opts.Limit,
		Total:   total,
	})
}

// ListMyTasks returns the tasks assigned to the current user, due date first.
func (h *TaskHandler) ListMyTasks(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	opts, err := query.Parse(c.Request.URL.Query(), query.MyTasksSpec)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	tasks, total, err := h.taskService.ListMyTasks(user, opts)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.TaskListResponse{
		Tasks:   tasks,
		Results: len(tasks),
		Page:    opts.Page,
		Limit:   opts.Limit,
		Total:   total,
	})
}

// GetTask returns a single task.
func (h *TaskHandler) GetTask(c *gin.Context) {
	user, taskID, ok := h.requestContext(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(user, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a task in a project and refreshes that project's
// completion percentage before responding.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title          string     `json:"title" binding:"required"`
		Description    string     `json:"description"`
		Status         string     `json:"status"`
		Priority       string     `json:"priority"`
		DueDate        *time.Time `json:"due_date"`
		ProjectID      uint64     `json:"project_id" binding:"required"`
		AssignedToID   *uint64    `json:"assigned_to_id"`
		EstimatedHours float64    `json:"estimated_hours"`
		Tags           string     `json:"tags"`
		Dependencies   []uint64   `json:"dependencies"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(user, services.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         models.TaskStatus(req.Status),
		Priority:       models.Priority(req.Priority),
		DueDate:        req.DueDate,
		ProjectID:      req.ProjectID,
		AssignedToID:   req.AssignedToID,
		EstimatedHours: req.EstimatedHours,
		Tags:           req.Tags,
		Dependencies:   req.Dependencies,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates a task and refreshes the parent project's completion
// percentage before responding.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	user, taskID, ok := h.requestContext(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title          *string    `json:"title"`
		Description    *string    `json:"description"`
		Status         *string    `json:"status"`
		Priority       *string    `json:"priority"`
		DueDate        *time.Time `json:"due_date"`
		ClearDueDate   bool       `json:"clear_due_date"`
		AssignedToID   *uint64    `json:"assigned_to_id"`
		ClearAssignee  bool       `json:"clear_assignee"`
		EstimatedHours *float64   `json:"estimated_hours"`
		ActualHours    *float64   `json:"actual_hours"`
		Tags           *string    `json:"tags"`
		Dependencies   []uint64   `json:"dependencies"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		DueDate:        req.DueDate,
		ClearDueDate:   req.ClearDueDate,
		AssignedToID:   req.AssignedToID,
		ClearAssignee:  req.ClearAssignee,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		Tags:           req.Tags,
		Dependencies:   req.Dependencies,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := models.Priority(*req.Priority)
		input.Priority = &priority
	}

	task, err := h.taskService.UpdateTask(user, taskID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task and refreshes the parent project's completion
// percentage before responding.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, taskID, ok := h.requestContext(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(user, taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddComment appends a comment to a task.
func (h *TaskHandler) AddComment(c *gin.Context) {
	user, taskID, ok := h.requestContext(c)
	if !ok {
		return
	}

	type AddCommentRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Comment text is required")
		return
	}

	comment, err := h.taskService.AddComment(user, taskID, req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskCommentDTO(*comment))
}

// requestContext extracts the authenticated user and the task id param.
func (h *TaskHandler) requestContext(c *gin.Context) (*models.User, uint64, bool) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return nil, 0, false
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return nil, 0, false
	}

	return user, taskID, true
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, "Project not found")
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c, "You do not have permission to access this task")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrCommentTextEmpty),
		errors.Is(err, services.ErrInvalidDependency):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAssigneeNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
