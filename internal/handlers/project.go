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

// ProjectHandler coordinates project-related HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// ListProjects returns the projects visible to the current user, with
// filters, sort, field projection, and pagination from the query string.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	opts, err := query.Parse(c.Request.URL.Query(), query.ProjectSpec)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	projects, total, err := h.projectService.ListProjects(user, opts)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch projects")
		return
	}

	c.JSON(http.StatusOK, dto.ProjectListResponse{
		Projects: projects,
		Results:  len(projects),
		Page:     opts.Page,
		Limit:    opts.Limit,
		Total:    total,
	})
}

// GetProject returns a single project.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	user, projectID, ok := h.requestContext(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(user, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// CreateProject creates a new project owned by the current user.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateProjectRequest struct {
		Name        string     `json:"name" binding:"required"`
		Description string     `json:"description"`
		Status      string     `json:"status"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
		Priority    string     `json:"priority"`
		Category    string     `json:"category"`
		Tags        string     `json:"tags"`
		Budget      float64    `json:"budget"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(user, services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ProjectStatus(req.Status),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Priority:    models.Priority(req.Priority),
		Category:    req.Category,
		Tags:        req.Tags,
		Budget:      req.Budget,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// UpdateProject updates a project.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	user, projectID, ok := h.requestContext(c)
	if !ok {
		return
	}

	type UpdateProjectRequest struct {
		Name         *string    `json:"name"`
		Description  *string    `json:"description"`
		Status       *string    `json:"status"`
		StartDate    *time.Time `json:"start_date"`
		EndDate      *time.Time `json:"end_date"`
		ClearEndDate bool       `json:"clear_end_date"`
		Priority     *string    `json:"priority"`
		Category     *string    `json:"category"`
		Tags         *string    `json:"tags"`
		Budget       *float64   `json:"budget"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		ClearEndDate: req.ClearEndDate,
		Category:     req.Category,
		Tags:         req.Tags,
		Budget:       req.Budget,
	}
	if req.Status != nil {
		status := models.ProjectStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := models.Priority(*req.Priority)
		input.Priority = &priority
	}

	project, err := h.projectService.UpdateProject(user, projectID, input)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject deletes a project and all of its tasks.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	user, projectID, ok := h.requestContext(c)
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(user, projectID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddMember adds a user to the project's member list.
func (h *ProjectHandler) AddMember(c *gin.Context) {
	user, projectID, ok := h.requestContext(c)
	if !ok {
		return
	}

	type AddMemberRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Please provide a user ID")
		return
	}

	project, err := h.projectService.AddMember(user, projectID, req.UserID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// RemoveMember removes a user from the project's member list.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	user, projectID, ok := h.requestContext(c)
	if !ok {
		return
	}

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	project, err := h.projectService.RemoveMember(user, projectID, targetID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// GetStats returns per-status task counts and the completion percentage.
func (h *ProjectHandler) GetStats(c *gin.Context) {
	user, projectID, ok := h.requestContext(c)
	if !ok {
		return
	}

	stats, err := h.projectService.GetStats(user, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// requestContext extracts the authenticated user and the project id param.
func (h *ProjectHandler) requestContext(c *gin.Context) (*models.User, uint64, bool) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return nil, 0, false
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return nil, 0, false
	}

	return user, projectID, true
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, "Project not found")
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c, "You do not have permission to access this project")
	case errors.Is(err, services.ErrProjectNameRequired),
		errors.Is(err, services.ErrInvalidProjectStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrEndBeforeStart):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrMemberExists):
		apierrors.Conflict(c, apierrors.ErrCodeDuplicateMember, "User is already a member of this project")
	case errors.Is(err, services.ErrCannotRemoveOwner):
		apierrors.InvalidOperation(c, "Cannot remove the project owner")
	case errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
