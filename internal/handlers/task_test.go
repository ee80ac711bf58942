package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/projectpulse/tracker/internal/errors"
	"github.com/projectpulse/tracker/internal/models"
	"github.com/stretchr/testify/suite"
)

type TaskHandlerTestSuite struct {
	suite.Suite
	env     *testEnv
	owner   *models.User
	member  *models.User
	outside *models.User
	project *models.Project
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}

func (s *TaskHandlerTestSuite) SetupTest() {
	s.env = setupTestEnv(s.T())
	s.owner = s.env.createUser(s.T(), "Owner", "owner@example.com", models.RoleUser)
	s.member = s.env.createUser(s.T(), "Member", "member@example.com", models.RoleUser)
	s.outside = s.env.createUser(s.T(), "Outsider", "outsider@example.com", models.RoleUser)
	s.project = s.env.createProject(s.T(), "Launch", s.owner)

	_, err := s.env.projectService.AddMember(s.owner, s.project.ID, s.member.ID)
	s.Require().NoError(err)
}

// createTaskHTTP creates a task through the API as the given user.
func (s *TaskHandlerTestSuite) createTaskHTTP(user *models.User, payload map[string]interface{}) taskResponse {
	if _, ok := payload["project_id"]; !ok {
		payload["project_id"] = s.project.ID
	}
	w := s.env.request(s.T(), http.MethodPost, "/api/tasks", payload, s.env.token(s.T(), user))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp taskResponse
	decodeJSON(s.T(), w, &resp)
	return resp
}

// projectCompletion reads the project's completion percentage through the API.
func (s *TaskHandlerTestSuite) projectCompletion() int {
	w := s.env.request(s.T(), http.MethodGet, fmt.Sprintf("/api/projects/%d", s.project.ID), nil, s.env.token(s.T(), s.owner))
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		CompletionPercentage int `json:"completion_percentage"`
	}
	decodeJSON(s.T(), w, &resp)
	return resp.CompletionPercentage
}

type taskResponse struct {
	ID           uint64  `json:"id"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	Priority     string  `json:"priority"`
	Tags         string  `json:"tags"`
	ProjectID    uint64  `json:"project_id"`
	AssignedToID *uint64 `json:"assigned_to_id"`
	CreatedByID  uint64  `json:"created_by_id"`
}

func (s *TaskHandlerTestSuite) TestCreateTaskDefaults() {
	task := s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Write docs"})

	s.Equal("Write docs", task.Title)
	s.Equal("todo", task.Status)
	s.Equal("medium", task.Priority)
	s.Equal(s.owner.ID, task.CreatedByID)
	s.Nil(task.AssignedToID)
}

func (s *TaskHandlerTestSuite) TestCreateTaskValidation() {
	token := s.env.token(s.T(), s.owner)

	w := s.env.request(s.T(), http.MethodPost, "/api/tasks", map[string]interface{}{
		"project_id": s.project.ID,
	}, token)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.env.request(s.T(), http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":      "Bad status",
		"project_id": s.project.ID,
		"status":     "paused",
	}, token)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TaskHandlerTestSuite) TestCreateTaskMemberAllowedOutsiderDenied() {
	s.createTaskHTTP(s.member, map[string]interface{}{"title": "Member task"})

	w := s.env.request(s.T(), http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":      "Sneaky task",
		"project_id": s.project.ID,
	}, s.env.token(s.T(), s.outside))
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *TaskHandlerTestSuite) TestCreateTaskUnknownProject() {
	w := s.env.request(s.T(), http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":      "Orphan",
		"project_id": 999,
	}, s.env.token(s.T(), s.owner))
	s.Equal(http.StatusNotFound, w.Code)
}

// The project's completion percentage tracks every task mutation: creating,
// completing and deleting tasks all refresh the stored value.
func (s *TaskHandlerTestSuite) TestCompletionLifecycle() {
	s.Equal(0, s.projectCompletion())

	first := s.createTaskHTTP(s.owner, map[string]interface{}{"title": "First"})
	s.Equal(0, s.projectCompletion())

	w := s.env.request(s.T(), http.MethodPatch, fmt.Sprintf("/api/tasks/%d", first.ID), map[string]interface{}{
		"status": "completed",
	}, s.env.token(s.T(), s.owner))
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(100, s.projectCompletion())

	second := s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Second"})
	s.Equal(50, s.projectCompletion())

	w = s.env.request(s.T(), http.MethodDelete, fmt.Sprintf("/api/tasks/%d", second.ID), nil, s.env.token(s.T(), s.owner))
	s.Require().Equal(http.StatusNoContent, w.Code)
	s.Equal(100, s.projectCompletion())
}

func (s *TaskHandlerTestSuite) TestRecomputeCompletionIsIdempotent() {
	s.createTaskHTTP(s.owner, map[string]interface{}{"title": "One", "status": "completed"})
	s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Two"})
	s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Three"})

	s.Require().NoError(s.env.projectService.RecomputeCompletion(s.project.ID))
	after := s.projectCompletion()
	s.Require().NoError(s.env.projectService.RecomputeCompletion(s.project.ID))

	s.Equal(after, s.projectCompletion())
	s.Equal(33, after)
}

func (s *TaskHandlerTestSuite) TestGetTaskVisibility() {
	task := s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Visible"})
	url := fmt.Sprintf("/api/tasks/%d", task.ID)

	s.Equal(http.StatusOK, s.env.request(s.T(), http.MethodGet, url, nil, s.env.token(s.T(), s.owner)).Code)
	s.Equal(http.StatusOK, s.env.request(s.T(), http.MethodGet, url, nil, s.env.token(s.T(), s.member)).Code)

	denied := s.env.request(s.T(), http.MethodGet, url, nil, s.env.token(s.T(), s.outside))
	s.Equal(http.StatusForbidden, denied.Code)
}

// Project membership grants read access to a task but not write access;
// writing needs the creator, the assignee or the project owner.
func (s *TaskHandlerTestSuite) TestUpdateTaskMemberCannotWrite() {
	task := s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Guarded"})
	url := fmt.Sprintf("/api/tasks/%d", task.ID)
	payload := map[string]interface{}{"status": "in-progress"}

	denied := s.env.request(s.T(), http.MethodPatch, url, payload, s.env.token(s.T(), s.member))
	s.Equal(http.StatusForbidden, denied.Code)

	allowed := s.env.request(s.T(), http.MethodPatch, url, payload, s.env.token(s.T(), s.owner))
	s.Equal(http.StatusOK, allowed.Code)
}

func (s *TaskHandlerTestSuite) TestUpdateTaskAssigneeCanWrite() {
	task := s.createTaskHTTP(s.owner, map[string]interface{}{
		"title":          "Assigned",
		"assigned_to_id": s.member.ID,
	})

	w := s.env.request(s.T(), http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]interface{}{
		"status": "review",
	}, s.env.token(s.T(), s.member))
	s.Require().Equal(http.StatusOK, w.Code)

	var resp taskResponse
	decodeJSON(s.T(), w, &resp)
	s.Equal("review", resp.Status)
}

func (s *TaskHandlerTestSuite) TestUpdateTaskUnknownAssignee() {
	task := s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Orphan assignee"})

	w := s.env.request(s.T(), http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]interface{}{
		"assigned_to_id": 999,
	}, s.env.token(s.T(), s.owner))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *TaskHandlerTestSuite) TestDeleteTaskOutsiderDenied() {
	task := s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Protected"})

	w := s.env.request(s.T(), http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), nil, s.env.token(s.T(), s.outside))
	s.Equal(http.StatusForbidden, w.Code)

	var count int64
	s.Require().NoError(s.env.db.Model(&models.Task{}).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *TaskHandlerTestSuite) TestListTasksScopedToActor() {
	s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Ours"})

	other := s.env.createProject(s.T(), "Elsewhere", s.outside)
	w := s.env.request(s.T(), http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":      "Theirs",
		"project_id": other.ID,
	}, s.env.token(s.T(), s.outside))
	s.Require().Equal(http.StatusCreated, w.Code)

	var resp struct {
		Tasks []struct {
			Title string `json:"title"`
		} `json:"tasks"`
		Results int `json:"results"`
	}

	w = s.env.request(s.T(), http.MethodGet, "/api/tasks", nil, s.env.token(s.T(), s.member))
	s.Require().Equal(http.StatusOK, w.Code)
	decodeJSON(s.T(), w, &resp)
	s.Equal(1, resp.Results)
	s.Equal("Ours", resp.Tasks[0].Title)
}

func (s *TaskHandlerTestSuite) TestListTasksFilterByStatusAndProject() {
	s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Open"})
	s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Done", "status": "completed"})

	var resp struct {
		Tasks []struct {
			Title string `json:"title"`
		} `json:"tasks"`
		Results int `json:"results"`
	}

	url := fmt.Sprintf("/api/tasks?project=%d&status=completed", s.project.ID)
	w := s.env.request(s.T(), http.MethodGet, url, nil, s.env.token(s.T(), s.owner))
	s.Require().Equal(http.StatusOK, w.Code)
	decodeJSON(s.T(), w, &resp)
	s.Equal(1, resp.Results)
	s.Equal("Done", resp.Tasks[0].Title)
}

func (s *TaskHandlerTestSuite) TestListTasksDueDateRange() {
	now := time.Now().UTC()
	s.createTaskHTTP(s.owner, map[string]interface{}{
		"title":    "Soon",
		"due_date": now.Add(24 * time.Hour).Format(time.RFC3339),
	})
	s.createTaskHTTP(s.owner, map[string]interface{}{
		"title":    "Later",
		"due_date": now.Add(30 * 24 * time.Hour).Format(time.RFC3339),
	})

	var resp struct {
		Tasks []struct {
			Title string `json:"title"`
		} `json:"tasks"`
		Results int `json:"results"`
	}

	cutoff := now.Add(7 * 24 * time.Hour).Format("2006-01-02")
	w := s.env.request(s.T(), http.MethodGet, "/api/tasks?due_date[lte]="+cutoff, nil, s.env.token(s.T(), s.owner))
	s.Require().Equal(http.StatusOK, w.Code)
	decodeJSON(s.T(), w, &resp)
	s.Equal(1, resp.Results)
	s.Equal("Soon", resp.Tasks[0].Title)
}

// Range operators are rejected on enum fields.
func (s *TaskHandlerTestSuite) TestListTasksRangeOnEnumRejected() {
	w := s.env.request(s.T(), http.MethodGet, "/api/tasks?status[gte]=todo", nil, s.env.token(s.T(), s.owner))
	s.Require().Equal(http.StatusBadRequest, w.Code)

	var apiErr errors.APIError
	decodeJSON(s.T(), w, &apiErr)
	s.Equal(errors.ErrCodeInvalidInput, apiErr.Code)
}

func (s *TaskHandlerTestSuite) TestMyTasksOrderedByDueDate() {
	now := time.Now().UTC()
	s.createTaskHTTP(s.owner, map[string]interface{}{
		"title":          "Due last",
		"assigned_to_id": s.member.ID,
		"due_date":       now.Add(72 * time.Hour).Format(time.RFC3339),
	})
	s.createTaskHTTP(s.owner, map[string]interface{}{
		"title":          "Due first",
		"assigned_to_id": s.member.ID,
		"due_date":       now.Add(24 * time.Hour).Format(time.RFC3339),
	})
	// Assigned to someone else, must not appear.
	s.createTaskHTTP(s.owner, map[string]interface{}{
		"title":          "Not mine",
		"assigned_to_id": s.owner.ID,
	})

	var resp struct {
		Tasks []struct {
			Title string `json:"title"`
		} `json:"tasks"`
		Results int `json:"results"`
	}

	w := s.env.request(s.T(), http.MethodGet, "/api/tasks/my-tasks", nil, s.env.token(s.T(), s.member))
	s.Require().Equal(http.StatusOK, w.Code)
	decodeJSON(s.T(), w, &resp)
	s.Require().Equal(2, resp.Results)
	s.Equal("Due first", resp.Tasks[0].Title)
	s.Equal("Due last", resp.Tasks[1].Title)
}

func (s *TaskHandlerTestSuite) TestTaskTags() {
	task := s.createTaskHTTP(s.owner, map[string]interface{}{
		"title": "Tagged",
		"tags":  "security,authentication",
	})
	s.Equal("security,authentication", task.Tags)

	w := s.env.request(s.T(), http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]interface{}{
		"tags": "security",
	}, s.env.token(s.T(), s.owner))
	s.Require().Equal(http.StatusOK, w.Code)

	var resp taskResponse
	decodeJSON(s.T(), w, &resp)
	s.Equal("security", resp.Tags)
}

func (s *TaskHandlerTestSuite) TestListTasksFilterByTags() {
	s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Secured", "tags": "security"})
	s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Documented", "tags": "documentation"})

	var resp struct {
		Tasks []struct {
			Title string `json:"title"`
		} `json:"tasks"`
		Results int `json:"results"`
	}

	w := s.env.request(s.T(), http.MethodGet, "/api/tasks?tags=security", nil, s.env.token(s.T(), s.owner))
	s.Require().Equal(http.StatusOK, w.Code)
	decodeJSON(s.T(), w, &resp)
	s.Equal(1, resp.Results)
	s.Equal("Secured", resp.Tasks[0].Title)
}

// A fields projection on the my-tasks listing narrows the selected columns
// just like the main listing does.
func (s *TaskHandlerTestSuite) TestMyTasksFieldProjection() {
	s.createTaskHTTP(s.owner, map[string]interface{}{
		"title":          "Projected",
		"description":    "long body that the projection must drop",
		"assigned_to_id": s.member.ID,
	})

	var resp struct {
		Tasks []struct {
			ID          uint64 `json:"id"`
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"tasks"`
		Results int `json:"results"`
	}

	w := s.env.request(s.T(), http.MethodGet, "/api/tasks/my-tasks?fields=title", nil, s.env.token(s.T(), s.member))
	s.Require().Equal(http.StatusOK, w.Code)
	decodeJSON(s.T(), w, &resp)
	s.Require().Equal(1, resp.Results)
	s.NotZero(resp.Tasks[0].ID)
	s.Equal("Projected", resp.Tasks[0].Title)
	s.Empty(resp.Tasks[0].Description)
}

func (s *TaskHandlerTestSuite) TestAddComment() {
	task := s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Discussed"})
	url := fmt.Sprintf("/api/tasks/%d/comments", task.ID)

	w := s.env.request(s.T(), http.MethodPost, url, map[string]interface{}{
		"text": "Looks good",
	}, s.env.token(s.T(), s.member))
	s.Require().Equal(http.StatusCreated, w.Code)

	var resp struct {
		ID       uint64 `json:"id"`
		Text     string `json:"text"`
		AuthorID uint64 `json:"author_id"`
	}
	decodeJSON(s.T(), w, &resp)
	s.Equal("Looks good", resp.Text)
	s.Equal(s.member.ID, resp.AuthorID)

	// Comments ride along on the task detail response.
	get := s.env.request(s.T(), http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil, s.env.token(s.T(), s.owner))
	s.Require().Equal(http.StatusOK, get.Code)

	var detail struct {
		Comments []struct {
			Text string `json:"text"`
		} `json:"comments"`
	}
	decodeJSON(s.T(), get, &detail)
	s.Require().Len(detail.Comments, 1)
	s.Equal("Looks good", detail.Comments[0].Text)
}

func (s *TaskHandlerTestSuite) TestAddCommentOutsiderDenied() {
	task := s.createTaskHTTP(s.owner, map[string]interface{}{"title": "Private"})

	w := s.env.request(s.T(), http.MethodPost, fmt.Sprintf("/api/tasks/%d/comments", task.ID), map[string]interface{}{
		"text": "Let me in",
	}, s.env.token(s.T(), s.outside))
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *TaskHandlerTestSuite) TestDependenciesMustShareProject() {
	other := s.env.createProject(s.T(), "Elsewhere", s.owner)
	foreign := s.createTaskHTTP(s.owner, map[string]interface{}{
		"title":      "Foreign",
		"project_id": other.ID,
	})

	w := s.env.request(s.T(), http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":        "Blocked",
		"project_id":   s.project.ID,
		"dependencies": []uint64{foreign.ID},
	}, s.env.token(s.T(), s.owner))
	s.Equal(http.StatusBadRequest, w.Code)
}
