package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/projectpulse/tracker/internal/database"
	"github.com/projectpulse/tracker/internal/middleware"
	"github.com/projectpulse/tracker/internal/models"
	"github.com/projectpulse/tracker/internal/repository"
	"github.com/projectpulse/tracker/internal/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testPassword = "supersecret"

type testEnv struct {
	db             *gorm.DB
	authService    *services.AuthService
	projectService *services.ProjectService
	taskService    *services.TaskService
	router         *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.TaskComment{},
		&models.TaskDependency{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authService := services.NewAuthService(userRepo, "test-secret", 7*24*time.Hour)
	projectService := services.NewProjectService(projectRepo, taskRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, logger)

	authHandler := NewAuthHandler(authService)
	projectHandler := NewProjectHandler(projectService)
	taskHandler := NewTaskHandler(taskService)

	gin.SetMode(gin.TestMode)
	r := gin.New()

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.RequireAuth(authService), authHandler.Me)
			auth.PATCH("/update-password", middleware.RequireAuth(authService), authHandler.UpdatePassword)
		}

		users := api.Group("/users")
		users.Use(middleware.RequireAuth(authService))
		{
			users.PATCH("/:id/password", authHandler.ResetPassword)
		}

		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth(authService))
		{
			projects.GET("", projectHandler.ListProjects)
			projects.POST("", projectHandler.CreateProject)
			projects.GET("/:id", projectHandler.GetProject)
			projects.PATCH("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
			projects.POST("/:id/members", projectHandler.AddMember)
			projects.DELETE("/:id/members/:user_id", projectHandler.RemoveMember)
			projects.GET("/:id/stats", projectHandler.GetStats)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth(authService))
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/my-tasks", taskHandler.ListMyTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/comments", taskHandler.AddComment)
		}
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return &testEnv{
		db:             db,
		authService:    authService,
		projectService: projectService,
		taskService:    taskService,
		router:         r,
	}
}

// createUser inserts a user with the shared test password.
func (env *testEnv) createUser(t *testing.T, name, email string, role models.UserRole) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

// token issues a session token for the user.
func (env *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := env.authService.IssueToken(user)
	require.NoError(t, err)
	return token
}

// request performs an HTTP call against the test router.
func (env *testEnv) request(t *testing.T, method, url string, payload interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, url, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// createProject inserts a project with the owner's membership row.
func (env *testEnv) createProject(t *testing.T, name string, owner *models.User) *models.Project {
	t.Helper()

	project, err := env.projectService.CreateProject(owner, services.CreateProjectInput{Name: name})
	require.NoError(t, err)
	return project
}

// createTask inserts a task directly.
func (env *testEnv) createTask(t *testing.T, title string, projectID uint64, creator *models.User, status models.TaskStatus) *models.Task {
	t.Helper()

	task := &models.Task{
		Title:       title,
		Status:      status,
		Priority:    models.PriorityMedium,
		ProjectID:   projectID,
		CreatedByID: creator.ID,
	}
	require.NoError(t, env.db.Create(task).Error)
	return task
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
