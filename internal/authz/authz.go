// Package authz holds the access decision functions for projects and tasks.
// The same rules apply to every operation on an entity, so they live in one
// place instead of being restated per handler. Predicates are evaluated
// against freshly loaded entities; decisions are never cached.
package authz

import (
	"github.com/projectpulse/tracker/internal/models"
)

// Mode is the kind of access being requested.
type Mode int

const (
	// Read covers viewing an entity, listing it, and commenting on tasks.
	Read Mode = iota
	// Write covers update, delete, and membership administration.
	Write
)

// CanAccessProject reports whether actor may access project in the given mode.
//
// Admins may do anything. Members may read but only the owner writes;
// membership alone never grants write access.
func CanAccessProject(actor *models.User, project *models.Project, mode Mode) bool {
	if actor.IsAdmin() {
		return true
	}

	if project.OwnerID == actor.ID {
		return true
	}

	if mode == Read {
		return project.HasMember(actor.ID)
	}

	return false
}

// CanAccessTask reports whether actor may access task in the given mode.
// The task must carry its parent project with members preloaded.
//
// Read (and commenting) is open to the creator, the assignee, the project
// owner, and project members. Write is restricted to the creator, the
// assignee, and the project owner; project membership alone does not grant
// task write access.
func CanAccessTask(actor *models.User, task *models.Task, mode Mode) bool {
	if actor.IsAdmin() {
		return true
	}

	if task.CreatedByID == actor.ID || task.IsAssignedTo(actor.ID) {
		return true
	}

	if task.Project.OwnerID == actor.ID {
		return true
	}

	if mode == Read {
		return task.Project.HasMember(actor.ID)
	}

	return false
}
