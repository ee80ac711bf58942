package services

import (
	"fmt"
	"math"

	"github.com/projectpulse/tracker/internal/repository"
)

// computeCompletionPercentage derives the project aggregate from task counts.
func computeCompletionPercentage(total, completed int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// recomputeCompletion recalculates a project's completion percentage from
// scratch over its current tasks and persists it as a narrow single-column
// write. It is invoked after every task mutation; recomputing from the full
// task set keeps the aggregate correct without incremental bookkeeping.
func recomputeCompletion(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, projectID uint64) error {
	total, completed, err := taskRepo.CompletionCounts(projectID)
	if err != nil {
		return fmt.Errorf("failed to count tasks for project %d: %w", projectID, err)
	}

	percentage := computeCompletionPercentage(total, completed)

	if err := projectRepo.UpdateCompletionPercentage(projectID, percentage); err != nil {
		return fmt.Errorf("failed to store completion percentage for project %d: %w", projectID, err)
	}

	return nil
}
