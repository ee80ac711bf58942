package query

import (
	"github.com/projectpulse/tracker/internal/constants"
	"github.com/projectpulse/tracker/internal/models"
)

var projectStatusValues = []string{
	string(models.ProjectStatusPlanning),
	string(models.ProjectStatusActive),
	string(models.ProjectStatusCompleted),
	string(models.ProjectStatusOnHold),
	string(models.ProjectStatusCancelled),
}

var taskStatusValues = []string{
	string(models.TaskStatusTodo),
	string(models.TaskStatusInProgress),
	string(models.TaskStatusReview),
	string(models.TaskStatusCompleted),
}

var priorityValues = []string{
	string(models.PriorityLow),
	string(models.PriorityMedium),
	string(models.PriorityHigh),
	string(models.PriorityUrgent),
}

// ProjectSpec is the whitelist for project list queries.
var ProjectSpec = Spec{
	Fields: map[string]Field{
		"name":                  {Column: "name", Kind: KindString},
		"status":                {Column: "status", Kind: KindEnum, Enum: projectStatusValues},
		"priority":              {Column: "priority", Kind: KindEnum, Enum: priorityValues},
		"category":              {Column: "category", Kind: KindString},
		"tags":                  {Column: "tags", Kind: KindString},
		"start_date":            {Column: "start_date", Kind: KindDate, Orderable: true},
		"end_date":              {Column: "end_date", Kind: KindDate, Orderable: true},
		"created_at":            {Column: "created_at", Kind: KindDate, Orderable: true},
		"budget":                {Column: "budget", Kind: KindNumber, Orderable: true},
		"completion_percentage": {Column: "completion_percentage", Kind: KindNumber, Orderable: true},
	},
	DefaultSort:  []SortKey{{Column: "created_at", Desc: true}},
	DefaultLimit: constants.DefaultProjectLimit,
}

// TaskSpec is the whitelist for task list queries. The "project" key is a
// control key resolved by the handler into a dedicated equality filter.
var TaskSpec = Spec{
	Fields: map[string]Field{
		"title":           {Column: "title", Kind: KindString},
		"status":          {Column: "status", Kind: KindEnum, Enum: taskStatusValues},
		"priority":        {Column: "priority", Kind: KindEnum, Enum: priorityValues},
		"tags":            {Column: "tags", Kind: KindString},
		"due_date":        {Column: "due_date", Kind: KindDate, Orderable: true},
		"created_at":      {Column: "created_at", Kind: KindDate, Orderable: true},
		"estimated_hours": {Column: "estimated_hours", Kind: KindNumber, Orderable: true},
		"actual_hours":    {Column: "actual_hours", Kind: KindNumber, Orderable: true},
	},
	Reserved:     []string{"project"},
	DefaultSort:  []SortKey{{Column: "created_at", Desc: true}},
	DefaultLimit: constants.DefaultTaskLimit,
}

// MyTasksSpec is the whitelist for the "my tasks" listing, which defaults to
// soonest due date first.
var MyTasksSpec = Spec{
	Fields:       TaskSpec.Fields,
	DefaultSort:  []SortKey{{Column: "due_date", Desc: false}},
	DefaultLimit: constants.DefaultTaskLimit,
}
