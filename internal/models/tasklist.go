package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultListColor = "#6B7280"

type TaskList struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	IsArchived  bool      `json:"is_archived"`
}

// Aggregate counters shown on the lists overview page
type TaskListStats struct {
	Lists          int64 `json:"lists"`
	ArchivedLists  int64 `json:"archived_lists"`
	Tasks          int64 `json:"tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
}
