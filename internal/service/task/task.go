package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mishankov/taskhub/internal/models"
	"github.com/mishankov/taskhub/internal/repository"
)

// Lists and tasks. Ownership is enforced one level below: every repo
// lookup is scoped by user id, so foreign ids simply come back as not
// found and the service never has to compare owners itself.
type TaskService struct {
	listRepo repository.TaskListRepo
	taskRepo repository.TaskRepo
}

func NewService(listRepo repository.TaskListRepo, taskRepo repository.TaskRepo) *TaskService {
	return &TaskService{listRepo: listRepo, taskRepo: taskRepo}
}

func (s *TaskService) CreateList(ctx context.Context, userID uuid.UUID, title string, description string, color string) (models.TaskList, error) {
	if color == "" {
		color = models.DefaultListColor
	}

	return s.listRepo.CreateList(ctx, models.TaskList{
		UserID:      userID,
		Title:       title,
		Description: description,
		Color:       color,
	})
}

func (s *TaskService) GetList(ctx context.Context, listID uuid.UUID, userID uuid.UUID) (models.TaskList, error) {
	return s.listRepo.GetList(ctx, listID, userID)
}

func (s *TaskService) ListLists(ctx context.Context, userID uuid.UUID, f repository.ListFilter) ([]models.TaskList, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	return s.listRepo.ListLists(ctx, userID, f)
}

func (s *TaskService) UpdateList(ctx context.Context, listID uuid.UUID, userID uuid.UUID, upd repository.TaskListUpdate) (models.TaskList, error) {
	return s.listRepo.UpdateList(ctx, listID, userID, upd)
}

func (s *TaskService) SetListArchived(ctx context.Context, listID uuid.UUID, userID uuid.UUID, archived bool) (models.TaskList, error) {
	return s.listRepo.SetArchived(ctx, listID, userID, archived)
}

// DeleteList removes the list with everything in it
func (s *TaskService) DeleteList(ctx context.Context, listID uuid.UUID, userID uuid.UUID) error {
	return s.listRepo.DeleteList(ctx, listID, userID)
}

func (s *TaskService) Stats(ctx context.Context, userID uuid.UUID) (models.TaskListStats, error) {
	return s.listRepo.Stats(ctx, userID)
}

func (s *TaskService) CreateTask(ctx context.Context, listID uuid.UUID, userID uuid.UUID, text string, priority string, dueDate *time.Time) (models.Task, error) {
	// Make sure the list exists and belongs to the caller
	list, err := s.listRepo.GetList(ctx, listID, userID)
	if err != nil {
		return models.Task{}, err
	}

	if priority == "" {
		priority = models.PriorityMedium
	}

	return s.taskRepo.CreateTask(ctx, models.Task{
		ListID:   list.ID,
		UserID:   userID,
		Text:     text,
		Priority: priority,
		DueDate:  dueDate,
	})
}

func (s *TaskService) GetTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID) (models.Task, error) {
	return s.taskRepo.GetTask(ctx, taskID, userID)
}

func (s *TaskService) ListTasks(ctx context.Context, listID uuid.UUID, userID uuid.UUID, f repository.TaskFilter) ([]models.Task, error) {
	if _, err := s.listRepo.GetList(ctx, listID, userID); err != nil {
		return nil, err
	}

	return s.taskRepo.ListTasks(ctx, listID, userID, f)
}

func (s *TaskService) UpdateTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID, upd repository.TaskUpdate) (models.Task, error) {
	return s.taskRepo.UpdateTask(ctx, taskID, userID, upd)
}

func (s *TaskService) ToggleTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID) (models.Task, error) {
	return s.taskRepo.ToggleTask(ctx, taskID, userID)
}

// MoveTask places a task between its new neighbours
// With both neighbours given the task gets the midpoint position, with
// only one it goes right before or after it, with none it goes to the
// end of the list
func (s *TaskService) MoveTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID, beforeID *uuid.UUID, afterID *uuid.UUID) (models.Task, error) {
	task, err := s.taskRepo.GetTask(ctx, taskID, userID)
	if err != nil {
		return models.Task{}, err
	}

	var position decimal.Decimal

	switch {
	case beforeID != nil && afterID != nil:
		before, err := s.taskRepo.GetTask(ctx, *beforeID, userID)
		if err != nil {
			return models.Task{}, err
		}
		after, err := s.taskRepo.GetTask(ctx, *afterID, userID)
		if err != nil {
			return models.Task{}, err
		}
		position = before.Position.Add(after.Position).Div(decimal.NewFromInt(2))

	case beforeID != nil:
		before, err := s.taskRepo.GetTask(ctx, *beforeID, userID)
		if err != nil {
			return models.Task{}, err
		}
		position = before.Position.Add(decimal.NewFromInt(1))

	case afterID != nil:
		after, err := s.taskRepo.GetTask(ctx, *afterID, userID)
		if err != nil {
			return models.Task{}, err
		}
		position = after.Position.Sub(decimal.NewFromInt(1))

	default:
		max, err := s.taskRepo.MaxPosition(ctx, task.ListID)
		if err != nil {
			return models.Task{}, err
		}
		position = max.Add(decimal.NewFromInt(1))
	}

	return s.taskRepo.SetPosition(ctx, taskID, userID, position)
}

func (s *TaskService) DeleteTask(ctx context.Context, taskID uuid.UUID, userID uuid.UUID) error {
	return s.taskRepo.DeleteTask(ctx, taskID, userID)
}

// Bulk operations report how many tasks they actually touched
// Foreign or unknown ids are silently skipped by the scoped queries

func (s *TaskService) DeleteTasks(ctx context.Context, taskIDs []uuid.UUID, userID uuid.UUID) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	return s.taskRepo.DeleteTasks(ctx, taskIDs, userID)
}

func (s *TaskService) CompleteTasks(ctx context.Context, taskIDs []uuid.UUID, userID uuid.UUID) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	return s.taskRepo.CompleteTasks(ctx, taskIDs, userID)
}
