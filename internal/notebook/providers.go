package notebook

import (
	"context"
	"fmt"

	"github.com/helvia-io/maestro/internal/tools"
)

// TaskProvider serves the task_create and task_list actions.
type TaskProvider struct {
	store *Store
}

// NewTaskProvider wraps store as a task tool provider.
func NewTaskProvider(store *Store) *TaskProvider {
	return &TaskProvider{store: store}
}

// Execute handles one validated task action.
func (p *TaskProvider) Execute(ctx context.Context, input tools.Input, uctx tools.UserContext) (*tools.Result, error) {
	switch in := input.(type) {
	case *tools.TaskCreateInput:
		task := &Task{
			UserID:      in.UserID,
			Title:       in.Title,
			Description: in.Description,
			DueDate:     in.DueDate,
			Priority:    in.Priority,
			Tags:        in.Tags,
		}
		if err := p.store.CreateTask(ctx, task); err != nil {
			return nil, err
		}
		return &tools.Result{
			Success: true,
			Message: fmt.Sprintf("Task created: %s", task.Title),
			Data:    map[string]any{"task": task},
		}, nil

	case *tools.TaskListInput:
		tasks, err := p.store.ListTasks(ctx, in.UserID, in.Status, in.Priority, in.MaxResults)
		if err != nil {
			return nil, err
		}
		return &tools.Result{
			Success: true,
			Message: fmt.Sprintf("Found %d tasks", len(tasks)),
			Data:    map[string]any{"tasks": tasks, "count": len(tasks)},
		}, nil

	default:
		return nil, fmt.Errorf("notebook: unsupported task input %T", input)
	}
}

// NoteProvider serves the note_create and note_search actions.
type NoteProvider struct {
	store *Store
}

// NewNoteProvider wraps store as a note tool provider.
func NewNoteProvider(store *Store) *NoteProvider {
	return &NoteProvider{store: store}
}

// Execute handles one validated note action.
func (p *NoteProvider) Execute(ctx context.Context, input tools.Input, uctx tools.UserContext) (*tools.Result, error) {
	switch in := input.(type) {
	case *tools.NoteCreateInput:
		note := &Note{
			UserID:   in.UserID,
			Title:    in.Title,
			Content:  in.Content,
			Category: in.Category,
			Tags:     in.Tags,
		}
		if err := p.store.CreateNote(ctx, note); err != nil {
			return nil, err
		}
		return &tools.Result{
			Success: true,
			Message: fmt.Sprintf("Note created: %s", note.Title),
			Data:    map[string]any{"note": note},
		}, nil

	case *tools.NoteSearchInput:
		notes, err := p.store.SearchNotes(ctx, in.UserID, in.Query, in.Category, in.Tags, in.MaxResults)
		if err != nil {
			return nil, err
		}
		return &tools.Result{
			Success: true,
			Message: fmt.Sprintf("Found %d notes", len(notes)),
			Data:    map[string]any{"notes": notes, "count": len(notes)},
		}, nil

	default:
		return nil, fmt.Errorf("notebook: unsupported note input %T", input)
	}
}

// RegisterProviders binds the notebook providers to their actions on r.
func RegisterProviders(r *tools.Registry, store *Store) error {
	tp := NewTaskProvider(store)
	np := NewNoteProvider(store)
	for action, p := range map[tools.Action]tools.Provider{
		tools.ActionTaskCreate: tp,
		tools.ActionTaskList:   tp,
		tools.ActionNoteCreate: np,
		tools.ActionNoteSearch: np,
	} {
		if err := r.Register(action, p); err != nil {
			return err
		}
	}
	return nil
}
