// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
)

// CatalogRepository defines common operations for catalog entities.
type CatalogRepository[T any] interface {
	Create(ctx context.Context, e T) error
	GetByID(ctx context.Context, id int64) (T, error)
	GetByCode(ctx context.Context, code string) (T, error)
	Update(ctx context.Context, e T) error
	Deactivate(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)
}

// ListFilter is the common list query shape.
type ListFilter struct {
	Search          string
	IncludeInactive bool
	OrderBy         string
	Limit           int
	Offset          int
}

// ListResult wraps a page of entities with pagination info.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// HookEvent identifies a lifecycle point where hooks run.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	BeforePost   HookEvent = "before_post"
	AfterPost    HookEvent = "after_post"
	AfterCancel  HookEvent = "after_cancel"
	AfterReset   HookEvent = "after_reset"
)

// Hook is a lifecycle callback. Returning an error aborts the operation
// (for the Before* events) or is logged and ignored (After* events).
type Hook[T any] func(ctx context.Context, e T) error

// HookRegistry stores lifecycle hooks per event.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, e T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// OnBeforeCreate registers a hook to run before create.
func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) { r.On(BeforeCreate, hook) }

// OnAfterCreate registers a hook to run after create.
func (r *HookRegistry[T]) OnAfterCreate(hook Hook[T]) { r.On(AfterCreate, hook) }

// OnBeforeUpdate registers a hook to run before update.
func (r *HookRegistry[T]) OnBeforeUpdate(hook Hook[T]) { r.On(BeforeUpdate, hook) }

// OnAfterUpdate registers a hook to run after update.
func (r *HookRegistry[T]) OnAfterUpdate(hook Hook[T]) { r.On(AfterUpdate, hook) }

// OnBeforeDelete registers a hook to run before delete.
func (r *HookRegistry[T]) OnBeforeDelete(hook Hook[T]) { r.On(BeforeDelete, hook) }

// OnBeforePost registers a hook to run before a document is posted.
func (r *HookRegistry[T]) OnBeforePost(hook Hook[T]) { r.On(BeforePost, hook) }

// OnAfterPost registers a hook to run after a document is posted.
func (r *HookRegistry[T]) OnAfterPost(hook Hook[T]) { r.On(AfterPost, hook) }

// OnAfterCancel registers a hook to run after a document is cancelled.
func (r *HookRegistry[T]) OnAfterCancel(hook Hook[T]) { r.On(AfterCancel, hook) }

// OnAfterReset registers a hook to run after a document returns to draft.
func (r *HookRegistry[T]) OnAfterReset(hook Hook[T]) { r.On(AfterReset, hook) }

// RunBeforeCreate executes before-create hooks.
func (r *HookRegistry[T]) RunBeforeCreate(ctx context.Context, e T) error {
	return r.Run(ctx, BeforeCreate, e)
}

// RunAfterCreate executes after-create hooks.
func (r *HookRegistry[T]) RunAfterCreate(ctx context.Context, e T) error {
	return r.Run(ctx, AfterCreate, e)
}

// RunBeforeUpdate executes before-update hooks.
func (r *HookRegistry[T]) RunBeforeUpdate(ctx context.Context, e T) error {
	return r.Run(ctx, BeforeUpdate, e)
}

// RunBeforeDelete executes before-delete hooks.
func (r *HookRegistry[T]) RunBeforeDelete(ctx context.Context, e T) error {
	return r.Run(ctx, BeforeDelete, e)
}

// RunBeforePost executes before-post hooks.
func (r *HookRegistry[T]) RunBeforePost(ctx context.Context, e T) error {
	return r.Run(ctx, BeforePost, e)
}

// RunAfterPost executes after-post hooks.
func (r *HookRegistry[T]) RunAfterPost(ctx context.Context, e T) error {
	return r.Run(ctx, AfterPost, e)
}
