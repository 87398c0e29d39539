// Package access resolves resources under the caller's ownership chain and
// executes the filtered, ordered, paginated list queries. Every lookup is a
// conjunctive exact-equality match; a resource that exists but belongs to
// another user is indistinguishable from one that does not exist.
package access

import (
	"errors"

	"github.com/taskforge-dev/taskforge/internal/models"
	"gorm.io/gorm"
)

// NotFoundError is the single failure kind for scoped lookups. Subject is the
// entity named in the user-facing message, "Project" or "Task".
type NotFoundError struct {
	Subject string
}

func (e *NotFoundError) Error() string {
	return e.Subject + " not found"
}

// FindOwnedProject returns the project only when it exists and is owned by
// ownerID.
func FindOwnedProject(db *gorm.DB, ownerID string, projectID string) (*models.Project, error) {
	var project models.Project

	err := db.Where("id = ? AND owner_id = ?", projectID, ownerID).First(&project).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Subject: "Project"}
		}
		return nil, err
	}

	return &project, nil
}

// FindProjectTask resolves the parent project under the caller's ownership
// before touching the task, so a task under a foreign project reports
// "Project not found" and never leaks the task's existence.
func FindProjectTask(db *gorm.DB, ownerID string, projectID string, taskID string) (*models.Task, error) {
	if _, err := FindOwnedProject(db, ownerID, projectID); err != nil {
		return nil, err
	}

	var task models.Task

	err := db.Where("id = ? AND project_id = ?", taskID, projectID).First(&task).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Subject: "Task"}
		}
		return nil, err
	}

	return &task, nil
}
