// Package scheduler runs the due-task reminder loop: a periodic scan for
// unfinished tasks whose due date falls inside the configured window, grouped
// per project and handed to the webhook notifier.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/taskforge-dev/taskforge/db"
	"github.com/taskforge-dev/taskforge/internal/models"
	"github.com/taskforge-dev/taskforge/internal/services"
	"gorm.io/gorm"
)

type Reminder struct {
	interval time.Duration
	window   time.Duration
	notifier *services.WebhookNotifier
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewReminder(interval time.Duration, window time.Duration, notifier *services.WebhookNotifier) *Reminder {
	ctx, cancel := context.WithCancel(context.Background())
	return &Reminder{
		interval: interval,
		window:   window,
		notifier: notifier,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (r *Reminder) Start() {
	log.Printf("Starting reminder scheduler (every %v, window %v)", r.interval, r.window)

	go r.run()
}

func (r *Reminder) Stop() {
	log.Println("Stopping reminder scheduler...")
	r.cancel()
}

func (r *Reminder) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.runOnce()
		}
	}
}

func (r *Reminder) runOnce() {
	tasks, err := DueTasks(db.DB, r.window)

	if err != nil {
		log.Printf("Reminder scan failed: %v", err)
		return
	}

	if len(tasks) == 0 {
		return
	}

	byProject := make(map[string][]models.Task)
	for _, task := range tasks {
		byProject[task.ProjectID] = append(byProject[task.ProjectID], task)
	}

	for projectID, projectTasks := range byProject {
		var project models.Project

		if err := db.DB.First(&project, "id = ?", projectID).Error; err != nil {
			log.Printf("Failed to load project %s for reminder: %v", projectID, err)
			continue
		}

		if err := r.notifier.SendDueTaskDigest(project, projectTasks); err != nil {
			log.Printf("Failed to send reminder for project %s: %v", projectID, err)
		} else {
			log.Printf("Sent reminder for project %s (%d tasks)", projectID, len(projectTasks))
		}
	}
}

// DueTasks returns unfinished tasks whose due date falls between now and
// now+window, soonest first. Overdue tasks are included.
func DueTasks(gdb *gorm.DB, window time.Duration) ([]models.Task, error) {
	tasks := make([]models.Task, 0)

	err := gdb.Where("due_date IS NOT NULL AND due_date <= ? AND status <> ?",
		time.Now().Add(window), models.StatusDone).
		Order("due_date ASC").
		Find(&tasks).Error

	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// Global reminder instance, wired at process start.
var globalReminder *Reminder

func Initialize(interval time.Duration, window time.Duration, notifier *services.WebhookNotifier) {
	if !notifier.Enabled() {
		log.Println("No reminder webhooks configured, scheduler disabled")
		return
	}

	globalReminder = NewReminder(interval, window, notifier)
	globalReminder.Start()
}

func Shutdown() {
	if globalReminder != nil {
		globalReminder.Stop()
	}
}
