// Package actions turns guest requests into staff tasks. Repeated requests within the dedup
// window update the existing task instead of creating another one.
package actions

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	taskRepo "concierge/database/repository/tasks"
	"concierge/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the part of *asynq.Client the task sink needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskRequest describes a task to create or update.
type TaskRequest struct {
	TenantID       string
	ConversationID string
	Type           models.TaskType
	ItemIdentity   string // empty: derived from Type and Item
	Item           string
	Quantity       int
	Room           string
	Department     string
	Priority       models.Priority
	Metadata       map[string]string
}

// TaskOutcome reports what CreateOrUpdateTask did.
type TaskOutcome struct {
	Task    *models.StaffTask
	Created bool
}

// TaskSink creates staff tasks idempotently and notifies the responsible department.
type TaskSink interface {
	CreateOrUpdateTask(ctx context.Context, req TaskRequest) (*TaskOutcome, error)
	// UpdateTask sets a new quantity (0 keeps the current one) and merges metadata.
	UpdateTask(ctx context.Context, taskID string, quantity int, metadata map[string]string) (*models.StaffTask, error)
}

// DefaultTaskSink is the production implementation.
type DefaultTaskSink struct {
	Repo        taskRepo.TaskRepository
	Queue       Enqueuer // nil disables staff notification
	DedupWindow time.Duration
	Now         func() time.Time
	Logger      *zap.Logger
}

// Identity is the dedup key of a task within a conversation.
func Identity(t models.TaskType, item string) string {
	return string(t) + ":" + Singular(strings.ToLower(strings.Join(strings.Fields(item), " ")))
}

// Singular strips a plain English plural from the last word.
func Singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 4:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "ches") || strings.HasSuffix(s, "shes") || strings.HasSuffix(s, "sses"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss") && len(s) > 3:
		return s[:len(s)-1]
	}
	return s
}

var mentionPatterns sync.Map // singular name -> *regexp.Regexp

// MentionIndex returns where name appears in text as whole words, in singular or plural form,
// or -1. text must already be lower case.
func MentionIndex(text, name string) int {
	needle := Singular(strings.ToLower(strings.Join(strings.Fields(name), " ")))
	if needle == "" {
		return -1
	}
	re, ok := mentionPatterns.Load(needle)
	if !ok {
		re, _ = mentionPatterns.LoadOrStore(needle, mentionPattern(needle))
	}
	loc := re.(*regexp.Regexp).FindStringSubmatchIndex(text)
	if loc == nil {
		return -1
	}
	return loc[2]
}

func mentionPattern(needle string) *regexp.Regexp {
	body := regexp.QuoteMeta(needle) + `(?:e?s)?`
	if strings.HasSuffix(needle, "y") {
		body = regexp.QuoteMeta(needle[:len(needle)-1]) + `(?:y|ys|ies)`
	}
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(` + body + `)(?:$|[^\p{L}\p{N}])`)
}
