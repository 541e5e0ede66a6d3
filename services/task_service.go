package services

import (
	"context"
	"devQuestAPI/internal/apperr"
	"devQuestAPI/internal/progression"
	"devQuestAPI/internal/types/stats"
	"devQuestAPI/internal/types/task"
	"devQuestAPI/middleware"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewTaskService(db *pgxpool.Pool, notifService *NotificationService) *TaskService {
	return &TaskService{
		db:           db,
		notifService: notifService,
	}
}

// CompletionResult is what a completed quest returns to the client: the
// flipped task, the progression state after the reward, and whether the
// reward crossed a level boundary.
type CompletionResult struct {
	Task      *task.Task       `json:"task"`
	Stats     *stats.UserStats `json:"stats"`
	XPAwarded int              `json:"xp_awarded"`
	LeveledUp bool             `json:"leveled_up"`
}

func (s *TaskService) validateCreate(req *task.CreateTaskRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", apperr.ErrValidation)
	}
	if !req.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, req.Category)
	}
	if req.XPReward <= 0 {
		return fmt.Errorf("%w: xp_reward must be positive", apperr.ErrValidation)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, clerkID string, req *task.CreateTaskRequest) (*task.Task, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	t := &task.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    req.Category,
		Status:      task.StatusPending,
		XPReward:    req.XPReward,
		CreatedAt:   time.Now(),
	}

	query := `
	INSERT INTO tasks (id, user_id, title, description, category, status, xp_reward, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at
	`

	err = s.db.QueryRow(
		ctx,
		query,
		t.ID,
		t.UserID,
		t.Title,
		t.Description,
		t.Category,
		t.Status,
		t.XPReward,
		t.CreatedAt,
	).Scan(&t.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to create task: %v", apperr.ErrPersistence, err)
	}

	return t, nil
}

// ListTasks returns the owner's tasks newest first. The view narrows the
// result in SQL; q filters by case-insensitive substring over title and
// description.
func (s *TaskService) ListTasks(ctx context.Context, clerkID string, view task.View, q string) ([]*task.Task, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, title, description, category, status, xp_reward, created_at, completed_at
	FROM tasks
	WHERE user_id = $1
	`
	args := []any{userID}

	switch view {
	case task.ViewAll:
	case task.ViewPending:
		query += ` AND status = 'pending'`
	case task.ViewCompleted:
		query += ` AND status = 'completed'`
	case task.ViewToday:
		query += ` AND status = 'completed' AND completed_at::date = CURRENT_DATE`
	default:
		return nil, fmt.Errorf("%w: unknown view %q", apperr.ErrValidation, view)
	}

	if q != "" {
		args = append(args, "%"+q+"%")
		query += fmt.Sprintf(` AND (title ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list tasks: %v", apperr.ErrPersistence, err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t := &task.Task{}
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Title,
			&t.Description,
			&t.Category,
			&t.Status,
			&t.XPReward,
			&t.CreatedAt,
			&t.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan task: %v", apperr.ErrPersistence, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to list tasks: %v", apperr.ErrPersistence, err)
	}

	return tasks, nil
}

// CompleteTask flips one pending task to completed and applies the XP reward
// to the owner's progression row. Both writes happen in one transaction with
// the stats row locked, so two near-simultaneous completions cannot read the
// same base state and drop a reward.
func (s *TaskService) CompleteTask(ctx context.Context, clerkID string, taskID string) (*CompletionResult, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid task id", apperr.ErrValidation)
	}

	completedAt := time.Now()
	day := progression.DayOf(completedAt)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", apperr.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	t := &task.Task{}
	err = tx.QueryRow(ctx, `
	UPDATE tasks
	SET status = 'completed', completed_at = $3
	WHERE id = $1 AND user_id = $2 AND status = 'pending'
	RETURNING id, user_id, title, description, category, status, xp_reward, created_at, completed_at
	`, id, userID, completedAt).Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Category,
		&t.Status,
		&t.XPReward,
		&t.CreatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyCompleteMiss(ctx, id, userID)
		}
		return nil, fmt.Errorf("%w: failed to complete task: %v", apperr.ErrPersistence, err)
	}

	// Make sure the stats row exists, then lock it for the read-modify-write.
	_, err = tx.Exec(ctx, `
	INSERT INTO user_stats (user_id, xp, level, streak)
	VALUES ($1, 0, 1, 0)
	ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to init user stats: %v", apperr.ErrPersistence, err)
	}

	row := stats.UserStats{UserID: userID}
	var lastCompleted *time.Time
	err = tx.QueryRow(ctx, `
	SELECT xp, level, streak, last_completed
	FROM user_stats
	WHERE user_id = $1
	FOR UPDATE
	`, userID).Scan(&row.XP, &row.Level, &row.Streak, &lastCompleted)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read user stats: %v", apperr.ErrPersistence, err)
	}
	if lastCompleted != nil {
		d := progression.DayOf(*lastCompleted)
		row.LastCompleted = &d
	}

	cur := row.State()
	next := progression.Apply(cur, t.XPReward, day)

	updated := &stats.UserStats{UserID: userID}
	err = tx.QueryRow(ctx, `
	UPDATE user_stats
	SET xp = $2, level = $3, streak = $4, last_completed = $5, updated_at = NOW()
	WHERE user_id = $1
	RETURNING xp, level, streak, created_at, updated_at
	`, userID, next.XP, next.Level, next.Streak, next.LastCompleted.Time()).Scan(
		&updated.XP,
		&updated.Level,
		&updated.Streak,
		&updated.CreatedAt,
		&updated.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to update user stats: %v", apperr.ErrPersistence, err)
	}
	updated.LastCompleted = next.LastCompleted

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: failed to commit completion: %v", apperr.ErrPersistence, err)
	}

	leveledUp := next.Level > cur.Level
	middleware.RecordQuestCompletion(string(t.Category), leveledUp)

	if s.notifService != nil {
		s.notifService.NotifyCompletion(ctx, userID, next, leveledUp)
	}

	return &CompletionResult{
		Task:      t,
		Stats:     updated,
		XPAwarded: t.XPReward,
		LeveledUp: leveledUp,
	}, nil
}

// classifyCompleteMiss tells a missing task apart from an already-completed
// one after the guarded UPDATE matched nothing.
func (s *TaskService) classifyCompleteMiss(ctx context.Context, id, userID uuid.UUID) error {
	var status task.Status
	err := s.db.QueryRow(ctx, `SELECT status FROM tasks WHERE id = $1 AND user_id = $2`, id, userID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: task %s", apperr.ErrNotFound, id)
		}
		return fmt.Errorf("%w: failed to check task: %v", apperr.ErrPersistence, err)
	}
	if status == task.StatusCompleted {
		return fmt.Errorf("%w: task is already completed", apperr.ErrValidation)
	}
	return fmt.Errorf("%w: task %s", apperr.ErrNotFound, id)
}

func (s *TaskService) DeleteTask(ctx context.Context, clerkID string, taskID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(taskID)
	if err != nil {
		return fmt.Errorf("%w: invalid task id", apperr.ErrValidation)
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("%w: failed to delete task: %v", apperr.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: task %s", apperr.ErrNotFound, id)
	}

	return nil
}

// GetUserStats returns the owner's progression row, or the absent-default
// without creating one. Lazy creation happens on first completion only.
func (s *TaskService) GetUserStats(ctx context.Context, clerkID string) (*stats.UserStats, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	st := &stats.UserStats{UserID: userID}
	var lastCompleted *time.Time
	err = s.db.QueryRow(ctx, `
	SELECT xp, level, streak, last_completed, created_at, updated_at
	FROM user_stats
	WHERE user_id = $1
	`, userID).Scan(&st.XP, &st.Level, &st.Streak, &lastCompleted, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats.Default(userID), nil
		}
		return nil, fmt.Errorf("%w: failed to get user stats: %v", apperr.ErrPersistence, err)
	}
	if lastCompleted != nil {
		d := progression.DayOf(*lastCompleted)
		st.LastCompleted = &d
	}

	return st, nil
}

func (s *TaskService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("TaskService: no user for clerk_id %s", clerkID)
			return uuid.Nil, fmt.Errorf("%w: unknown user", apperr.ErrNotAuthenticated)
		}
		return uuid.Nil, fmt.Errorf("%w: failed to look up user: %v", apperr.ErrPersistence, err)
	}
	return userID, nil
}
