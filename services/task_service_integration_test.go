package services_test

import (
	"context"
	"devQuestAPI/internal/apperr"
	"devQuestAPI/internal/testutil"
	"devQuestAPI/internal/types/task"
	"devQuestAPI/internal/types/user"
	"devQuestAPI/services"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDescription(s string) *string { return &s }

func createTestUser(t *testing.T, svc *services.UserService) string {
	t.Helper()

	clerkID := "user_test_" + uuid.NewString()
	_, err := svc.CreateUser(context.Background(), &user.CreateUserRequest{
		ClerkID: clerkID,
		Email:   fmt.Sprintf("test+%d@example.com", time.Now().UnixNano()),
	})
	require.NoError(t, err)
	return clerkID
}

func TestCompletionWorkflow(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, pool)

	ctx := context.Background()
	userSvc := services.NewUserService(pool)
	taskSvc := services.NewTaskService(pool, nil)
	clerkID := createTestUser(t, userSvc)

	// No stats row yet: reading yields the default without creating it.
	st, err := taskSvc.GetUserStats(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.XP)
	assert.Equal(t, 1, st.Level)
	assert.Equal(t, 0, st.Streak)
	assert.Nil(t, st.LastCompleted)

	first, err := taskSvc.CreateTask(ctx, clerkID, &task.CreateTaskRequest{
		Title:    "Solve two leetcode problems",
		Category: task.CategoryDSA,
		XPReward: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, first.Status)
	assert.Nil(t, first.CompletedAt)

	result, err := taskSvc.CompleteTask(ctx, clerkID, first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, result.Task.Status)
	require.NotNil(t, result.Task.CompletedAt)
	assert.Equal(t, 10, result.XPAwarded)
	assert.Equal(t, 10, result.Stats.XP)
	assert.Equal(t, 1, result.Stats.Level)
	assert.Equal(t, 1, result.Stats.Streak)
	assert.False(t, result.LeveledUp)

	// A second completion the same day rolls XP into a level but leaves
	// the streak alone.
	second, err := taskSvc.CreateTask(ctx, clerkID, &task.CreateTaskRequest{
		Title:    "Write the quarterly report",
		Category: task.CategoryWork,
		XPReward: 95,
	})
	require.NoError(t, err)

	result, err = taskSvc.CompleteTask(ctx, clerkID, second.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Stats.XP)
	assert.Equal(t, 2, result.Stats.Level)
	assert.Equal(t, 1, result.Stats.Streak)
	assert.True(t, result.LeveledUp)

	// Completing twice is rejected and leaves the state untouched.
	_, err = taskSvc.CompleteTask(ctx, clerkID, second.ID.String())
	assert.ErrorIs(t, err, apperr.ErrValidation)

	st, err = taskSvc.GetUserStats(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 5, st.XP)
	assert.Equal(t, 2, st.Level)
}

func TestCompleteTask_NotFound(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, pool)

	ctx := context.Background()
	userSvc := services.NewUserService(pool)
	taskSvc := services.NewTaskService(pool, nil)
	clerkID := createTestUser(t, userSvc)

	_, err := taskSvc.CompleteTask(ctx, clerkID, uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCompleteTask_OtherOwnersTaskIsNotFound(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, pool)

	ctx := context.Background()
	userSvc := services.NewUserService(pool)
	taskSvc := services.NewTaskService(pool, nil)
	owner := createTestUser(t, userSvc)
	stranger := createTestUser(t, userSvc)

	owned, err := taskSvc.CreateTask(ctx, owner, &task.CreateTaskRequest{
		Title:    "Private quest",
		Category: task.CategoryPersonal,
		XPReward: 20,
	})
	require.NoError(t, err)

	_, err = taskSvc.CompleteTask(ctx, stranger, owned.ID.String())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Still pending for the real owner.
	pending, err := taskSvc.ListTasks(ctx, owner, task.ViewPending, "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, owned.ID, pending[0].ID)
}

func TestConcurrentCompletionsDropNoReward(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, pool)

	ctx := context.Background()
	userSvc := services.NewUserService(pool)
	taskSvc := services.NewTaskService(pool, nil)
	clerkID := createTestUser(t, userSvc)

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		created, err := taskSvc.CreateTask(ctx, clerkID, &task.CreateTaskRequest{
			Title:    fmt.Sprintf("Parallel quest %d", i),
			Category: task.CategoryPersonal,
			XPReward: 10,
		})
		require.NoError(t, err)
		ids[i] = created.ID.String()
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := taskSvc.CompleteTask(ctx, clerkID, id)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Every reward must land exactly once: 8 * 10 XP.
	st, err := taskSvc.GetUserStats(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 80, st.XP+(st.Level-1)*100)
	assert.Equal(t, 1, st.Streak)
}

func TestListTasks_ViewsAndSearch(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, pool)

	ctx := context.Background()
	userSvc := services.NewUserService(pool)
	taskSvc := services.NewTaskService(pool, nil)
	clerkID := createTestUser(t, userSvc)

	a, err := taskSvc.CreateTask(ctx, clerkID, &task.CreateTaskRequest{
		Title:       "Refactor billing module",
		Description: newDescription("tidy up the invoice generator"),
		Category:    task.CategoryWork,
		XPReward:    50,
	})
	require.NoError(t, err)

	_, err = taskSvc.CreateTask(ctx, clerkID, &task.CreateTaskRequest{
		Title:    "Morning run",
		Category: task.CategoryPersonal,
		XPReward: 5,
	})
	require.NoError(t, err)

	_, err = taskSvc.CompleteTask(ctx, clerkID, a.ID.String())
	require.NoError(t, err)

	all, err := taskSvc.ListTasks(ctx, clerkID, task.ViewAll, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	// Newest first.
	assert.Equal(t, "Morning run", all[0].Title)

	pending, err := taskSvc.ListTasks(ctx, clerkID, task.ViewPending, "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Morning run", pending[0].Title)

	completed, err := taskSvc.ListTasks(ctx, clerkID, task.ViewCompleted, "")
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, a.ID, completed[0].ID)

	today, err := taskSvc.ListTasks(ctx, clerkID, task.ViewToday, "")
	require.NoError(t, err)
	assert.Len(t, today, 1)

	// Case-insensitive substring over title and description.
	byTitle, err := taskSvc.ListTasks(ctx, clerkID, task.ViewAll, "BILLING")
	require.NoError(t, err)
	assert.Len(t, byTitle, 1)

	byDescription, err := taskSvc.ListTasks(ctx, clerkID, task.ViewAll, "invoice")
	require.NoError(t, err)
	assert.Len(t, byDescription, 1)

	none, err := taskSvc.ListTasks(ctx, clerkID, task.ViewAll, "zzz-no-match")
	require.NoError(t, err)
	assert.Len(t, none, 0)
}

func TestDeleteTask(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, pool)

	ctx := context.Background()
	userSvc := services.NewUserService(pool)
	taskSvc := services.NewTaskService(pool, nil)
	clerkID := createTestUser(t, userSvc)

	created, err := taskSvc.CreateTask(ctx, clerkID, &task.CreateTaskRequest{
		Title:    "Throwaway quest",
		Category: task.CategoryPersonal,
		XPReward: 5,
	})
	require.NoError(t, err)

	require.NoError(t, taskSvc.DeleteTask(ctx, clerkID, created.ID.String()))

	err = taskSvc.DeleteTask(ctx, clerkID, created.ID.String())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
