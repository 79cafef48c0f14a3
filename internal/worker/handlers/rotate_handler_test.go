package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"ordermgmt/internal/logstore"
	"ordermgmt/internal/worker/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type rotateCall struct {
	category logstore.Category
	date     string
}

type fakeRotator struct {
	calls []rotateCall
	errs  map[logstore.Category]error
}

func (f *fakeRotator) Rotate(c logstore.Category, date time.Time) (string, error) {
	f.calls = append(f.calls, rotateCall{c, date.Format(logstore.DateLayout)})
	if err := f.errs[c]; err != nil {
		return "", err
	}
	return "archived/" + c.Prefix() + ".log", nil
}

func newTask(t *testing.T, p tasks.RotateLogsPayload) *asynq.Task {
	t.Helper()
	task, err := tasks.NewRotateLogsTask(p)
	require.NoError(t, err)
	return task
}

func TestHandleRotateLogsDefaultsToYesterday(t *testing.T) {
	rotator := &fakeRotator{}
	h := NewRotateHandler(rotator, zaptest.NewLogger(t))
	h.now = func() time.Time { return time.Date(2024, 3, 1, 0, 5, 0, 0, time.Local) }

	require.NoError(t, h.HandleRotateLogs(context.Background(), newTask(t, tasks.RotateLogsPayload{})))
	assert.Equal(t, []rotateCall{
		{logstore.CategoryApplication, "2024-02-29"},
		{logstore.CategoryDatabase, "2024-02-29"},
	}, rotator.calls)
}

func TestHandleRotateLogsExplicitPayload(t *testing.T) {
	rotator := &fakeRotator{errs: map[logstore.Category]error{
		logstore.CategoryDatabase: logstore.ErrArchiveExists,
	}}
	h := NewRotateHandler(rotator, zaptest.NewLogger(t))

	err := h.HandleRotateLogs(context.Background(), newTask(t, tasks.RotateLogsPayload{
		Date:       "2024-01-05",
		Categories: []string{"database"},
	}))
	require.NoError(t, err, "归档已存在不算失败")
	assert.Equal(t, []rotateCall{{logstore.CategoryDatabase, "2024-01-05"}}, rotator.calls)
}

func TestHandleRotateLogsErrors(t *testing.T) {
	boom := errors.New("disk full")
	rotator := &fakeRotator{errs: map[logstore.Category]error{logstore.CategoryApplication: boom}}
	h := NewRotateHandler(rotator, zaptest.NewLogger(t))
	ctx := context.Background()

	err := h.HandleRotateLogs(ctx, newTask(t, tasks.RotateLogsPayload{Date: "2024-01-05"}))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rotator.calls, 2, "一个分类失败不影响其他分类")

	bad := []*asynq.Task{
		asynq.NewTask(tasks.TypeRotateLogs, []byte("not-json")),
		newTask(t, tasks.RotateLogsPayload{Date: "2024/01/05"}),
		newTask(t, tasks.RotateLogsPayload{Categories: []string{"INFO"}}),
	}
	for _, task := range bad {
		err := h.HandleRotateLogs(ctx, task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	}
}
