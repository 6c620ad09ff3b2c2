package redis

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indevian-dev/stuwin-api/internal/domain/model"
)

func TestCache_SetGetDelete(t *testing.T) {
	cache := NewCache(setupTestRedis(t), "otp:")
	ctx := context.Background()

	got, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	got, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	var deleted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := cache.Delete(ctx, "k")
			assert.NoError(t, err)
			if ok {
				deleted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, deleted.Load())
}

func TestCache_SetIfNotExists(t *testing.T) {
	cache := NewCache(setupTestRedis(t), "lock:")
	ctx := context.Background()

	ok, err := cache.SetIfNotExists(ctx, "k", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetIfNotExists(ctx, "k", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJobQueue_Enqueue(t *testing.T) {
	client := setupTestRedis(t)
	queue := NewJobQueue(client)
	ctx := context.Background()

	job := model.Job{
		ID:            "job-1",
		Topic:         model.JobTopicOTPDeliver,
		CorrelationID: "corr-1",
		Payload:       json.RawMessage(`{"code":"123456"}`),
		EnqueuedAt:    time.Now().UTC(),
	}
	require.NoError(t, queue.Enqueue(ctx, job))

	raw, err := client.RPop(ctx, queue.ListKey(model.JobTopicOTPDeliver)).Bytes()
	require.NoError(t, err)

	var got model.Job
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "corr-1", got.CorrelationID)
	assert.JSONEq(t, `{"code":"123456"}`, string(got.Payload))
}

func TestJobQueue_RejectsBadTopic(t *testing.T) {
	queue := NewJobQueue(setupTestRedis(t))

	err := queue.Enqueue(context.Background(), model.Job{ID: "j", Topic: "Bad Topic"})
	assert.Error(t, err)
}
