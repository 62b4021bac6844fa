package generation

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"VoiceStudio/internal/inference"
	"VoiceStudio/internal/models"
	"VoiceStudio/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memStore keeps written objects in a map; presigned URLs are synthetic.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Write(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memStore) PresignedGetURL(_ context.Context, key string, _ time.Duration, _ string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (m *memStore) PresignedUploadURL(_ context.Context, fileType string) (string, string, error) {
	return "https://cdn.test/upload", "voice-conversion-uploads/test." + fileType, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := util.OpenDatabase("sqlite", "")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GenerationJob{}, &models.GeneratedClip{}))
	return db
}

func waitForJob(t *testing.T, db *gorm.DB, id string) models.GenerationJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var job models.GenerationJob
		require.NoError(t, db.First(&job, "id = ?", id).Error)
		if job.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return models.GenerationJob{}
}

func TestRunnerSuccessStoresAudioAndClip(t *testing.T) {
	db := newTestDB(t)
	store := newMemStore()
	infer := &inference.MockService{Response: inference.Result{Audio: []byte("RIFFdata"), ContentType: "audio/wav"}}
	r := NewRunner(db, store, infer, nil, time.Second)

	job, err := r.Accept(models.ServiceStyleTTS2, "woman", "hello world", "")
	require.NoError(t, err)

	done := waitForJob(t, db, job.ID)
	assert.Equal(t, models.JobStatusSucceeded, done.Status)
	assert.NotEmpty(t, done.ResultKey)
	assert.Contains(t, done.ResultKey, "styletts2-outputs/")

	exists, err := store.Exists(context.Background(), done.ResultKey)
	require.NoError(t, err)
	assert.True(t, exists)

	var clip models.GeneratedClip
	require.NoError(t, db.First(&clip, "id = ?", job.ID).Error)
	assert.Equal(t, "hello world", clip.Title)
	assert.Equal(t, done.ResultKey, clip.ObjectKey)

	calls := infer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, models.ServiceStyleTTS2, calls[0].Service)
}

func TestRunnerFailureRecordsError(t *testing.T) {
	db := newTestDB(t)
	infer := &inference.MockService{Err: errors.New("model unavailable")}
	r := NewRunner(db, newMemStore(), infer, nil, time.Second)

	job, err := r.Accept(models.ServiceMakeAnAudio, "", "thunder", "")
	require.NoError(t, err)

	done := waitForJob(t, db, job.ID)
	assert.Equal(t, models.JobStatusFailed, done.Status)
	assert.Contains(t, done.ErrorMessage, "model unavailable")
	assert.Empty(t, done.ResultKey)

	// no history entry for a failed generation
	var count int64
	db.Model(&models.GeneratedClip{}).Where("id = ?", job.ID).Count(&count)
	assert.Zero(t, count)
}

func TestRunnerVoiceConversionTitle(t *testing.T) {
	db := newTestDB(t)
	infer := &inference.MockService{Response: inference.Result{Audio: []byte("RIFF")}}
	r := NewRunner(db, newMemStore(), infer, nil, time.Second)

	job, err := r.Accept(models.ServiceSeedVC, "trump", "", "voice-conversion-uploads/interview.wav")
	require.NoError(t, err)
	waitForJob(t, db, job.ID)

	var clip models.GeneratedClip
	require.NoError(t, db.First(&clip, "id = ?", job.ID).Error)
	assert.Equal(t, "interview", clip.Title)
}

func TestPurgeRemovesOnlyStaleJobs(t *testing.T) {
	db := newTestDB(t)

	stale := models.GenerationJob{ID: "old", Service: models.ServiceStyleTTS2, Status: models.JobStatusSucceeded}
	fresh := models.GenerationJob{ID: "new", Service: models.ServiceStyleTTS2, Status: models.JobStatusPending}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&fresh).Error)
	require.NoError(t, db.Model(&models.GenerationJob{}).Where("id = ?", "old").
		Update("updated_at", time.Now().Add(-48*time.Hour)).Error)

	NewPurgeJob(db, 24*time.Hour, nil).Run(context.Background())

	var ids []string
	require.NoError(t, db.Model(&models.GenerationJob{}).Pluck("id", &ids).Error)
	assert.Equal(t, []string{"new"}, ids)
}
