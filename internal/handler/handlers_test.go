package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"VoiceStudio/internal/generation"
	"VoiceStudio/internal/inference"
	"VoiceStudio/internal/models"
	"VoiceStudio/pkg/cache"
	"VoiceStudio/pkg/middleware"
	"VoiceStudio/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Write(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStore) PresignedGetURL(_ context.Context, key string, _ time.Duration, _ string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (f *fakeStore) PresignedUploadURL(_ context.Context, fileType string) (string, string, error) {
	ext := "wav"
	if fileType == "audio/mp3" {
		ext = "mp3"
	}
	return "https://cdn.test/upload", "voice-conversion-uploads/upload." + ext, nil
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	store  *fakeStore
	infer  *inference.MockService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := util.OpenDatabase("sqlite", "")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GenerationJob{}, &models.GeneratedClip{}))

	store := newFakeStore()
	infer := &inference.MockService{Response: inference.Result{Audio: []byte("RIFFdata"), ContentType: "audio/wav"}}
	runner := generation.NewRunner(db, store, infer, nil, time.Second)

	h := New(Options{
		DB:     db,
		Store:  store,
		Runner: runner,
		Warner: middleware.NewThrottleWarner("3-M"),
		Cache:  cache.NewLocalCache(cache.LocalConfig{}),
	})

	router := gin.New()
	h.Register(router, "/api")
	return &testEnv{router: router, db: db, store: store, infer: infer}
}

var idemSeq int

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	idemSeq++
	req.Header.Set("Idempotency-Key", fmt.Sprintf("test-key-%d", idemSeq))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func pollUntilDone(t *testing.T, e *testEnv, jobID string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w := e.do(http.MethodGet, "/api/generate/"+jobID+"/status", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var status map[string]interface{}
		decode(t, w, &status)
		if status["success"] == false || status["audioUrl"] != nil {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never finished")
	return nil
}

func TestGenerateSpeechEndToEnd(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/generate/speech", gin.H{"text": "hello there", "voiceId": "woman"})
	require.Equal(t, http.StatusOK, w.Code)

	var submitted struct {
		JobID     string `json:"jobId"`
		Throttled bool   `json:"throttled"`
	}
	decode(t, w, &submitted)
	require.NotEmpty(t, submitted.JobID)
	assert.False(t, submitted.Throttled)

	status := pollUntilDone(t, e, submitted.JobID)
	assert.Equal(t, true, status["success"])
	url, _ := status["audioUrl"].(string)
	assert.True(t, strings.HasPrefix(url, "https://cdn.test/styletts2-outputs/"), url)

	// the finished clip shows up in history
	hw := e.do(http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, hw.Code)
	var entries []models.HistoryEntry
	decode(t, hw, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello there", entries[0].Title)
	assert.NotEmpty(t, entries[0].AudioURL)
}

func TestGenerateSpeechRejectsBadText(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/generate/speech", gin.H{"text": "", "voiceId": "woman"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	long := strings.Repeat("a", generation.MaxTextLength+1)
	w = e.do(http.MethodPost, "/api/generate/speech", gin.H{"text": long, "voiceId": "woman"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateSpeechFailureReportsStatus(t *testing.T) {
	e := newTestEnv(t)
	e.infer.Err = fmt.Errorf("model unavailable")
	e.infer.Response = inference.Result{}

	w := e.do(http.MethodPost, "/api/generate/speech", gin.H{"text": "hello", "voiceId": "woman"})
	require.Equal(t, http.StatusOK, w.Code)
	var submitted struct {
		JobID string `json:"jobId"`
	}
	decode(t, w, &submitted)

	status := pollUntilDone(t, e, submitted.JobID)
	assert.Equal(t, false, status["success"])
	assert.Nil(t, status["audioUrl"])
}

func TestVoiceConversionRequiresExistingUpload(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/generate/voice-conversion", gin.H{"voiceId": "trump"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/generate/voice-conversion",
		gin.H{"objectKey": "voice-conversion-uploads/missing.wav", "voiceId": "trump"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	key := "voice-conversion-uploads/take1.wav"
	require.NoError(t, e.store.Write(context.Background(), key, bytes.NewReader([]byte("RIFF")), 4, "audio/wav"))

	w = e.do(http.MethodPost, "/api/generate/voice-conversion", gin.H{"objectKey": key, "voiceId": "trump"})
	require.Equal(t, http.StatusOK, w.Code)

	var submitted struct {
		JobID string `json:"jobId"`
	}
	decode(t, w, &submitted)
	status := pollUntilDone(t, e, submitted.JobID)
	assert.Equal(t, true, status["success"])

	calls := e.infer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, models.ServiceSeedVC, calls[0].Service)
	assert.Equal(t, key, calls[0].SourceKey)
}

func TestUploadEndpoint(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/uploads", gin.H{"fileType": "audio/flac", "fileSize": 1024})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/uploads", gin.H{"fileType": "audio/wav", "fileSize": generation.MaxUploadSize + 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/uploads", gin.H{"fileType": "audio/mp3", "fileSize": 1024})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		UploadURL string `json:"uploadUrl"`
		ObjectKey string `json:"objectKey"`
	}
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.UploadURL)
	assert.True(t, strings.HasPrefix(resp.ObjectKey, "voice-conversion-uploads/"))
	assert.True(t, strings.HasSuffix(resp.ObjectKey, ".mp3"))
}

func TestJobStatusUnknownJob(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/api/generate/no-such-job/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteHistory(t *testing.T) {
	e := newTestEnv(t)

	key := "styletts2-outputs/clip.wav"
	require.NoError(t, e.store.Write(context.Background(), key, bytes.NewReader([]byte("RIFF")), 4, "audio/wav"))
	clip := models.GeneratedClip{ID: "clip-1", Title: "hello", Service: models.ServiceStyleTTS2, ObjectKey: key}
	require.NoError(t, e.db.Create(&clip).Error)

	w := e.do(http.MethodDelete, "/api/history/clip-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]bool
	decode(t, w, &resp)
	assert.True(t, resp["success"])

	exists, err := e.store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, exists)

	// already gone: refused, caller rolls back
	w = e.do(http.MethodDelete, "/api/history/clip-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.False(t, resp["success"])
}

func TestListVoices(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodGet, "/api/voices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	decode(t, w, &list)
	assert.Len(t, list, 2)

	w = e.do(http.MethodGet, "/api/voices?service=seed-vc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Len(t, list, 3)

	w = e.do(http.MethodGet, "/api/voices?service=unknown", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitThrottleFlag(t *testing.T) {
	e := newTestEnv(t)

	throttled := false
	for i := 0; i < 6; i++ {
		w := e.do(http.MethodPost, "/api/generate/sound-effect", gin.H{"text": fmt.Sprintf("rain %d", i)})
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Throttled bool `json:"throttled"`
		}
		decode(t, w, &resp)
		if i == 0 {
			assert.False(t, resp.Throttled)
		}
		throttled = resp.Throttled
	}
	// past the advisory rate, requests still land but carry the flag
	assert.True(t, throttled)
}

func TestDuplicateSubmissionRejected(t *testing.T) {
	e := newTestEnv(t)

	body := gin.H{"text": "once only", "voiceId": "woman"}
	buf, _ := json.Marshal(body)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/generate/speech", bytes.NewReader(buf))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "fixed-key")
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusConflict, send().Code)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/api/system/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
