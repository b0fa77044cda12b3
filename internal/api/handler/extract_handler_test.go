package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-extractor/internal/api/handler"
	"resume-extractor/internal/api/router"
	"resume-extractor/internal/config"
	"resume-extractor/internal/parser"
	"resume-extractor/internal/processor"
	"resume-extractor/internal/storage"
	"resume-extractor/internal/storage/models"
	"resume-extractor/internal/types"
)

const sampleResume = "Jane Doe\njane.doe@acme.io\n(555) 123-4567\n\nSkills: Docker, Kubernetes, PostgreSQL"

// 内存实现的对象存储、队列、去重和档案存储，只记录调用
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memObjects) UploadResume(_ context.Context, resumeID, fileExt string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := storage.ResumeObjectName(resumeID, fileExt)
	m.objects[name] = data
	return name, nil
}

func (m *memObjects) DownloadResume(_ context.Context, objectName string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[objectName]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func (m *memObjects) UploadParsedText(_ context.Context, resumeID, _ string) (string, error) {
	return storage.ParsedTextObjectName(resumeID), nil
}

func (m *memObjects) DeleteResume(_ context.Context, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectName)
	return nil
}

func (m *memObjects) PresignedResumeURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "http://minio.local/" + objectName, nil
}

type memQueue struct {
	mu        sync.Mutex
	published []any
}

func (q *memQueue) PublishJSON(_ context.Context, _, _ string, data any, _ bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, data)
	return nil
}

type memDedup struct {
	mu   sync.Mutex
	md5s map[string]string
}

func (d *memDedup) CheckAndAddFileMD5(_ context.Context, md5Hex, resumeID string) (bool, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.md5s[md5Hex]; ok {
		return true, id, nil
	}
	d.md5s[md5Hex] = resumeID
	return false, "", nil
}

func (d *memDedup) RemoveFileMD5(_ context.Context, md5Hex string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.md5s, md5Hex)
	return nil
}

type memStore struct {
	mu         sync.Mutex
	resumes    map[string]*models.Resume
	candidates map[string]*models.Candidate
}

func newMemStore() *memStore {
	return &memStore{resumes: map[string]*models.Resume{}, candidates: map[string]*models.Candidate{}}
}

func (s *memStore) CreateResume(_ context.Context, r *models.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes[r.ResumeID] = r
	return nil
}

func (s *memStore) UpdateResumeStatus(_ context.Context, resumeID, status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.resumes[resumeID]; ok {
		r.ProcessingStatus = status
		r.ErrorMessage = errMsg
	}
	return nil
}

func (s *memStore) SetParsedTextPath(_ context.Context, resumeID, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.resumes[resumeID]; ok {
		r.ParsedTextPathOSS = objectName
	}
	return nil
}

func (s *memStore) GetResume(_ context.Context, resumeID string) (*models.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.resumes[resumeID]; ok {
		return r, nil
	}
	return nil, storage.ErrRecordNotFound
}

func (s *memStore) SaveCandidate(_ context.Context, info *types.ExtractedInfo, resumeID string) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.BuildCandidate(nil, info, resumeID)
	c.CandidateID = "cand-" + resumeID
	s.candidates[c.CandidateID] = c
	return c, nil
}

func (s *memStore) GetCandidate(_ context.Context, candidateID string) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.candidates[candidateID]; ok {
		return c, nil
	}
	return nil, storage.ErrRecordNotFound
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Extractor.MaxInputRunes = 2000
	cfg.RabbitMQ.ResumeExchange = "resume.events"
	cfg.RabbitMQ.UploadedRoutingKey = "resume.uploaded"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...processor.Option) *server.Hertz {
	t.Helper()
	loader, err := parser.NewDocumentLoader(context.Background(), parser.WithMaxFileBytes(4096))
	require.NoError(t, err)

	svc := processor.NewExtractionService(cfg, loader, opts...)
	h := router.NewServer(cfg)
	router.RegisterRoutes(h, cfg, handler.NewExtractHandler(svc))
	return h
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func postFile(t *testing.T, h *server.Hertz, path, filename string, content []byte) *ut.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content)
	return ut.PerformRequest(h.Engine, http.MethodPost, path,
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
}

func postJSON(h *server.Hertz, path string, payload []byte) *ut.ResponseRecorder {
	return ut.PerformRequest(h.Engine, http.MethodPost, path,
		&ut.Body{Body: bytes.NewReader(payload), Len: len(payload)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
}

func decodeError(t *testing.T, w *ut.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, testConfig())

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestExtractText(t *testing.T) {
	h := newTestServer(t, testConfig())

	payload, _ := json.Marshal(handler.ExtractTextRequest{Text: sampleResume})
	w := postJSON(h, "/api/v1/extract", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var info types.ExtractedInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "jane.doe@acme.io", info.Email)
	assert.Contains(t, info.Skills, "Docker")
	assert.Contains(t, info.Text, "Skills: Docker")
}

func TestExtractText_Empty(t *testing.T) {
	h := newTestServer(t, testConfig())

	w := postJSON(h, "/api/v1/extract", []byte(`{"text":"   "}`))
	require.Equal(t, http.StatusOK, w.Code)

	var info types.ExtractedInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, types.EmptyExtractedInfo(), info)
}

func TestExtractText_BadJSON(t *testing.T) {
	h := newTestServer(t, testConfig())

	w := postJSON(h, "/api/v1/extract", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handler.CodeBadRequest, decodeError(t, w).Code)
}

func TestExtractText_TooLong(t *testing.T) {
	cfg := testConfig()
	cfg.Extractor.MaxInputRunes = 10
	h := newTestServer(t, cfg)

	payload, _ := json.Marshal(handler.ExtractTextRequest{Text: sampleResume})
	w := postJSON(h, "/api/v1/extract", payload)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, handler.CodeTextTooLong, decodeError(t, w).Code)
}

func TestExtractFile(t *testing.T) {
	h := newTestServer(t, testConfig())

	w := postFile(t, h, "/api/v1/extract/file", "resume.txt", []byte(sampleResume))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var info types.ExtractedInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "jane.doe@acme.io", info.Email)
}

func TestExtractFile_Errors(t *testing.T) {
	h := newTestServer(t, testConfig())

	cases := []struct {
		name     string
		filename string
		content  []byte
		status   int
		code     string
	}{
		{"不支持的类型", "resume.exe", []byte("MZ"), http.StatusUnsupportedMediaType, handler.CodeUnsupportedType},
		{"超过大小上限", "resume.txt", bytes.Repeat([]byte("a"), 5000), http.StatusRequestEntityTooLarge, handler.CodeFileTooLarge},
		{"空文件", "resume.txt", []byte{}, http.StatusBadRequest, handler.CodeEmptyText},
		{"损坏的 docx", "resume.docx", []byte("not a zip"), http.StatusUnprocessableEntity, handler.CodeDocumentParse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postFile(t, h, "/api/v1/extract/file", tc.filename, tc.content)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.code, decodeError(t, w).Code)
		})
	}
}

func TestExtractFile_MissingFile(t *testing.T) {
	h := newTestServer(t, testConfig())

	w := postJSON(h, "/api/v1/extract/file", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadResume_Inline(t *testing.T) {
	store := newMemStore()
	h := newTestServer(t, testConfig(), processor.WithProfileStore(store))

	w := postFile(t, h, "/api/v1/resumes", "resume.txt", []byte(sampleResume))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result processor.UploadResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "processed", result.Status)
	require.NotNil(t, result.Info)
	assert.Equal(t, "jane.doe@acme.io", result.Info.Email)
	assert.NotEmpty(t, result.CandidateID)

	// 同步处理后可以直接查到候选人和提示词上下文
	w = ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/candidates/"+result.CandidateID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var candidate models.Candidate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &candidate))
	assert.Equal(t, "jane.doe@acme.io", candidate.Email)

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/candidates/"+result.CandidateID+"/prompt-context", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pc types.PromptContext
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pc))
	assert.Contains(t, pc.Skills, "Docker")
	assert.Contains(t, pc.ResumeExcerpt, "jane.doe@acme.io")
}

func TestUploadResume_AsyncAndDuplicate(t *testing.T) {
	objects := &memObjects{objects: map[string][]byte{}}
	queue := &memQueue{}
	dedup := &memDedup{md5s: map[string]string{}}
	store := newMemStore()
	h := newTestServer(t, testConfig(),
		processor.WithObjectStorage(objects),
		processor.WithMessageQueue(queue),
		processor.WithDeduplicator(dedup),
		processor.WithProfileStore(store),
	)

	w := postFile(t, h, "/api/v1/resumes", "resume.txt", []byte(sampleResume))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var result processor.UploadResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "queued", result.Status)
	assert.NotEmpty(t, result.ResumeID)
	assert.Nil(t, result.Info)
	assert.Len(t, queue.published, 1)

	// 查询简历状态，带临时下载链接
	w = ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/resumes/"+result.ResumeID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, models.ResumeStatusQueued, view["status"])
	assert.Contains(t, view["download_url"], result.ResumeID)

	// 同一文件再次上传
	w = postFile(t, h, "/api/v1/resumes", "again.txt", []byte(sampleResume))
	require.Equal(t, http.StatusConflict, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, handler.CodeDuplicate, resp.Code)
	assert.Equal(t, result.ResumeID, resp.ResumeID)
	assert.Len(t, queue.published, 1)
}

func TestNotFoundAndUnavailable(t *testing.T) {
	t.Run("未配置存储", func(t *testing.T) {
		h := newTestServer(t, testConfig())
		w := ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/candidates/abc", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, handler.CodeUnavailable, decodeError(t, w).Code)
	})

	t.Run("记录不存在", func(t *testing.T) {
		h := newTestServer(t, testConfig(), processor.WithProfileStore(newMemStore()))
		for _, path := range []string{
			"/api/v1/candidates/missing",
			"/api/v1/candidates/missing/prompt-context",
			"/api/v1/resumes/missing",
		} {
			w := ut.PerformRequest(h.Engine, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusNotFound, w.Code, path)
			assert.Equal(t, handler.CodeNotFound, decodeError(t, w).Code)
		}
	})
}
