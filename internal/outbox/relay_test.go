package outbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-extractor/internal/config"
	"resume-extractor/internal/storage"
	"resume-extractor/internal/storage/models"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (p *recordingPublisher) PublishMessage(_ context.Context, _, routingKey string, message []byte, _ bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, routingKey+"|"+string(message))
	return nil
}

func TestNewMessageRelay_Options(t *testing.T) {
	r := NewMessageRelay(nil, &recordingPublisher{})
	assert.Equal(t, defaultPollingInterval, r.pollingInterval)
	assert.Equal(t, defaultBatchSize, r.batchSize)

	r = NewMessageRelay(nil, &recordingPublisher{}, WithPollingInterval(time.Second), WithBatchSize(3))
	assert.Equal(t, time.Second, r.pollingInterval)
	assert.Equal(t, 3, r.batchSize)

	// 非法值保持默认
	r = NewMessageRelay(nil, &recordingPublisher{}, WithPollingInterval(0), WithBatchSize(-1))
	assert.Equal(t, defaultPollingInterval, r.pollingInterval)
	assert.Equal(t, defaultBatchSize, r.batchSize)
}

func TestMessageRelay_StopIsIdempotent(t *testing.T) {
	r := NewMessageRelay(nil, &recordingPublisher{}, WithPollingInterval(time.Hour))
	r.Start()
	r.Stop()
	r.Stop()
}

// 需要可用的 MySQL：MYSQL_TEST_HOST=localhost MYSQL_TEST_PASSWORD=... go test ./internal/outbox/...
func newTestMySQL(t *testing.T) *storage.MySQL {
	t.Helper()
	host := os.Getenv("MYSQL_TEST_HOST")
	if host == "" {
		t.Skip("MYSQL_TEST_HOST 未设置，跳过 outbox 集成测试")
	}
	port, _ := strconv.Atoi(os.Getenv("MYSQL_TEST_PORT"))
	if port == 0 {
		port = 3306
	}
	db, err := storage.NewMySQL(&config.MySQLConfig{
		Host:     host,
		Port:     port,
		Username: envOr("MYSQL_TEST_USER", "root"),
		Password: os.Getenv("MYSQL_TEST_PASSWORD"),
		Database: envOr("MYSQL_TEST_DATABASE", "resume_extractor_test"),
	}, storage.OutboxTarget{Exchange: "resume.events", RoutingKey: "candidate.extracted"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func insertPending(t *testing.T, db *storage.MySQL, aggregateID string) *models.OutboxMessage {
	t.Helper()
	msg := &models.OutboxMessage{
		AggregateID:      aggregateID,
		EventType:        "candidate.extracted",
		Payload:          fmt.Sprintf(`{"candidate_id":%q}`, aggregateID),
		TargetExchange:   "resume.events",
		TargetRoutingKey: "candidate.extracted",
		Status:           models.OutboxStatusPending,
	}
	require.NoError(t, db.DB().Create(msg).Error)
	t.Cleanup(func() { db.DB().Delete(&models.OutboxMessage{}, msg.ID) })
	return msg
}

func TestProcessOnce_PublishesAndMarksSent(t *testing.T) {
	db := newTestMySQL(t)
	msg := insertPending(t, db, fmt.Sprintf("agg-%d", time.Now().UnixNano()))

	pub := &recordingPublisher{}
	r := NewMessageRelay(db.DB(), pub, WithBatchSize(100))
	n, err := r.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	var got models.OutboxMessage
	require.NoError(t, db.DB().First(&got, msg.ID).Error)
	assert.Equal(t, models.OutboxStatusSent, got.Status)
	assert.NotNil(t, got.ProcessedAt)
}

func TestProcessOnce_FailureCountsRetries(t *testing.T) {
	db := newTestMySQL(t)
	msg := insertPending(t, db, fmt.Sprintf("agg-%d", time.Now().UnixNano()))

	r := NewMessageRelay(db.DB(), &recordingPublisher{fail: true}, WithBatchSize(100))
	for i := 0; i < maxRetryCount; i++ {
		_, err := r.ProcessOnce(context.Background())
		require.NoError(t, err)
	}

	var got models.OutboxMessage
	require.NoError(t, db.DB().First(&got, msg.ID).Error)
	assert.Equal(t, models.OutboxStatusFailed, got.Status)
	assert.Equal(t, maxRetryCount, got.RetryCount)
}
