package container

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Database: config.DatabaseConfig{
			Path:         filepath.Join(dir, "db", "quotes.db"),
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Storage: config.StorageConfig{BaseDir: filepath.Join(dir, "blobs")},
		AI:      config.AIConfig{Provider: config.ProviderNone},
		Validation: config.ValidationConfig{
			MathTolerance:      0.01,
			MaxDiscountPercent: 30,
			DefaultTaxRate:     0.1,
			DefaultCurrency:    "KRW",
			PersistRetries:     3,
			MaxUploadMB:        10,
		},
		Worker: config.WorkerConfig{
			Enabled:      true,
			PollInterval: time.Hour,
			BatchSize:    5,
			Concurrency:  2,
		},
	}
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(t), nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.AI.Provider = "claude"
	_, err = NewContainer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()), "second start")

	require.NotNil(t, c.Services())
	assert.NotNil(t, c.Services().Validation)
	assert.NotNil(t, c.Services().Templates)
	assert.NotNil(t, c.Services().Submission)
	assert.NotNil(t, c.BlobStore())
	assert.False(t, c.Reviewer().Available())

	health := c.Health(context.Background())
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)
	assert.True(t, health.Components["workers"].Healthy)
	assert.Equal(t, "disabled", health.Components["ai_review"].Message)

	ok, components := c.HTTPHealth(context.Background())
	assert.True(t, ok)
	assert.Contains(t, components, "worker_stats")

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close(), "second close")
	assert.Error(t, c.Start(context.Background()), "start after close")
}

func TestContainer_WorkerDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Worker.Enabled = false

	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	assert.Equal(t, 0, c.Workers().GetWorkerCount())
	health := c.Health(context.Background())
	assert.True(t, health.Overall)
	assert.Equal(t, "disabled", health.Components["workers"].Message)
}

func TestContainer_OpenAIWithoutKeyDegrades(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.Provider = config.ProviderOpenAI
	cfg.AI.Temperature = 0.5
	cfg.Worker.Enabled = false

	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	assert.False(t, c.Reviewer().Available())
}

func TestContainer_BadPromptsPathFailsStart(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.PromptsPath = filepath.Join(t.TempDir(), "missing.yaml")
	cfg.Worker.Enabled = false

	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	err = c.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI reviewer")
	assert.False(t, c.Ready())
}

func TestProvideReviewer_ConfigOverridesPrompts(t *testing.T) {
	r, err := ProvideReviewer(nil, &config.AIConfig{Temperature: 0.7, MaxTokens: 512}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, r.Available())
}
