package cfg

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kernelpipe/internal/common"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.TrainPath != "data/fm_train_real.dat" {
					t.Errorf("expected default TrainPath, got %s", settings.TrainPath)
				}
				if settings.EmbedPath != settings.TrainPath {
					t.Errorf("expected EmbedPath to default to TrainPath, got %s", settings.EmbedPath)
				}
				if settings.KernelWidth != 2.1 {
					t.Errorf("expected default KernelWidth 2.1, got %f", settings.KernelWidth)
				}
				if settings.C != 1.0 {
					t.Errorf("expected default C 1.0, got %f", settings.C)
				}
				if settings.Epsilon != 1e-5 {
					t.Errorf("expected default Epsilon 1e-5, got %g", settings.Epsilon)
				}
				if settings.EmbedDim != 2 {
					t.Errorf("expected default EmbedDim 2, got %d", settings.EmbedDim)
				}
				if settings.SamplesAsColumns {
					t.Error("expected SamplesAsColumns to default to false")
				}
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				"TRAIN_PATH":           "/tmp/train.dat",
				"EMBED_PATH":           "/tmp/embed.dat",
				"SAMPLES_AS_COLUMNS":   "true",
				"KERNEL_WIDTH":         "0.5",
				"KERNEL_CACHE_SIZE":    "0",
				"SVM_C":                "10",
				"SVM_EPSILON":          "1e-3",
				"SVM_MAX_ITERATIONS":   "500",
				"EMBED_DIM":            "3",
				"EMBED_NEIGHBORS":      "8",
				"EMBED_REGULARIZATION": "0.01",
				"WORKERS":              "2",
				"LOG_LEVEL":            "debug",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, "/tmp/train.dat", settings.TrainPath)
				assert.Equal(t, "/tmp/embed.dat", settings.EmbedPath)
				assert.True(t, settings.SamplesAsColumns)
				assert.Equal(t, 0.5, settings.KernelWidth)
				assert.Equal(t, 0, settings.KernelCacheSize)
				assert.Equal(t, 10.0, settings.C)
				assert.Equal(t, 1e-3, settings.Epsilon)
				assert.Equal(t, 500, settings.MaxIterations)
				assert.Equal(t, 3, settings.EmbedDim)
				assert.Equal(t, 8, settings.EmbedNeighbors)
				assert.Equal(t, 0.01, settings.EmbedRegularization)
				assert.Equal(t, 2, settings.Workers)
				assert.Equal(t, "debug", settings.LogLevel)
			},
		},
		{
			name: "unparseable number falls back to default",
			envVars: map[string]string{
				"SVM_C": "lots",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.C != 1.0 {
					t.Errorf("expected default C 1.0, got %f", settings.C)
				}
			},
		},
		{
			name: "non-positive kernel width",
			envVars: map[string]string{
				"KERNEL_WIDTH": "0",
			},
			wantErr: true,
		},
		{
			name: "negative epsilon",
			envVars: map[string]string{
				"SVM_EPSILON": "-1e-5",
			},
			wantErr: true,
		},
		{
			name: "too many workers",
			envVars: map[string]string{
				"WORKERS": "1000",
			},
			wantErr: true,
		},
		{
			name: "unknown log level",
			envVars: map[string]string{
				"LOG_LEVEL": "loud",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name        string
		yamlContent string
		envVars     map[string]string
		wantErr     bool
		validate    func(t *testing.T, settings Settings)
	}{
		{
			name: "full config",
			yamlContent: `
data:
  train: "train.dat"
  test: "test.dat"
  labels: "labels.dat"
  embed: "embed.dat"
  samplesAsColumns: true
kernel:
  width: 1.5
  cacheSize: 50
svm:
  c: 2.0
  epsilon: 0.001
  maxIterations: 2000
embedding:
  targetDim: 3
  neighbors: 7
  regularization: 0.005
system:
  workers: 8
  logLevel: "warn"
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, "train.dat", settings.TrainPath)
				assert.Equal(t, "test.dat", settings.TestPath)
				assert.Equal(t, "labels.dat", settings.LabelPath)
				assert.Equal(t, "embed.dat", settings.EmbedPath)
				assert.True(t, settings.SamplesAsColumns)
				assert.Equal(t, 1.5, settings.KernelWidth)
				assert.Equal(t, 50, settings.KernelCacheSize)
				assert.Equal(t, 2.0, settings.C)
				assert.Equal(t, 0.001, settings.Epsilon)
				assert.Equal(t, 2000, settings.MaxIterations)
				assert.Equal(t, 3, settings.EmbedDim)
				assert.Equal(t, 7, settings.EmbedNeighbors)
				assert.Equal(t, 0.005, settings.EmbedRegularization)
				assert.Equal(t, 8, settings.Workers)
				assert.Equal(t, "warn", settings.LogLevel)
			},
		},
		{
			name: "partial config uses defaults",
			yamlContent: `
data:
  train: "only-train.dat"
svm:
  c: 5
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, "only-train.dat", settings.TrainPath)
				assert.Equal(t, "only-train.dat", settings.EmbedPath)
				assert.Equal(t, common.DefaultTestPath, settings.TestPath)
				assert.Equal(t, 5.0, settings.C)
				assert.Equal(t, common.DefaultKernelWidth, settings.KernelWidth)
				assert.Equal(t, common.DefaultWorkers, settings.Workers)
			},
		},
		{
			name: "env overrides config",
			yamlContent: `
kernel:
  width: 1.5
svm:
  maxIterations: 2000
`,
			envVars: map[string]string{
				"KERNEL_WIDTH":       "3.0",
				"SAMPLES_AS_COLUMNS": "true",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, 3.0, settings.KernelWidth)
				assert.Equal(t, 2000, settings.MaxIterations)
				assert.True(t, settings.SamplesAsColumns)
			},
		},
		{
			name: "invalid config values",
			yamlContent: `
svm:
  c: -1
`,
			wantErr: true,
		},
		{
			name:        "invalid yaml",
			yamlContent: "svm: [unclosed",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.yamlContent), 0o644); err != nil {
				t.Fatalf("failed to write test config file: %v", err)
			}

			settings, err := loadFromYAML(configPath)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	clearTestEnv(t)

	_, err := loadFromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrIO))
}

func TestLoad(t *testing.T) {
	t.Run("load from env when no config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("SVM_C", "4")

		settings, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 4.0, settings.C)
	})

	t.Run("load from YAML when config file specified", func(t *testing.T) {
		clearTestEnv(t)

		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("svm:\n  c: 7\n"), 0o644))
		t.Setenv("CONFIG_FILE", configPath)

		settings, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 7.0, settings.C)
	})

	t.Run("validation error is a parameter error", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("EMBED_DIM", "-2")

		_, err := Load()
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrInvalidParameter))
	})

	t.Run("env file fills unset variables", func(t *testing.T) {
		clearTestEnv(t)

		envPath := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(envPath, []byte("SVM_MAX_ITERATIONS=321\nEMBED_NEIGHBORS=6\n"), 0o644))
		t.Setenv("ENV_FILE", envPath)
		t.Setenv("EMBED_NEIGHBORS", "9")
		// godotenv only fills variables that are absent, not empty
		unsetForTest(t, "SVM_MAX_ITERATIONS")

		settings, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 321, settings.MaxIterations)
		assert.Equal(t, 9, settings.EmbedNeighbors)
	})
}

func TestSettings_SubConfigs(t *testing.T) {
	settings := Default()
	settings.KernelCacheSize = 12

	kc := settings.KernelConfig()
	assert.Equal(t, settings.KernelWidth, kc.Width)

	tc := settings.TrainerConfig()
	assert.Equal(t, settings.C, tc.C)
	assert.Equal(t, settings.Epsilon, tc.Epsilon)
	assert.Equal(t, settings.MaxIterations, tc.MaxIterations)
	assert.Equal(t, 12, tc.CacheSize)

	ec := settings.EmbedConfig()
	assert.Equal(t, settings.EmbedDim, ec.TargetDim)
	assert.Equal(t, settings.EmbedNeighbors, ec.Neighbors)
	assert.Equal(t, settings.EmbedRegularization, ec.Regularization)
}

func TestConfigureLogging(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	ConfigureLogging("warn", false)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	ConfigureLogging("", false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	ConfigureLogging("nonsense", false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

// clearTestEnv clears potentially conflicting environment variables
func clearTestEnv(t *testing.T) {
	envVars := []string{
		"CONFIG_FILE", "ENV_FILE", "TRAIN_PATH", "TEST_PATH", "LABEL_PATH", "EMBED_PATH",
		"SAMPLES_AS_COLUMNS", "KERNEL_WIDTH", "KERNEL_CACHE_SIZE", "SVM_C", "SVM_EPSILON",
		"SVM_MAX_ITERATIONS", "EMBED_DIM", "EMBED_NEIGHBORS", "EMBED_REGULARIZATION",
		"WORKERS", "LOG_LEVEL",
	}

	for _, env := range envVars {
		if val := os.Getenv(env); val != "" {
			t.Setenv(env, "")
		}
	}
}

// unsetForTest removes key for the duration of the test and restores it afterwards.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}
