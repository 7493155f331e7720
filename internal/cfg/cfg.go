package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"

	"kernelpipe/internal/common"
	"kernelpipe/internal/ml/embed"
	"kernelpipe/internal/ml/kernel"
	"kernelpipe/internal/ml/svm"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	TrainPath           string
	TestPath            string
	LabelPath           string
	EmbedPath           string
	SamplesAsColumns    bool
	KernelWidth         float64
	KernelCacheSize     int
	C                   float64
	Epsilon             float64
	MaxIterations       int
	EmbedDim            int
	EmbedNeighbors      int
	EmbedRegularization float64
	Workers             int
	LogLevel            string
}

type ConfigFile struct {
	Data struct {
		Train            string `yaml:"train"`
		Test             string `yaml:"test"`
		Labels           string `yaml:"labels"`
		Embed            string `yaml:"embed"`
		SamplesAsColumns bool   `yaml:"samplesAsColumns"`
	} `yaml:"data"`

	Kernel struct {
		Width     float64 `yaml:"width"`
		CacheSize int     `yaml:"cacheSize"`
	} `yaml:"kernel"`

	SVM struct {
		C             float64 `yaml:"c"`
		Epsilon       float64 `yaml:"epsilon"`
		MaxIterations int     `yaml:"maxIterations"`
	} `yaml:"svm"`

	Embedding struct {
		TargetDim      int     `yaml:"targetDim"`
		Neighbors      int     `yaml:"neighbors"`
		Regularization float64 `yaml:"regularization"`
	} `yaml:"embedding"`

	System struct {
		Workers  int    `yaml:"workers"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load reads settings from the YAML file named by CONFIG_FILE, or from environment
// variables when it is unset. A .env file (or the one named by ENV_FILE) is loaded
// first; it never overrides variables that are already set.
func Load() (Settings, error) {
	loadEnvFile()

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

func loadEnvFile() {
	path := getEnvOrDefault(common.EnvEnvFile, common.DefaultEnvFile)
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("file", path).Msg("Failed to load environment file")
		}
		return
	}
	log.Debug().Str("file", path).Msg("Environment file loaded")
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, common.NewIOError(path, err))
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	trainPath := getEnvOrDefault(common.EnvTrainPath, orDefault(config.Data.Train, common.DefaultTrainPath))
	settings := Settings{
		TrainPath:           trainPath,
		TestPath:            getEnvOrDefault(common.EnvTestPath, orDefault(config.Data.Test, common.DefaultTestPath)),
		LabelPath:           getEnvOrDefault(common.EnvLabelPath, orDefault(config.Data.Labels, common.DefaultLabelPath)),
		EmbedPath:           getEnvOrDefault(common.EnvEmbedPath, orDefault(config.Data.Embed, trainPath)),
		SamplesAsColumns:    getBoolFromEnvOrConfig(common.EnvSamplesAsColumns, config.Data.SamplesAsColumns),
		KernelWidth:         getFloatFromEnvOrConfig(common.EnvKernelWidth, config.Kernel.Width, common.DefaultKernelWidth),
		KernelCacheSize:     getIntFromEnvOrConfig(common.EnvKernelCacheSize, config.Kernel.CacheSize, common.DefaultKernelCacheSize),
		C:                   getFloatFromEnvOrConfig(common.EnvSVMC, config.SVM.C, common.DefaultSVMC),
		Epsilon:             getFloatFromEnvOrConfig(common.EnvSVMEpsilon, config.SVM.Epsilon, common.DefaultSVMEpsilon),
		MaxIterations:       getIntFromEnvOrConfig(common.EnvSVMMaxIterations, config.SVM.MaxIterations, common.DefaultSVMMaxIterations),
		EmbedDim:            getIntFromEnvOrConfig(common.EnvEmbedDim, config.Embedding.TargetDim, common.DefaultEmbedDim),
		EmbedNeighbors:      getIntFromEnvOrConfig(common.EnvEmbedNeighbors, config.Embedding.Neighbors, common.DefaultEmbedNeighbors),
		EmbedRegularization: getFloatFromEnvOrConfig(common.EnvEmbedRegularization, config.Embedding.Regularization, common.DefaultEmbedRegularization),
		Workers:             getIntFromEnvOrConfig(common.EnvWorkers, config.System.Workers, common.DefaultWorkers),
		LogLevel:            getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	trainPath := getEnvOrDefault(common.EnvTrainPath, common.DefaultTrainPath)
	settings := Settings{
		TrainPath:           trainPath,
		TestPath:            getEnvOrDefault(common.EnvTestPath, common.DefaultTestPath),
		LabelPath:           getEnvOrDefault(common.EnvLabelPath, common.DefaultLabelPath),
		EmbedPath:           getEnvOrDefault(common.EnvEmbedPath, trainPath),
		SamplesAsColumns:    getBoolOrDefault(common.EnvSamplesAsColumns, false),
		KernelWidth:         getFloatOrDefault(common.EnvKernelWidth, common.DefaultKernelWidth),
		KernelCacheSize:     getIntOrDefault(common.EnvKernelCacheSize, common.DefaultKernelCacheSize),
		C:                   getFloatOrDefault(common.EnvSVMC, common.DefaultSVMC),
		Epsilon:             getFloatOrDefault(common.EnvSVMEpsilon, common.DefaultSVMEpsilon),
		MaxIterations:       getIntOrDefault(common.EnvSVMMaxIterations, common.DefaultSVMMaxIterations),
		EmbedDim:            getIntOrDefault(common.EnvEmbedDim, common.DefaultEmbedDim),
		EmbedNeighbors:      getIntOrDefault(common.EnvEmbedNeighbors, common.DefaultEmbedNeighbors),
		EmbedRegularization: getFloatOrDefault(common.EnvEmbedRegularization, common.DefaultEmbedRegularization),
		Workers:             getIntOrDefault(common.EnvWorkers, common.DefaultWorkers),
		LogLevel:            getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// Default returns the built-in settings without consulting the environment.
func Default() Settings {
	return Settings{
		TrainPath:           common.DefaultTrainPath,
		TestPath:            common.DefaultTestPath,
		LabelPath:           common.DefaultLabelPath,
		EmbedPath:           common.DefaultTrainPath,
		KernelWidth:         common.DefaultKernelWidth,
		KernelCacheSize:     common.DefaultKernelCacheSize,
		C:                   common.DefaultSVMC,
		Epsilon:             common.DefaultSVMEpsilon,
		MaxIterations:       common.DefaultSVMMaxIterations,
		EmbedDim:            common.DefaultEmbedDim,
		EmbedNeighbors:      common.DefaultEmbedNeighbors,
		EmbedRegularization: common.DefaultEmbedRegularization,
		Workers:             common.DefaultWorkers,
		LogLevel:            common.DefaultLogLevel,
	}
}

// KernelConfig returns the Gaussian kernel parameters.
func (s *Settings) KernelConfig() kernel.Config {
	return kernel.Config{Width: s.KernelWidth}
}

// TrainerConfig returns the SVM optimizer parameters.
func (s *Settings) TrainerConfig() svm.TrainerConfig {
	return svm.TrainerConfig{
		C:             s.C,
		Epsilon:       s.Epsilon,
		MaxIterations: s.MaxIterations,
		CacheSize:     s.KernelCacheSize,
	}
}

// EmbedConfig returns the locally linear embedding parameters.
func (s *Settings) EmbedConfig() embed.Config {
	return embed.Config{
		TargetDim:      s.EmbedDim,
		Neighbors:      s.EmbedNeighbors,
		Regularization: s.EmbedRegularization,
	}
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	// Validate paths
	if settings.TrainPath == "" {
		return common.NewParameterError("train path", settings.TrainPath, "cannot be empty")
	}
	if settings.TestPath == "" {
		return common.NewParameterError("test path", settings.TestPath, "cannot be empty")
	}
	if settings.LabelPath == "" {
		return common.NewParameterError("label path", settings.LabelPath, "cannot be empty")
	}
	if settings.EmbedPath == "" {
		return common.NewParameterError("embed path", settings.EmbedPath, "cannot be empty")
	}

	// Validate kernel parameters
	if !positiveFinite(settings.KernelWidth) {
		return common.NewParameterError("kernel width", settings.KernelWidth, "must be a finite value > 0")
	}
	if settings.KernelCacheSize < 0 || settings.KernelCacheSize > common.MaxKernelCacheSize {
		return common.NewParameterError("kernel cache size", settings.KernelCacheSize,
			fmt.Sprintf("must be between 0 and %d", common.MaxKernelCacheSize))
	}

	// Validate optimizer parameters
	if !positiveFinite(settings.C) {
		return common.NewParameterError("C", settings.C, "must be a finite value > 0")
	}
	if !positiveFinite(settings.Epsilon) {
		return common.NewParameterError("epsilon", settings.Epsilon, "must be a finite value > 0")
	}
	if settings.MaxIterations <= 0 || settings.MaxIterations > common.MaxSVMMaxIterations {
		return common.NewParameterError("max iterations", settings.MaxIterations,
			fmt.Sprintf("must be between 1 and %d", common.MaxSVMMaxIterations))
	}

	// Validate embedding parameters; the bounds that depend on the data are checked at fit time
	if settings.EmbedDim <= 0 {
		return common.NewParameterError("embedding dimension", settings.EmbedDim, "must be > 0")
	}
	if settings.EmbedNeighbors <= 0 {
		return common.NewParameterError("embedding neighbors", settings.EmbedNeighbors, "must be > 0")
	}
	if !positiveFinite(settings.EmbedRegularization) {
		return common.NewParameterError("embedding regularization", settings.EmbedRegularization, "must be a finite value > 0")
	}

	// Validate system parameters
	if settings.Workers <= 0 || settings.Workers > common.MaxWorkers {
		return common.NewParameterError("workers", settings.Workers,
			fmt.Sprintf("must be between 1 and %d", common.MaxWorkers))
	}
	if _, err := zerolog.ParseLevel(settings.LogLevel); err != nil {
		return common.NewParameterError("log level", settings.LogLevel, err.Error())
	}

	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
