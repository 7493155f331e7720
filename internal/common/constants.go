package common

// Environment variable keys
const (
	EnvConfigFile          = "CONFIG_FILE"
	EnvEnvFile             = "ENV_FILE"
	EnvTrainPath           = "TRAIN_PATH"
	EnvTestPath            = "TEST_PATH"
	EnvLabelPath           = "LABEL_PATH"
	EnvEmbedPath           = "EMBED_PATH"
	EnvSamplesAsColumns    = "SAMPLES_AS_COLUMNS"
	EnvKernelWidth         = "KERNEL_WIDTH"
	EnvKernelCacheSize     = "KERNEL_CACHE_SIZE"
	EnvSVMC                = "SVM_C"
	EnvSVMEpsilon          = "SVM_EPSILON"
	EnvSVMMaxIterations    = "SVM_MAX_ITERATIONS"
	EnvEmbedDim            = "EMBED_DIM"
	EnvEmbedNeighbors      = "EMBED_NEIGHBORS"
	EnvEmbedRegularization = "EMBED_REGULARIZATION"
	EnvWorkers             = "WORKERS"
	EnvLogLevel            = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultEnvFile             = ".env"
	DefaultTrainPath           = "data/fm_train_real.dat"
	DefaultTestPath            = "data/fm_test_real.dat"
	DefaultLabelPath           = "data/label_train_twoclass.dat"
	DefaultKernelWidth         = 2.1
	DefaultKernelCacheSize     = 100 // kernel rows
	DefaultSVMC                = 1.0
	DefaultSVMEpsilon          = 1e-5
	DefaultSVMMaxIterations    = 10000
	DefaultEmbedDim            = 2
	DefaultEmbedNeighbors      = 5
	DefaultEmbedRegularization = 1e-3
	DefaultWorkers             = 4
	DefaultLogLevel            = "info"
)

// Validation constants
const (
	MaxSVMMaxIterations = 10_000_000
	MaxKernelCacheSize  = 1 << 20
	MaxWorkers          = 256
)
