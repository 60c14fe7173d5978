package config

// Default backend and threshold values.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"

	DefaultThreshold   = 0.20
	DefaultMinQuality  = 0.5
	DefaultMinAxis     = 0.5
	DefaultDriftNorm   = 0.4
	DefaultLLMTimeout  = 60
	DefaultLLMBaseURL  = "https://api.openai.com/v1"
	DefaultLLMModel    = "gpt-4o-mini"
	defaultStateDir    = "data/state"
	defaultIncomingDir = "data/reports_incoming"
	defaultOutputDir   = "data/analysis_output"
	defaultArchiveDir  = "data/chronicle/archive"
)

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	return &Config{
		Paths: Paths{
			StateDir:    defaultStateDir,
			IncomingDir: defaultIncomingDir,
			OutputDir:   defaultOutputDir,
			ArchiveDir:  defaultArchiveDir,
		},
		Store: Store{Backend: BackendSQLite},
		Drift: Drift{Thresholds: []float64{DefaultThreshold, DefaultThreshold, DefaultThreshold, DefaultThreshold}},
		Eval: Eval{
			MinQuality:   DefaultMinQuality,
			MinAxis:      DefaultMinAxis,
			MaxDriftNorm: DefaultDriftNorm,
		},
		Logging: Logging{
			Level:  "info",
			Format: "auto",
		},
		LLM: LLM{
			BaseURL:        DefaultLLMBaseURL,
			Model:          DefaultLLMModel,
			TimeoutSeconds: DefaultLLMTimeout,
		},
	}
}
