package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/r0cstar09/jobtailor/internal/notify"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobtailor"
)

type Config struct {
	Feed         *FeedConfig    `mapstructure:"feed"`
	MasterResume string         `mapstructure:"master-resume"`
	Threshold    float64        `mapstructure:"threshold"`
	OutputDir    string         `mapstructure:"output-dir"`
	Concurrency  int            `mapstructure:"concurrency"`
	RateLimit    float64        `mapstructure:"rate-limit"`
	Scoring      *ScoringConfig `mapstructure:"scoring"`
	AI           *AIConfig      `mapstructure:"ai"`
	Prompts      *PromptsConfig `mapstructure:"prompts"`
	Notify       *NotifyConfig  `mapstructure:"notify"`
}

type FeedConfig struct {
	URL string `mapstructure:"url"`
}

type ScoringConfig struct {
	Strategy string `mapstructure:"strategy"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey         string        `mapstructure:"api-key"`
	APIKeyFile     string        `mapstructure:"api-key-file"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding-model"`
	MaxRetries     int           `mapstructure:"max-retries"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxLogLength   int           `mapstructure:"max-log-length"`
}

type PromptsConfig struct {
	Resume      string `mapstructure:"resume"`
	CoverLetter string `mapstructure:"cover-letter"`
}

type NotifyConfig struct {
	Enabled bool               `mapstructure:"enabled"`
	SMTP    *notify.SMTPConfig `mapstructure:"smtp"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobtailor scores job postings from an RSS feed against your resume and writes tailored application documents",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobtailor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("threshold", 0.7)
	viper.SetDefault("output-dir", "applications")
	viper.SetDefault("concurrency", 1)
	viper.SetDefault("scoring.strategy", "llm")
	viper.SetDefault("ai.provider", "gemini")
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// SetConfigName wants the base name; viper appends the extension.
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// Flags and environment variables can carry a whole run, so a missing
	// default config file is fine. An explicit --config file must exist, and
	// a file that fails to parse is always fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	// Sections absent from the config file come back as nil pointers.
	if config.Feed == nil {
		config.Feed = &FeedConfig{}
	}
	if config.Scoring == nil {
		config.Scoring = &ScoringConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Prompts == nil {
		config.Prompts = &PromptsConfig{}
	}
	if config.Notify == nil {
		config.Notify = &NotifyConfig{}
	}
	if config.Notify.SMTP == nil {
		config.Notify.SMTP = &notify.SMTPConfig{}
	}

	return config, nil
}
