package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Soniya561/LAVAPUNK/internal/catalog"
)

const (
	app = "oppify"
)

// Config is the full application configuration, unmarshalled from the viper
// config file plus environment overrides.
type Config struct {
	Server struct {
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Redis struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"redis"`
	Catalog struct {
		RefreshInterval time.Duration `mapstructure:"refresh-interval"`
		CacheTTL        time.Duration `mapstructure:"cache-ttl"`
	} `mapstructure:"catalog"`
	Filtering struct {
		TrustedSources []string `mapstructure:"trusted-sources"`
		LegacySearch   bool     `mapstructure:"legacy-search"`
	} `mapstructure:"filtering"`
	Recommend struct {
		TopMatches int `mapstructure:"top-matches"`
	} `mapstructure:"recommend"`
	Session struct {
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"session"`
	// Sources maps a trusted source name to its canonical apply URL.
	Sources   map[string]string `mapstructure:"sources"`
	Publisher struct {
		TokenFile string `mapstructure:"token-file"`
	} `mapstructure:"publisher"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "oppify aggregates opportunity postings and serves personalized recommendations",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("database.url", "DATABASE_URL"); err != nil {
		log.Fatalf("binding DATABASE_URL environment variable: %v", err)
	}
	if err := viper.BindEnv("redis.url", "REDIS_URL"); err != nil {
		log.Fatalf("binding REDIS_URL environment variable: %v", err)
	}
	if err := viper.BindEnv("publisher.token-file", "OPPIFY_PUBLISHER_TOKEN_FILE"); err != nil {
		log.Fatalf("binding OPPIFY_PUBLISHER_TOKEN_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is oppify.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("catalog.refresh-interval", "5m")
	viper.SetDefault("catalog.cache-ttl", "15m")
	viper.SetDefault("filtering.trusted-sources", catalog.TrustedSources())
	viper.SetDefault("recommend.top-matches", 6)
	viper.SetDefault("session.ttl", "24h")
	viper.SetDefault("sources", map[string]string{
		"Internshala":      "https://internshala.com/student/dashboard",
		"Devpost":          "https://devpost.com/",
		"Scholarships.com": "https://www.scholarships.com/",
		"Govt Portal":      "https://www.india.gov.in/my-government/schemes",
	})
}

func initConfig() {
	// Config is needed only for serve and seed. If neither was called, skip
	// initialization.
	if serveCmd.CalledAs() == "" && seedCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// A missing default config file is fine (environment variables can carry
	// the connection URLs), but a config file that fails to parse is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
