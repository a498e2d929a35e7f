package core

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string `yaml:"env" env:"PIXIE_ENV" env-default:"local"`
	OpenAIApiKey  string `yaml:"-" env:"OPENAI_API_KEY" env-default:""`
	OpenAIBaseURL string `yaml:"openai_base_url" env:"OPENAI_BASE_URL" env-default:""`
	OutputDir     string `yaml:"output_dir" env:"PIXIE_OUTPUT_DIR" env-default:""`
	Images        struct {
		Model            string        `yaml:"model" env:"MODEL" env-default:"dall-e-2"`
		Size             string        `yaml:"size" env:"SIZE" env-default:"512x512"`
		VariationSize    string        `yaml:"variation_size" env:"VARIATION_SIZE" env-default:"512x512"`
		SaveCropped      bool          `yaml:"save_cropped" env:"SAVE_CROPPED" env-default:"true"`
		RequestTimeout   time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"120s"`
		DownloadTimeout  time.Duration `yaml:"download_timeout" env:"DOWNLOAD_TIMEOUT" env-default:"60s"`
		MaxDownloadBytes int64         `yaml:"max_download_bytes" env:"MAX_DOWNLOAD_BYTES" env-default:"20971520"`
	} `yaml:"images" env-prefix:"PIXIE_IMAGES_"`
	Telegram struct {
		ApiKey   string `yaml:"api_key" env:"API_KEY" env-default:""`
		Username string `yaml:"username" env:"USERNAME" env-default:""`
	} `yaml:"telegram" env-prefix:"TELEGRAM_"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env-default:"pass"`
		Database string `yaml:"database" env-default:"pixie"`
	} `yaml:"mongo"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" env:"ENABLED" env-default:"false"`
		Listen  string `yaml:"listen" env:"LISTEN" env-default:":9090"`
	} `yaml:"metrics" env-prefix:"PIXIE_METRICS_"`
}

// Load reads the yaml file at path and overlays the environment on top of it.
// A missing file is not an error, the config then comes from the environment only.
func Load(path string) (*Config, error) {
	conf := &Config{}
	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, conf)
	} else if errors.Is(statErr, os.ErrNotExist) {
		err = cleanenv.ReadEnv(conf)
	} else {
		return nil, fmt.Errorf("config: %w", statErr)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}
	return conf, nil
}

func (c *Config) MongoURI() string {
	return fmt.Sprintf("mongodb://%s:%s@%s:%s",
		c.Mongo.User, c.Mongo.Password,
		c.Mongo.Host, c.Mongo.Port)
}
