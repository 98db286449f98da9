package config

import (
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	App         App
	Server      Server
	Storage     Storage
	Gemini      Gemini
	ElevenLabs  ElevenLabs
	Queue       *RabbitMQ
	MinIOBucket string
	Mirror      *minio.Client
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type Storage struct {
	Root       string `yaml:"root"`
	RosterPath string `yaml:"roster_path"`
}

type Gemini struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type ElevenLabs struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	SegmentDelayMs int    `yaml:"segment_delay_ms"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.SetDefault("storage.root", "app_data")
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	viper.SetDefault("elevenlabs.model", "eleven_multilingual_v2")
	viper.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	viper.SetDefault("elevenlabs.segment_delay_ms", 300)
	viper.SetDefault("rabbitmq_kind", "direct")
	viper.SetDefault("server.workers", 1)
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host: viper.GetString("rabbitmq_host"),
		Port: viper.GetInt("rabbitmq_port"),
		User: viper.GetString("rabbitmq_user"),
		Pass: viper.GetString("rabbitmq_pass"),
		Kind: viper.GetString("rabbitmq_kind"),
	}

	var mirror *minio.Client
	if viper.GetString("minio.url") != "" {
		mirror, err = minio.New(viper.GetString("minio.url"), &minio.Options{
			Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
			Secure: false,
		})
		if err != nil {
			return nil, err
		}
	}

	rosterPath := viper.GetString("storage.roster_path")
	if rosterPath == "" {
		rosterPath = viper.GetString("storage.root") + "/actor_list.json"
	}

	return &Config{
		MinIOBucket: viper.GetString("minio.bucket"),
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		Storage: Storage{
			Root:       viper.GetString("storage.root"),
			RosterPath: rosterPath,
		},
		Gemini: Gemini{
			APIKey:  viper.GetString("gemini.api_key"),
			Model:   viper.GetString("gemini.model"),
			BaseURL: viper.GetString("gemini.base_url"),
		},
		ElevenLabs: ElevenLabs{
			APIKey:         viper.GetString("elevenlabs.api_key"),
			Model:          viper.GetString("elevenlabs.model"),
			BaseURL:        viper.GetString("elevenlabs.base_url"),
			SegmentDelayMs: viper.GetInt("elevenlabs.segment_delay_ms"),
		},
		Queue:  rabbitmq,
		Mirror: mirror,
	}, nil
}
