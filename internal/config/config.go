package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int      `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	DataPath       string   `envconfig:"DATA_PATH" default:"/data" validate:"required"`
	DBPath         string   `envconfig:"DB_PATH"`
	UploadPath     string   `envconfig:"UPLOAD_PATH"`
	TranscriptPath string   `envconfig:"TRANSCRIPT_PATH"`
	MaxUploadBytes int64    `envconfig:"MAX_UPLOAD_BYTES" default:"524288000" validate:"gt=0"`
	JWTSecret      string   `envconfig:"JWT_SECRET"`
	AdminUsername  string   `envconfig:"ADMIN_USERNAME" default:"admin" validate:"required"`
	AdminPassword  string   `envconfig:"ADMIN_PASSWORD" default:"admin" validate:"required"`
	CORSOrigins    []string `envconfig:"CORS_ORIGINS" default:"*"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat      string   `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json console"`

	Whisper WhisperConfig `envconfig:"WHISPER"`
	YouTube YouTubeConfig `envconfig:"YOUTUBE"`
	MinIO   MinIOConfig   `envconfig:"MINIO"`

	// GeneratedJWTSecret is set when JWT_SECRET was empty and a random one
	// was generated. Sessions will not survive a restart.
	GeneratedJWTSecret bool `ignored:"true"`
}

// WhisperConfig selects and configures the speech engines. An engine is
// registered when its URL or key is set.
type WhisperConfig struct {
	Engine        string `envconfig:"ENGINE" default:"whisper.cpp" validate:"oneof=whisper.cpp openvino-genai openai assemblyai"`
	Model         string `envconfig:"MODEL" default:"base"`
	Language      string `envconfig:"LANGUAGE" default:"auto"`
	CppURL        string `envconfig:"CPP_URL" validate:"omitempty,url"`
	OpenVINOURL   string `envconfig:"OPENVINO_URL" validate:"omitempty,url"`
	OpenAIKey     string `envconfig:"OPENAI_KEY"`
	AssemblyAIKey string `envconfig:"ASSEMBLYAI_KEY"`
}

type YouTubeConfig struct {
	APIKey      string `envconfig:"API_KEY"`
	YtDlpPath   string `envconfig:"YTDLP_PATH" default:"yt-dlp" validate:"required"`
	CaptionLang string `envconfig:"CAPTION_LANG" default:"en" validate:"required"`
}

// MinIOConfig configures the optional object-storage mirror of rendered
// artifacts.
type MinIOConfig struct {
	Enabled   bool   `envconfig:"ENABLED" default:"false"`
	Endpoint  string `envconfig:"ENDPOINT" validate:"required_if=Enabled true"`
	AccessKey string `envconfig:"ACCESS_KEY" validate:"required_if=Enabled true"`
	SecretKey string `envconfig:"SECRET_KEY" validate:"required_if=Enabled true"`
	Bucket    string `envconfig:"BUCKET" default:"transcripts" validate:"required_if=Enabled true"`
	UseSSL    bool   `envconfig:"USE_SSL" default:"false"`
}

// Load reads .env (when present) and the environment, fills paths derived
// from DATA_PATH and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataPath, "transcripts.db")
	}
	if c.UploadPath == "" {
		c.UploadPath = filepath.Join(c.DataPath, "uploads")
	}
	if c.TranscriptPath == "" {
		c.TranscriptPath = filepath.Join(c.DataPath, "transcripts")
	}

	// JWT secret: require explicit setting or generate random
	if c.JWTSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return fmt.Errorf("generate JWT secret: %w", err)
		}
		c.JWTSecret = hex.EncodeToString(b)
		c.GeneratedJWTSecret = true
	}

	origins := make([]string, 0, len(c.CORSOrigins))
	for _, o := range c.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c.CORSOrigins = origins
	return nil
}
