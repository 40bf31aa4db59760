package config

// Config is the full application configuration. It is decoded strictly:
// unknown fields are rejected so typos fail loudly at load time.
type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Channels ChannelsConfig `json:"channels"`
	Weather  WeatherConfig  `json:"weather,omitempty"`
	Gemini   GeminiConfig   `json:"gemini,omitempty"`
	Digest   DigestConfig   `json:"digest,omitempty"`
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"`
	Console bool       `json:"console"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type StorageConfig struct {
	Path string `json:"path"`
	// BusyTimeout is a Go duration string, e.g. "5s".
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// ChannelsConfig lists the outbound notification channels. Each channel is
// independently enabled; the dispatcher skips disabled ones.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram,omitempty"`
	Email    EmailConfig    `json:"email,omitempty"`
}

type TelegramConfig struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token,omitempty"`
	ChatID     int64  `json:"chat_id,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

type EmailConfig struct {
	Enabled  bool     `json:"enabled"`
	Host     string   `json:"host,omitempty"`
	Port     int      `json:"port,omitempty"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
	From     string   `json:"from,omitempty"`
	To       []string `json:"to,omitempty"`
}

type WeatherConfig struct {
	// Units is "metric" or "imperial"; metric when empty.
	Units string `json:"units,omitempty"`
}

type GeminiConfig struct {
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model,omitempty"`
}

// DigestConfig seeds the notification schedule when the store has none yet.
type DigestConfig struct {
	Enabled         bool `json:"enabled"`
	IntervalMinutes int  `json:"interval_minutes,omitempty"`
}
