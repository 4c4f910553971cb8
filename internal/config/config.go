package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// ErrMissingAPIKey is returned by RequireAPIKey when no credential is set.
var ErrMissingAPIKey = errors.New("missing API key: set SMARTVOICE_API_KEY or API_KEY (environment or .env)")

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Output   OutputConfig   `mapstructure:"output"`
	Voice    VoiceConfig    `mapstructure:"voice"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Server   ServerConfig   `mapstructure:"server"`
	LogLevel string         `mapstructure:"log_level"`
	LogFile  string         `mapstructure:"log_file"`
}

type APIConfig struct {
	Key     string `mapstructure:"key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

type OutputConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

type VoiceConfig struct {
	Default     string `mapstructure:"default"`
	CatalogPath string `mapstructure:"catalog_path"`
}

type PlaybackConfig struct {
	Backend string `mapstructure:"backend"`
	Command string `mapstructure:"command"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	// DotEnvFile is loaded into the process environment before config is
	// resolved. Missing files are ignored.
	DotEnvFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Key:     "",
			BaseURL: "https://api.murf.ai",
			Timeout: 0,
		},
		Output: OutputConfig{
			Path:   "",
			Format: "MP3",
		},
		Voice: VoiceConfig{
			Default:     "Natalie",
			CatalogPath: "",
		},
		Playback: PlaybackConfig{
			Backend: "auto",
			Command: "",
		},
		Server: ServerConfig{
			ListenAddr:      "127.0.0.1:8080",
			ShutdownTimeout: 30,
		},
		LogLevel: "info",
		LogFile:  "smartvoice.log",
	}
}

// binding maps a viper key to its command line flag.
type binding struct {
	key  string
	flag string
}

var bindings = []binding{
	{"api.base_url", "api-base-url"},
	{"api.timeout", "api-timeout"},
	{"output.path", "output-path"},
	{"output.format", "output-format"},
	{"voice.default", "voice-default"},
	{"voice.catalog_path", "voice-catalog-path"},
	{"playback.backend", "playback-backend"},
	{"playback.command", "playback-command"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.shutdown_timeout", "server-shutdown-timeout"},
	{"log_level", "log-level"},
	{"log_file", "log-file"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("api-base-url", defaults.API.BaseURL, "Speech service base URL")
	fs.Int("api-timeout", defaults.API.Timeout, "Speech service HTTP timeout in seconds (0 = no timeout)")
	fs.String("output-path", defaults.Output.Path, "Output audio file, overwritten on every generation (default audio.mp3 or audio.wav)")
	fs.String("output-format", defaults.Output.Format, "Output audio format (MP3|WAV)")
	fs.String("voice-default", defaults.Voice.Default, "Voice selected at startup")
	fs.String("voice-catalog-path", defaults.Voice.CatalogPath, "Optional YAML voice catalog replacing the built-in voices")
	fs.String("playback-backend", defaults.Playback.Backend, "Playback backend (auto|command|portaudio|none)")
	fs.String("playback-command", defaults.Playback.Command, "External player command; the file path is appended")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("log-file", defaults.LogFile, "Log file used while the terminal UI owns the screen")
}

func Load(opts LoadOptions) (Config, error) {
	if opts.DotEnvFile != "" {
		if err := LoadDotEnv(opts.DotEnvFile); err != nil {
			return Config{}, err
		}
	}

	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("SMARTVOICE")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("api.key", "SMARTVOICE_API_KEY", "API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind api key env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("smartvoice")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv adds the variables of a .env file to the environment without
// overriding variables that are already set.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, b := range bindings {
		f := fs.Lookup(b.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(b.key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", b.flag, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("api.key", c.API.Key)
	v.SetDefault("api.base_url", c.API.BaseURL)
	v.SetDefault("api.timeout", c.API.Timeout)
	v.SetDefault("output.path", c.Output.Path)
	v.SetDefault("output.format", c.Output.Format)
	v.SetDefault("voice.default", c.Voice.Default)
	v.SetDefault("voice.catalog_path", c.Voice.CatalogPath)
	v.SetDefault("playback.backend", c.Playback.Backend)
	v.SetDefault("playback.command", c.Playback.Command)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("log_file", c.LogFile)
}

// RequireAPIKey fails when no API key is configured.
func (c Config) RequireAPIKey() error {
	if strings.TrimSpace(c.API.Key) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// OutputPath returns the configured output file or the default name
// matching the output format.
func (c Config) OutputPath() string {
	if c.Output.Path != "" {
		return c.Output.Path
	}
	if strings.EqualFold(strings.TrimSpace(c.Output.Format), "wav") {
		return "audio.wav"
	}
	return "audio.mp3"
}
