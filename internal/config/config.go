package config

import (
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CooldownScope selects which alerts a cooldown window applies to.
type CooldownScope string

const (
	// CooldownPerPOI rate-limits each POI independently.
	CooldownPerPOI CooldownScope = "per_poi"
	// CooldownGlobal rate-limits across all POIs with a single timer.
	CooldownGlobal CooldownScope = "global"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Geofence  GeofenceConfig  `yaml:"geofence" mapstructure:"geofence"`
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`
	Dispatch  DispatchConfig  `yaml:"dispatch" mapstructure:"dispatch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the alert history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GeofenceConfig holds the tunable alerting policy. It is mutable at
// runtime through the engine's config accessors; updates take effect
// on the next evaluation or selection cycle.
type GeofenceConfig struct {
	MaxGeofences      int           `json:"max_geofences" yaml:"max_geofences" mapstructure:"max_geofences"`
	DefaultRadiusM    float64       `json:"default_radius_m" yaml:"default_radius_m" mapstructure:"default_radius_m"`
	AlertDistancesM   []float64     `json:"alert_distances_m" yaml:"alert_distances_m" mapstructure:"alert_distances_m"`
	CooldownMinutes   int           `json:"cooldown_minutes" yaml:"cooldown_minutes" mapstructure:"cooldown_minutes"`
	CooldownScope     CooldownScope `json:"cooldown_scope" yaml:"cooldown_scope" mapstructure:"cooldown_scope"`
	QuietHoursStart   int           `json:"quiet_hours_start" yaml:"quiet_hours_start" mapstructure:"quiet_hours_start"`
	QuietHoursEnd     int           `json:"quiet_hours_end" yaml:"quiet_hours_end" mapstructure:"quiet_hours_end"`
	LookbackHours     int           `json:"lookback_hours" yaml:"lookback_hours" mapstructure:"lookback_hours"`
	ReselectDistanceM float64       `json:"reselect_distance_m" yaml:"reselect_distance_m" mapstructure:"reselect_distance_m"`
	ReselectInterval  time.Duration `json:"reselect_interval" yaml:"reselect_interval" mapstructure:"reselect_interval"`
}

// Cooldown returns the cooldown window as a duration.
func (g GeofenceConfig) Cooldown() time.Duration {
	return time.Duration(g.CooldownMinutes) * time.Minute
}

// Lookback returns the history retention window as a duration.
func (g GeofenceConfig) Lookback() time.Duration {
	return time.Duration(g.LookbackHours) * time.Hour
}

// Validate checks the policy invariants: at least one geofence slot,
// strictly descending distinct alert distances, and hour fields in
// 0-23.
func (g GeofenceConfig) Validate() error {
	if g.MaxGeofences < 1 {
		return eris.Errorf("config: max_geofences must be >= 1, got %d", g.MaxGeofences)
	}
	if g.DefaultRadiusM <= 0 {
		return eris.Errorf("config: default_radius_m must be > 0, got %g", g.DefaultRadiusM)
	}
	if len(g.AlertDistancesM) == 0 {
		return eris.New("config: alert_distances_m must not be empty")
	}
	if !sort.IsSorted(sort.Reverse(sort.Float64Slice(g.AlertDistancesM))) {
		return eris.Errorf("config: alert_distances_m must be sorted descending, got %v", g.AlertDistancesM)
	}
	for i := 1; i < len(g.AlertDistancesM); i++ {
		if g.AlertDistancesM[i] == g.AlertDistancesM[i-1] {
			return eris.Errorf("config: alert_distances_m must be distinct, got %v", g.AlertDistancesM)
		}
	}
	for _, d := range g.AlertDistancesM {
		if d <= 0 {
			return eris.Errorf("config: alert distances must be > 0, got %g", d)
		}
	}
	if g.CooldownMinutes < 0 {
		return eris.Errorf("config: cooldown_minutes must be >= 0, got %d", g.CooldownMinutes)
	}
	if g.CooldownScope != CooldownPerPOI && g.CooldownScope != CooldownGlobal {
		return eris.Errorf("config: cooldown_scope must be %q or %q, got %q", CooldownPerPOI, CooldownGlobal, g.CooldownScope)
	}
	if g.QuietHoursStart < 0 || g.QuietHoursStart > 23 {
		return eris.Errorf("config: quiet_hours_start must be in 0-23, got %d", g.QuietHoursStart)
	}
	if g.QuietHoursEnd < 0 || g.QuietHoursEnd > 23 {
		return eris.Errorf("config: quiet_hours_end must be in 0-23, got %d", g.QuietHoursEnd)
	}
	if g.LookbackHours < 1 {
		return eris.Errorf("config: lookback_hours must be >= 1, got %d", g.LookbackHours)
	}
	return nil
}

// SourceConfig configures the location stream.
type SourceConfig struct {
	Mode         string        `yaml:"mode" mapstructure:"mode"`
	URL          string        `yaml:"url" mapstructure:"url"`
	TrackPath    string        `yaml:"track_path" mapstructure:"track_path"`
	AccuracyM    float64       `yaml:"accuracy_m" mapstructure:"accuracy_m"`
	MinInterval  time.Duration `yaml:"min_interval" mapstructure:"min_interval"`
	MinDistanceM float64       `yaml:"min_distance_m" mapstructure:"min_distance_m"`
	QueueDepth   int           `yaml:"queue_depth" mapstructure:"queue_depth"`
}

// DirectoryConfig configures the POI directory collaborator.
type DirectoryConfig struct {
	Mode         string        `yaml:"mode" mapstructure:"mode"`
	URL          string        `yaml:"url" mapstructure:"url"`
	Path         string        `yaml:"path" mapstructure:"path"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
}

// DispatchConfig configures where approved alerts are delivered.
type DispatchConfig struct {
	Mode       string `yaml:"mode" mapstructure:"mode"`
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// ServerConfig configures the runtime API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROXIMITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", "proximity.db")
	v.SetDefault("geofence.max_geofences", 20)
	v.SetDefault("geofence.default_radius_m", 200.0)
	v.SetDefault("geofence.alert_distances_m", []float64{200, 100, 50})
	v.SetDefault("geofence.cooldown_minutes", 5)
	v.SetDefault("geofence.cooldown_scope", string(CooldownPerPOI))
	v.SetDefault("geofence.quiet_hours_start", 22)
	v.SetDefault("geofence.quiet_hours_end", 8)
	v.SetDefault("geofence.lookback_hours", 48)
	v.SetDefault("geofence.reselect_distance_m", 500.0)
	v.SetDefault("geofence.reselect_interval", "5m")
	v.SetDefault("source.mode", "websocket")
	v.SetDefault("source.accuracy_m", 50.0)
	v.SetDefault("source.min_interval", "5s")
	v.SetDefault("source.min_distance_m", 10.0)
	v.SetDefault("source.queue_depth", 64)
	v.SetDefault("directory.mode", "http")
	v.SetDefault("directory.fetch_timeout", "10s")
	v.SetDefault("dispatch.mode", "log")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Geofence.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
