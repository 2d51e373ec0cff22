package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// Config es la configuración completa del motor.
type Config struct {
	Instrument string         `yaml:"instrument"`
	Strategy   StrategyConfig `yaml:"strategy"`
	Feed       FeedConfig     `yaml:"feed"`
	Venue      VenueConfig    `yaml:"venue"`
	Storage    StorageConfig  `yaml:"storage"`
	Report     ReportConfig   `yaml:"report"`
	Log        LogConfig      `yaml:"log"`
}

// StrategyConfig expone los parámetros del modelo. Las keys ausentes en el
// YAML conservan el valor de domain.DefaultParams.
type StrategyConfig struct {
	MaxPosition      float64 `yaml:"max_position"`
	RiskPerTrade     float64 `yaml:"risk_per_trade"`
	LateShedFraction float64 `yaml:"late_shed_fraction"`
	InitialCapital   float64 `yaml:"initial_capital"`

	MaxSpreadToCross float64 `yaml:"max_spread_to_cross"`
	PriceTick        float64 `yaml:"price_tick"`
	PassiveImprove   float64 `yaml:"passive_improve"`
	MinBookQty       float64 `yaml:"min_book_qty"`

	HomeAdvantage  float64 `yaml:"home_advantage"`
	MomentumAlpha  float64 `yaml:"momentum_alpha"`
	LeadWeight     float64 `yaml:"lead_weight"`
	MomentumWeight float64 `yaml:"momentum_weight"`
	HomeWeight     float64 `yaml:"home_weight"`

	BaseEdgeThreshold float64 `yaml:"base_edge_threshold"`
	MinEdgeThreshold  float64 `yaml:"min_edge_threshold"`
	LateTighten       float64 `yaml:"late_tighten"`

	GameLengthShort         float64 `yaml:"game_length_short"`
	GameLengthLong          float64 `yaml:"game_length_long"`
	CooldownSeconds         float64 `yaml:"cooldown_seconds"`
	CloseOutBuffer          float64 `yaml:"close_out_buffer"`
	LateNudgeWindow         float64 `yaml:"late_nudge_window"`
	HighImpactScoreWindow   float64 `yaml:"high_impact_score_window"`
	HighImpactDefenseWindow float64 `yaml:"high_impact_defense_window"`
}

// FeedConfig selecciona la fuente de eventos.
type FeedConfig struct {
	Mode          string `yaml:"mode"`        // replay | websocket
	ReplayPath    string `yaml:"replay_path"` // JSONL, un evento por línea
	URL           string `yaml:"url"`
	Subscribe     string `yaml:"subscribe"` // mensaje enviado tras conectar
	PingSeconds   int    `yaml:"ping_seconds"`
	MaxReconnects int    `yaml:"max_reconnects"`
	BufferSize    int    `yaml:"buffer_size"`
}

// VenueConfig selecciona dónde se envían las órdenes.
type VenueConfig struct {
	Mode           string  `yaml:"mode"` // paper | http
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"-"` // sólo por env: COURTSIDE_VENUE_KEY
	RatePerSec     float64 `yaml:"rate_per_sec"`
	Burst          int     `yaml:"burst"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// StorageConfig controla dónde se persiste el journal.
type StorageConfig struct {
	DSN      string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
	Disabled bool   `yaml:"disabled"`
}

// ReportConfig controla el resumen final.
type ReportConfig struct {
	Table bool `yaml:"table"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

const (
	FeedReplay    = "replay"
	FeedWebSocket = "websocket"
	VenuePaper    = "paper"
	VenueHTTP     = "http"
)

const defaultMaxReconnects = 5

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse interpreta un documento YAML ya leído.
func Parse(data []byte) (*Config, error) {
	// max_reconnects: 0 desactiva la reconexión, así que su default va antes del YAML
	cfg := Config{
		Strategy: strategyFromParams(domain.DefaultParams()),
		Feed:     FeedConfig{MaxReconnects: defaultMaxReconnects},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Params convierte la sección strategy en parámetros del dominio.
func (c *Config) Params() domain.Params {
	s := c.Strategy
	return domain.Params{
		MaxPosition:             s.MaxPosition,
		RiskPerTrade:            s.RiskPerTrade,
		LateShedFraction:        s.LateShedFraction,
		InitialCapital:          s.InitialCapital,
		MaxSpreadToCross:        s.MaxSpreadToCross,
		PriceTick:               s.PriceTick,
		PassiveImprove:          s.PassiveImprove,
		MinBookQty:              s.MinBookQty,
		HomeAdvantage:           s.HomeAdvantage,
		MomentumAlpha:           s.MomentumAlpha,
		LeadWeight:              s.LeadWeight,
		MomentumWeight:          s.MomentumWeight,
		HomeWeight:              s.HomeWeight,
		BaseEdgeThreshold:       s.BaseEdgeThreshold,
		MinEdgeThreshold:        s.MinEdgeThreshold,
		LateTighten:             s.LateTighten,
		GameLengthShort:         s.GameLengthShort,
		GameLengthLong:          s.GameLengthLong,
		CooldownSeconds:         s.CooldownSeconds,
		CloseOutBuffer:          s.CloseOutBuffer,
		LateNudgeWindow:         s.LateNudgeWindow,
		HighImpactScoreWindow:   s.HighImpactScoreWindow,
		HighImpactDefenseWindow: s.HighImpactDefenseWindow,
	}
}

// PingInterval devuelve el intervalo de ping del websocket.
func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.Feed.PingSeconds) * time.Second
}

// VenueTimeout devuelve el timeout HTTP del exchange.
func (c *Config) VenueTimeout() time.Duration {
	return time.Duration(c.Venue.TimeoutSeconds) * time.Second
}

func strategyFromParams(p domain.Params) StrategyConfig {
	return StrategyConfig{
		MaxPosition:             p.MaxPosition,
		RiskPerTrade:            p.RiskPerTrade,
		LateShedFraction:        p.LateShedFraction,
		InitialCapital:          p.InitialCapital,
		MaxSpreadToCross:        p.MaxSpreadToCross,
		PriceTick:               p.PriceTick,
		PassiveImprove:          p.PassiveImprove,
		MinBookQty:              p.MinBookQty,
		HomeAdvantage:           p.HomeAdvantage,
		MomentumAlpha:           p.MomentumAlpha,
		LeadWeight:              p.LeadWeight,
		MomentumWeight:          p.MomentumWeight,
		HomeWeight:              p.HomeWeight,
		BaseEdgeThreshold:       p.BaseEdgeThreshold,
		MinEdgeThreshold:        p.MinEdgeThreshold,
		LateTighten:             p.LateTighten,
		GameLengthShort:         p.GameLengthShort,
		GameLengthLong:          p.GameLengthLong,
		CooldownSeconds:         p.CooldownSeconds,
		CloseOutBuffer:          p.CloseOutBuffer,
		LateNudgeWindow:         p.LateNudgeWindow,
		HighImpactScoreWindow:   p.HighImpactScoreWindow,
		HighImpactDefenseWindow: p.HighImpactDefenseWindow,
	}
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("COURTSIDE_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("COURTSIDE_VENUE_URL"); v != "" {
		cfg.Venue.BaseURL = v
	}
	if v := os.Getenv("COURTSIDE_VENUE_KEY"); v != "" {
		cfg.Venue.APIKey = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Instrument == "" {
		cfg.Instrument = "GAME"
	}
	cfg.Feed.Mode = strings.ToLower(cfg.Feed.Mode)
	if cfg.Feed.Mode == "" {
		cfg.Feed.Mode = FeedReplay
	}
	if cfg.Feed.PingSeconds <= 0 {
		cfg.Feed.PingSeconds = 15
	}
	if cfg.Feed.BufferSize <= 0 {
		cfg.Feed.BufferSize = 1024
	}
	cfg.Venue.Mode = strings.ToLower(cfg.Venue.Mode)
	if cfg.Venue.Mode == "" {
		cfg.Venue.Mode = VenuePaper
	}
	if cfg.Venue.TimeoutSeconds <= 0 {
		cfg.Venue.TimeoutSeconds = 5
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "courtside.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch c.Feed.Mode {
	case FeedReplay, FeedWebSocket:
	default:
		return fmt.Errorf("unknown feed mode %q", c.Feed.Mode)
	}
	if c.Feed.MaxReconnects < 0 {
		return fmt.Errorf("feed.max_reconnects must be non-negative")
	}
	if c.Feed.Mode == FeedWebSocket && c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required for websocket mode")
	}
	switch c.Venue.Mode {
	case VenuePaper, VenueHTTP:
	default:
		return fmt.Errorf("unknown venue mode %q", c.Venue.Mode)
	}
	if c.Venue.Mode == VenueHTTP && c.Venue.BaseURL == "" {
		return fmt.Errorf("venue.base_url is required for http mode")
	}
	return c.Params().Validate()
}
