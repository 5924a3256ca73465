package ops

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tradecore/internal/cache"
	"tradecore/internal/errors"
	"tradecore/internal/identifier"
	"tradecore/internal/journal"
	"tradecore/pkg/conn"
	"tradecore/pkg/exception"
)

const (
	defaultQueueCapacity   = 1024
	defaultReplayStep      = time.Minute
	defaultProfilerApp     = "tradecore"
	defaultProfilerAddress = "http://localhost:4040"
)

// FileConfig mirrors the YAML config layout.
type FileConfig struct {
	Trader     TraderConfig     `yaml:"trader"`
	Strategies []StrategyConfig `yaml:"strategies"`
	Timers     []TimerConfig    `yaml:"timers"`
	Replay     ReplayConfig     `yaml:"replay"`
	Journal    JournalConfig    `yaml:"journal"`
	Profiler   ProfilerConfig   `yaml:"profiler"`
	Live       LiveConfig       `yaml:"live"`
}

type TraderConfig struct {
	Name string `yaml:"name"`
	Tag  string `yaml:"tag"`
}

type StrategyConfig struct {
	Name   string `yaml:"name"`
	Tag    string `yaml:"tag"`
	Symbol string `yaml:"symbol"`
}

// TimerConfig describes a repeating timer registered for every strategy. Durations use
// time.ParseDuration syntax; empty means zero.
type TimerConfig struct {
	Name        string `yaml:"name"`
	Interval    string `yaml:"interval"`
	StartOffset string `yaml:"start_offset"`
	StopAfter   string `yaml:"stop_after"`
}

// ReplayConfig bounds a replay run. Start and End are RFC 3339.
type ReplayConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	Step  string `yaml:"step"`
}

type JournalConfig struct {
	Driver    string            `yaml:"driver"`
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Database  string            `yaml:"database"`
	SSLMode   string            `yaml:"sslmode"`
	Params    map[string]string `yaml:"params"`
	BatchSize int               `yaml:"batch_size"`
}

type ProfilerConfig struct {
	Enabled         bool   `yaml:"enabled"`
	ApplicationName string `yaml:"application_name"`
	ServerAddress   string `yaml:"server_address"`
}

type LiveConfig struct {
	Duration      string `yaml:"duration"`
	QueueCapacity int    `yaml:"queue_capacity"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Trader     identifier.TraderID
	Strategies []Strategy
	Timers     []TimerSpec
	Replay     ReplayWindow
	Journal    JournalSpec
	Profiler   ProfilerConfig
	Live       LiveSpec
}

// Strategy is a resolved strategy entry. Symbols are interned, so strategies trading
// the same instrument share one Symbol.
type Strategy struct {
	ID     identifier.StrategyID
	Symbol *identifier.Symbol
}

type TimerSpec struct {
	Name        string
	Interval    time.Duration
	StartOffset time.Duration
	StopAfter   time.Duration
}

type ReplayWindow struct {
	Start time.Time
	End   time.Time
	Step  time.Duration
}

type JournalSpec struct {
	Driver    string
	Conn      conn.Option
	BatchSize int
}

type LiveSpec struct {
	Duration      time.Duration
	QueueCapacity int
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	expanded := os.ExpandEnv(string(data))

	var cfg FileConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config yaml")
	}

	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*FileConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, validates and resolves it.
func LoadAndValidate(path string, symbols *cache.ObjectCache[identifier.Symbol]) (Loaded, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return Loaded{}, err
	}
	loaded, err := cfg.Resolve(symbols)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "validate config")
	}
	return loaded, nil
}

// NewSymbolCache returns the cache used to intern configured symbols.
func NewSymbolCache() *cache.ObjectCache[identifier.Symbol] {
	return cache.New(identifier.ParseSymbol)
}

func (cfg *FileConfig) applyDefaults() {
	if cfg.Journal.Driver == "" {
		cfg.Journal.Driver = journal.DriverMemory
	}
	if cfg.Replay.Step == "" {
		cfg.Replay.Step = defaultReplayStep.String()
	}
	if cfg.Live.QueueCapacity <= 0 {
		cfg.Live.QueueCapacity = defaultQueueCapacity
	}
	if cfg.Profiler.ApplicationName == "" {
		cfg.Profiler.ApplicationName = defaultProfilerApp
	}
	if cfg.Profiler.ServerAddress == "" {
		cfg.Profiler.ServerAddress = defaultProfilerAddress
	}
}

// Resolve validates the file config and builds typed values from it. A nil symbols
// cache gets a fresh one.
func (cfg *FileConfig) Resolve(symbols *cache.ObjectCache[identifier.Symbol]) (Loaded, error) {
	if symbols == nil {
		symbols = NewSymbolCache()
	}

	trader, err := identifier.NewTraderID(cfg.Trader.Name, cfg.Trader.Tag)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "trader")
	}

	strategies, err := resolveStrategies(cfg.Strategies, symbols)
	if err != nil {
		return Loaded{}, err
	}

	timers, err := resolveTimers(cfg.Timers)
	if err != nil {
		return Loaded{}, err
	}

	replay, err := resolveReplay(cfg.Replay)
	if err != nil {
		return Loaded{}, err
	}

	journalSpec, err := resolveJournal(cfg.Journal)
	if err != nil {
		return Loaded{}, err
	}

	duration, err := parseDuration("live.duration", cfg.Live.Duration)
	if err != nil {
		return Loaded{}, err
	}

	return Loaded{
		Trader:     trader,
		Strategies: strategies,
		Timers:     timers,
		Replay:     replay,
		Journal:    journalSpec,
		Profiler:   cfg.Profiler,
		Live: LiveSpec{
			Duration:      duration,
			QueueCapacity: cfg.Live.QueueCapacity,
		},
	}, nil
}

func resolveStrategies(cfg []StrategyConfig, symbols *cache.ObjectCache[identifier.Symbol]) ([]Strategy, error) {
	if len(cfg) == 0 {
		return nil, errors.Wrap(exception.ErrValueRange, "no strategy configured")
	}

	seen := make(map[string]struct{}, len(cfg))
	strategies := make([]Strategy, 0, len(cfg))
	for i, s := range cfg {
		id, err := identifier.NewStrategyID(s.Name, s.Tag)
		if err != nil {
			return nil, errors.Wrapf(err, "strategies[%d]", i)
		}
		if _, ok := seen[id.Value()]; ok {
			return nil, errors.Wrapf(exception.ErrValueFormat, "strategies[%d]: duplicate strategy %s", i, id.Value())
		}
		seen[id.Value()] = struct{}{}

		symbol, err := symbols.Get(s.Symbol)
		if err != nil {
			return nil, errors.Wrapf(err, "strategies[%d]", i)
		}
		strategies = append(strategies, Strategy{ID: id, Symbol: symbol})
	}
	return strategies, nil
}

func resolveTimers(cfg []TimerConfig) ([]TimerSpec, error) {
	timers := make([]TimerSpec, 0, len(cfg))
	seen := make(map[string]struct{}, len(cfg))
	for i, tc := range cfg {
		if identifier.IsBlank(tc.Name) {
			return nil, errors.Wrapf(exception.ErrValueFormat, "timers[%d]: blank name", i)
		}
		if _, ok := seen[tc.Name]; ok {
			return nil, errors.Wrapf(exception.ErrDuplicateTimer, "timers[%d]: %s", i, tc.Name)
		}
		seen[tc.Name] = struct{}{}

		interval, err := parseDuration("timers."+tc.Name+".interval", tc.Interval)
		if err != nil {
			return nil, err
		}
		if interval <= 0 {
			return nil, errors.Wrapf(exception.ErrValueRange, "timers.%s.interval must be positive", tc.Name)
		}
		offset, err := parseDuration("timers."+tc.Name+".start_offset", tc.StartOffset)
		if err != nil {
			return nil, err
		}
		stopAfter, err := parseDuration("timers."+tc.Name+".stop_after", tc.StopAfter)
		if err != nil {
			return nil, err
		}
		if stopAfter != 0 && stopAfter < interval {
			return nil, errors.Wrapf(exception.ErrValueRange, "timers.%s.stop_after %s is shorter than interval %s", tc.Name, stopAfter, interval)
		}

		timers = append(timers, TimerSpec{
			Name:        tc.Name,
			Interval:    interval,
			StartOffset: offset,
			StopAfter:   stopAfter,
		})
	}
	return timers, nil
}

func resolveReplay(cfg ReplayConfig) (ReplayWindow, error) {
	var (
		window ReplayWindow
		err    error
	)

	if cfg.Start != "" {
		if window.Start, err = time.Parse(time.RFC3339Nano, cfg.Start); err != nil {
			return ReplayWindow{}, errors.Wrapf(exception.ErrValueFormat, "replay.start %q", cfg.Start)
		}
		window.Start = window.Start.UTC()
	}
	if cfg.End != "" {
		if window.End, err = time.Parse(time.RFC3339Nano, cfg.End); err != nil {
			return ReplayWindow{}, errors.Wrapf(exception.ErrValueFormat, "replay.end %q", cfg.End)
		}
		window.End = window.End.UTC()
	}
	if !window.Start.IsZero() && !window.End.IsZero() && window.End.Before(window.Start) {
		return ReplayWindow{}, errors.Wrapf(exception.ErrTemporalOrder, "replay.end %s before replay.start %s", cfg.End, cfg.Start)
	}

	if window.Step, err = parseDuration("replay.step", cfg.Step); err != nil {
		return ReplayWindow{}, err
	}
	if window.Step <= 0 {
		return ReplayWindow{}, errors.Wrap(exception.ErrValueRange, "replay.step must be positive")
	}

	return window, nil
}

func resolveJournal(cfg JournalConfig) (JournalSpec, error) {
	switch cfg.Driver {
	case journal.DriverMemory, journal.DriverPostgres:
	default:
		return JournalSpec{}, errors.Wrapf(exception.ErrValueFormat, "journal.driver %q", cfg.Driver)
	}

	return JournalSpec{
		Driver: cfg.Driver,
		Conn: conn.Option{
			Host:       cfg.Host,
			Port:       cfg.Port,
			User:       cfg.User,
			Password:   cfg.Password,
			Database:   cfg.Database,
			SSLMode:    cfg.SSLMode,
			Params:     cfg.Params,
			ConnString: cfg.DSN,
		},
		BatchSize: cfg.BatchSize,
	}, nil
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(exception.ErrValueFormat, "%s %q", field, s)
	}
	if d < 0 {
		return 0, errors.Wrapf(exception.ErrValueRange, "%s %q is negative", field, s)
	}
	return d, nil
}
