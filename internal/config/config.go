// Package config loads tournament settings from a config file, TAKMATCH_*
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ChizhovVadim/takmatch/internal/arena"
	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/internal/openings"
	"github.com/ChizhovVadim/takmatch/internal/schedule"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

var ErrConfig = errors.New("invalid configuration")

const (
	envPrefix   = "TAKMATCH"
	defaultFile = "takmatch/config.yaml"
	engineFlag  = "engine"
	configFlag  = "config"
)

type Engine struct {
	Name string   `mapstructure:"name"`
	Path string   `mapstructure:"path"`
	Args []string `mapstructure:"args"`
	// Options are "Name=value" pairs sent with setoption.
	Options []string `mapstructure:"options"`
}

type SPRT struct {
	Enabled bool    `mapstructure:"sprt"`
	Elo0    float64 `mapstructure:"sprt-elo0"`
	Elo1    float64 `mapstructure:"sprt-elo1"`
	Alpha   float64 `mapstructure:"sprt-alpha"`
	Beta    float64 `mapstructure:"sprt-beta"`
}

type Config struct {
	Engines        []Engine      `mapstructure:"engines"`
	Games          int           `mapstructure:"games"`
	Rounds         int           `mapstructure:"rounds"`
	Concurrency    int           `mapstructure:"concurrency"`
	Size           int           `mapstructure:"size"`
	Komi           float64       `mapstructure:"komi"`
	MoveLimit      int           `mapstructure:"move-limit"`
	TimeControl    string        `mapstructure:"tc"`
	MoveOverhead   time.Duration `mapstructure:"move-overhead"`
	StartupTimeout time.Duration `mapstructure:"startup-timeout"`
	Format         string        `mapstructure:"format"`
	Book           []string      `mapstructure:"book"`
	BookFormat     string        `mapstructure:"book-format"`
	BookStart      int           `mapstructure:"book-start"`
	Shuffle        bool          `mapstructure:"shuffle"`
	Seed           int64         `mapstructure:"seed"`
	PTNOut         string        `mapstructure:"ptnout"`
	Database       string        `mapstructure:"db"`
	HTTP           string        `mapstructure:"http"`
	SPRT           SPRT          `mapstructure:",squash"`
	Verbose        bool          `mapstructure:"verbose"`
	LogFile        string        `mapstructure:"log"`
}

// AddFlags declares the command line flags. Flag names are the config keys.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(configFlag, "", "config file (default $XDG_CONFIG_HOME/"+defaultFile+")")
	flags.StringArrayP(engineFlag, "e", nil, "engine: name=<n>,path=<p>,args=<a b>,option.<Name>=<value> (repeatable)")
	flags.IntP("games", "g", 0, "number of games, 0 plays every pairing on every opening")
	flags.IntP("rounds", "r", 0, "number of openings to play every pairing on")
	flags.IntP("concurrency", "c", 1, "games played in parallel")
	flags.Int("size", 5, "board size")
	flags.Float64("komi", 0, "komi in flats, a multiple of 0.5")
	flags.Int("move-limit", tak.DefaultMoveLimit, "full moves after which a game is drawn")
	flags.String("tc", "60+0.6", "time control base[+increment] in seconds")
	flags.Duration("move-overhead", 50*time.Millisecond, "time allowed on top of the clock before a flag falls")
	flags.Duration("startup-timeout", 10*time.Second, "time limit for the engine handshake")
	flags.String("format", schedule.RoundRobin.String(), "tournament format: round-robin, book-test or gauntlet")
	flags.StringSlice("book", nil, "opening book files")
	flags.String("book-format", openings.Auto.String(), "opening book format: auto, tps, moves or ptn")
	flags.Int("book-start", 0, "index of the first opening")
	flags.Bool("shuffle", false, "shuffle the opening book")
	flags.Int64("seed", 0, "shuffle seed, 0 uses the clock")
	flags.String("ptnout", "", "file the finished games are appended to")
	flags.String("db", "", "SQLite results database")
	flags.String("http", "", "listen address of the status server, e.g. :8080")
	flags.Bool("sprt", false, "stop a two engine match by SPRT")
	flags.Float64("sprt-elo0", 0, "SPRT H0 elo")
	flags.Float64("sprt-elo1", 5, "SPRT H1 elo")
	flags.Float64("sprt-alpha", 0.05, "SPRT false positive rate")
	flags.Float64("sprt-beta", 0.05, "SPRT false negative rate")
	flags.BoolP("verbose", "v", false, "log engine protocol traffic")
	flags.String("log", "", "also write the log to this file")
}

// Load merges the config sources. Precedence, highest first: flags set on the
// command line, environment, config file, flag defaults. Engines given with
// --engine are appended to the engines of the config file.
func Load(flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: .env: %v", ErrConfig, err)
	}

	var v = viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == engineFlag || f.Name == configFlag || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(f.Name, f)
	})
	if bindErr != nil {
		return Config{}, bindErr
	}

	var file, _ = flags.GetString(configFlag)
	if file == "" {
		if path, err := xdg.SearchConfigFile(defaultFile); err == nil {
			file = path
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	var specs, _ = flags.GetStringArray(engineFlag)
	for _, s := range specs {
		var e, err = ParseEngine(s)
		if err != nil {
			return Config{}, err
		}
		cfg.Engines = append(cfg.Engines, e)
	}
	return cfg, nil
}

// ParseEngine parses name=<n>,path=<p>,args=<a b>,option.<Name>=<value>.
// The name defaults to the file name of the path.
func ParseEngine(s string) (Engine, error) {
	var e Engine
	for _, field := range strings.Split(s, ",") {
		var key, value, ok = strings.Cut(field, "=")
		if !ok {
			return Engine{}, fmt.Errorf("%w: engine %q: expected key=value, got %q", ErrConfig, s, field)
		}
		switch {
		case key == "name":
			e.Name = value
		case key == "path":
			e.Path = value
		case key == "args":
			e.Args = strings.Fields(value)
		case strings.HasPrefix(key, "option."):
			e.Options = append(e.Options, strings.TrimPrefix(key, "option.")+"="+value)
		default:
			return Engine{}, fmt.Errorf("%w: engine %q: unknown key %q", ErrConfig, s, key)
		}
	}
	if e.Path == "" {
		return Engine{}, fmt.Errorf("%w: engine %q: path required", ErrConfig, s)
	}
	if e.Name == "" {
		e.Name = filepath.Base(e.Path)
	}
	return e, nil
}

func (c *Config) Validate() error {
	if _, err := c.EngineSpecs(); err != nil {
		return err
	}
	if _, err := c.Tournament(nil); err != nil {
		return err
	}
	if _, err := c.RunnerOptions(); err != nil {
		return err
	}
	if _, err := c.BookOptions(); err != nil {
		return err
	}
	return nil
}

func (c *Config) EngineSpecs() ([]domain.EngineSpec, error) {
	if len(c.Engines) == 0 {
		return nil, fmt.Errorf("%w: no engines", ErrConfig)
	}
	var names = make(map[string]bool)
	var result []domain.EngineSpec
	for _, e := range c.Engines {
		if e.Name == "" || e.Path == "" {
			return nil, fmt.Errorf("%w: engine needs a name and a path", ErrConfig)
		}
		if names[e.Name] {
			return nil, fmt.Errorf("%w: duplicate engine name %q", ErrConfig, e.Name)
		}
		names[e.Name] = true
		var spec = domain.EngineSpec{Name: e.Name, Path: e.Path, Args: e.Args}
		for _, o := range e.Options {
			var name, value, ok = strings.Cut(o, "=")
			if !ok || name == "" {
				return nil, fmt.Errorf("%w: engine %v: bad option %q", ErrConfig, e.Name, o)
			}
			spec.Options = append(spec.Options, domain.OptionValue{Name: name, Value: value})
		}
		result = append(result, spec)
	}
	return result, nil
}

func (c *Config) HalfKomi() (int, error) {
	var half = c.Komi * 2
	if half < 0 || half != math.Trunc(half) {
		return 0, fmt.Errorf("%w: komi %v", ErrConfig, c.Komi)
	}
	return int(half), nil
}

// Tournament builds the scheduler options for the given opening book.
func (c *Config) Tournament(book []domain.Opening) (schedule.Options, error) {
	var format, err = schedule.ParseFormat(c.Format)
	if err != nil {
		return schedule.Options{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	tc, err := domain.ParseTimeControl(c.TimeControl)
	if err != nil {
		return schedule.Options{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	halfKomi, err := c.HalfKomi()
	if err != nil {
		return schedule.Options{}, err
	}
	var o = schedule.Options{
		Format:      format,
		Engines:     len(c.Engines),
		Openings:    book,
		Games:       c.Games,
		Rounds:      c.Rounds,
		StartIndex:  c.BookStart,
		Size:        c.Size,
		HalfKomi:    halfKomi,
		MoveLimit:   c.MoveLimit,
		TimeControl: tc,
	}
	if err := o.Validate(); err != nil {
		return schedule.Options{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return o, nil
}

func (c *Config) RunnerOptions() (arena.Options, error) {
	var specs, err = c.EngineSpecs()
	if err != nil {
		return arena.Options{}, err
	}
	var o = arena.Options{
		Engines:        specs,
		Concurrency:    c.Concurrency,
		MoveOverhead:   c.MoveOverhead,
		StartupTimeout: c.StartupTimeout,
	}
	if c.SPRT.Enabled {
		o.SPRT = &arena.SPRT{Elo0: c.SPRT.Elo0, Elo1: c.SPRT.Elo1, Alpha: c.SPRT.Alpha, Beta: c.SPRT.Beta}
	}
	if err := o.Validate(); err != nil {
		return arena.Options{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return o, nil
}

func (c *Config) BookOptions() (openings.Options, error) {
	var format, err = openings.ParseFormat(c.BookFormat)
	if err != nil {
		return openings.Options{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if _, _, err := tak.Reserves(c.Size); err != nil {
		return openings.Options{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	var seed = c.Seed
	if c.Shuffle && seed == 0 {
		seed = time.Now().UnixNano()
	}
	return openings.Options{Format: format, Size: c.Size, Shuffle: c.Shuffle, Seed: seed}, nil
}
