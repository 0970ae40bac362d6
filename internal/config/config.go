package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"tarediiran-industries.com/bus-timetable/internal/schedule"
	"tarediiran-industries.com/bus-timetable/internal/timetable"
)

const (
	DefaultListen          = ":8080"
	DefaultTimeZone        = "Asia/Tokyo"
	DefaultBaseURL         = "https://script.google.com/macros/s/AKfycbyFqCdqeo0DvFUJE8KCM3-6OzwckqNJGstPRtpppYbIu-JUmi_eUo_SkwpUmWhwlF4c/exec"
	DefaultTimeoutSeconds  = 30
	DefaultIntervalSeconds = 300
)

type Source struct {
	BaseURL           string  `toml:"base_url" validate:"required,url"`
	TimeoutSeconds    int     `toml:"timeout_seconds" validate:"gte=0"`
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
	Burst             int     `toml:"burst" validate:"gte=0"`
}

func (source Source) HTTPConfig() schedule.HTTPConfig {
	return schedule.HTTPConfig{
		BaseURL:           source.BaseURL,
		Timeout:           time.Duration(source.TimeoutSeconds) * time.Second,
		RequestsPerSecond: source.RequestsPerSecond,
		Burst:             source.Burst,
	}
}

type Archive struct {
	IntervalSeconds int `toml:"interval_seconds" validate:"gte=0"`
}

func (archive Archive) Interval() time.Duration {
	return time.Duration(archive.IntervalSeconds) * time.Second
}

// Board is one timetable on the page. Name is used in URLs.
type Board struct {
	Name            string              `toml:"name" validate:"required,hostname_rfc1123"`
	Title           string              `toml:"title"`
	Direction       string              `toml:"direction" validate:"required,oneof=outward homeward"`
	DefaultExpanded *bool               `toml:"default_expanded"`
	Route           timetable.StopRoute `toml:"route"`
}

type Config struct {
	Listen    string  `toml:"listen" validate:"required"`
	Telemetry string  `toml:"telemetry" validate:"omitempty,hostname_port"`
	Database  string  `toml:"database"`
	TimeZone  string  `toml:"time_zone" validate:"required"`
	Source    Source  `toml:"source"`
	Archive   Archive `toml:"archive"`
	Boards    []Board `toml:"boards" validate:"required,min=1,unique=Name,dive"`
}

// Default is what runs when no file is given: the shuttle between 千歳駅
// and 本部棟, one board per direction.
func Default() Config {
	return Config{
		Listen:   DefaultListen,
		TimeZone: DefaultTimeZone,
		Source: Source{
			BaseURL:        DefaultBaseURL,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Archive: Archive{IntervalSeconds: DefaultIntervalSeconds},
		Boards:  DefaultBoards(),
	}
}

func DefaultBoards() []Board {
	route := timetable.StopRoute{
		Start: "千歳駅",
		Via1:  "南千歳駅",
		Via2:  "研究実験棟",
		Goal:  "本部棟",
	}

	return []Board{
		{
			Name:      "to-school",
			Title:     "駅->学校",
			Direction: schedule.Outward.String(),
			Route:     route,
		},
		{
			Name:      "to-station",
			Title:     "学校->駅",
			Direction: schedule.Homeward.String(),
			Route:     route.Reversed(),
		},
	}
}

// Load decodes path over the defaults. A file that lists boards replaces
// the default boards entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	cfg.Boards = nil

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("decode %s: unknown key %q", path, undecoded[0].String())
	}

	if len(cfg.Boards) == 0 {
		cfg.Boards = DefaultBoards()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

var validate = validator.New()

func (cfg Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			return fmt.Errorf("invalid config: %s failed %q", first.Namespace(), first.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TimeZone. Times are displayed in this zone whatever the
// zone of the host.
func (cfg Config) Location() (*time.Location, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", cfg.TimeZone, err)
	}
	return location, nil
}

func (cfg Config) Board(name string) (Board, bool) {
	for _, board := range cfg.Boards {
		if board.Name == name {
			return board, true
		}
	}
	return Board{}, false
}

// ViewOptions is the starting state of the board's view.
func (board Board) ViewOptions(location *time.Location) timetable.Options {
	title := board.Title
	if title == "" {
		title = board.Name
	}

	return timetable.Options{
		Name:            board.Name,
		Summary:         title,
		Direction:       schedule.Direction(board.Direction),
		Route:           board.Route,
		DefaultExpanded: board.DefaultExpanded,
		Location:        location,
	}
}
