package archive

import (
	"flag"
	"fmt"
	"io"

	"tarediiran-industries.com/bus-timetable/internal/common"
	"tarediiran-industries.com/bus-timetable/internal/config"
)

type Config struct {
	Version        bool
	Once           bool
	TomlConfigPath string
	Telemetry      string
	File           config.Config
}

func ParseArgs(programName string, args []string, errOut io.Writer) (Config, error) {
	cfg := Config{File: config.Default()}

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errOut)

	fs.Usage = func() {
		fmt.Fprintf(errOut, "Usage: %s [options]\n\n", programName)
		fmt.Fprintln(errOut, "Options")
		fs.PrintDefaults()
	}

	fs.BoolVar(&cfg.Version, "version", false, "Prints CLI version")
	fs.BoolVar(&cfg.Once, "once", false, "Archive a single sample and exit")
	fs.StringVar(&cfg.TomlConfigPath, "toml", "", "Configuration file")
	fs.StringVar(&cfg.Telemetry, "telemetry", "", "Telemetry listen address, overrides the file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Version {
		fmt.Fprintf(errOut, "%s: version %s (%s)\n", programName, common.Version, common.GitCommit)
		return cfg, flag.ErrHelp
	}

	if cfg.TomlConfigPath != "" {
		file, err := config.Load(cfg.TomlConfigPath)
		if err != nil {
			return Config{}, fmt.Errorf("config.Load: %w", err)
		}
		cfg.File = file
	}

	if cfg.Telemetry != "" {
		cfg.File.Telemetry = cfg.Telemetry
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg Config) Validate() error {
	if err := cfg.File.Validate(); err != nil {
		return err
	}
	if cfg.File.Database == "" {
		return fmt.Errorf("missing required setting: database")
	}
	if cfg.File.Archive.IntervalSeconds <= 0 {
		return fmt.Errorf("archive.interval_seconds must be positive")
	}
	return nil
}

func Main(programName string, args []string, out, errOut io.Writer) int {
	cfg, err := ParseArgs(programName, args, errOut)
	if err != nil {
		if flag.ErrHelp == err {
			return 0
		}
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}

	return Run(cfg)
}
