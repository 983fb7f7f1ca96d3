package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"go.yaml.in/yaml/v3"

	"github.com/thisisjab/jitsoql/api"
	"github.com/thisisjab/jitsoql/engine"
	"github.com/thisisjab/jitsoql/processor"
	"github.com/thisisjab/jitsoql/source"
	"github.com/thisisjab/jitsoql/storage"
)

type Config struct {
	Logger                LoggerConfig      `yaml:"logger"`
	Storage               StorageConfig     `yaml:"storage"`
	Processors            []ProcessorConfig `yaml:"processors"`
	Sources               []SourceConfig    `yaml:"sources"`
	RecordsBufferSize     uint              `yaml:"records_buffer_size"`
	StorageFlushInterval  time.Duration     `yaml:"storage_flush_interval"`
	ReportsBufferSize     uint              `yaml:"reports_buffer_size"`
	ProcessorWorkersCount uint              `yaml:"processor_workers_count"`
	API                   api.Config        `yaml:"api"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Type  string `yaml:"type"`
	// Output is stdout, stderr or a file path. Defaults to stdout.
	Output string `yaml:"output"`
}

type StorageConfig struct {
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

type ProcessorConfig struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

type SourceConfig struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Processors []string `yaml:"processors"`
	Config     any      `yaml:"config"`
}

// Load reads a YAML config file.
func Load(path string) (Config, error) {
	fileContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read config file content: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(fileContent, &cfg); err != nil {
		return Config{}, fmt.Errorf("cannot parse config file: %w", err)
	}

	return cfg, nil
}

// Parse builds the engine configuration. The logger is returned as soon as
// it exists so callers can report later failures through it.
func (cfg Config) Parse() (*engine.Config, *slog.Logger, error) {
	logger, err := NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create logger: %w", err)
	}

	st, err := parseStorageConfig(cfg.Storage)
	if err != nil {
		return nil, logger, fmt.Errorf("cannot create storage: %w", err)
	}

	processors := make(map[string]engine.QueryProcessor, len(cfg.Processors))
	for _, pc := range cfg.Processors {
		if _, ok := processors[pc.Name]; ok {
			return nil, logger, fmt.Errorf("duplicate processor `%s`", pc.Name)
		}

		p, err := parseProcessorConfig(pc)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create processor `%s`: %w", pc.Name, err)
		}
		processors[pc.Name] = p
	}

	sources := make(map[string]engine.QuerySource, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		if _, ok := sources[sc.Name]; ok {
			return nil, logger, fmt.Errorf("duplicate source `%s`", sc.Name)
		}

		s, err := parseSourceConfig(logger, sc)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create source `%s`: %w", sc.Name, err)
		}
		sources[sc.Name] = s
	}

	return &engine.Config{
		RecordsBufferMaxSize:  cfg.RecordsBufferSize,
		StorageFlushInterval:  cfg.StorageFlushInterval,
		ReportsBufferMaxSize:  cfg.ReportsBufferSize,
		ProcessorWorkersCount: cfg.ProcessorWorkersCount,
		Storage:               st,
		Processors:            processors,
		Sources:               sources,
	}, logger, nil
}

func NewLogger(cfg LoggerConfig) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var newHandler func(w io.Writer) slog.Handler
	switch cfg.Type {
	case "json":
		newHandler = func(w io.Writer) slog.Handler {
			return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
		}
	case "text":
		newHandler = func(w io.Writer) slog.Handler {
			return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
		}
	case "colored-text", "":
		newHandler = func(w io.Writer) slog.Handler {
			return tint.NewHandler(w, &tint.Options{Level: level, AddSource: true, TimeFormat: time.Kitchen})
		}
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Type)
	}

	// The output is opened last so a rejected config never holds a file.
	var w io.Writer
	switch cfg.Output {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("cannot open log output: %w", err)
		}
		w = f
	}

	return slog.New(newHandler(w)), nil
}

func parseStorageConfig(cfg StorageConfig) (engine.Storage, error) {
	switch cfg.Type {
	case "jsonl":
		var jsonlConfig storage.JSONLinesStorageConfig

		if err := remarshal(cfg.Config, &jsonlConfig); err != nil {
			return nil, fmt.Errorf("cannot parse jsonl storage config: %w", err)
		}

		s, err := storage.NewJSONLinesStorage(jsonlConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create jsonl storage: %w", err)
		}

		return s, nil

	default:
		return nil, fmt.Errorf("invalid storage type: %s", cfg.Type)
	}
}

func parseSourceConfig(logger *slog.Logger, cfg SourceConfig) (engine.QuerySource, error) {
	switch cfg.Type {
	case "file":
		var fileConfig source.FileQuerySourceConfig
		err := remarshal(cfg.Config, &fileConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create file source: %w", err)
		}

		fileConfig.Name = cfg.Name
		fileConfig.ProcessorNames = cfg.Processors

		s, err := source.NewFileQuerySource(logger, fileConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create file source: %w", err)
		}

		return s, nil
	default:
		return nil, fmt.Errorf("invalid query source type: %s", cfg.Type)
	}
}

func parseProcessorConfig(cfg ProcessorConfig) (engine.QueryProcessor, error) {
	switch cfg.Type {
	case "validate":
		var validateConfig processor.ValidateProcessorConfig
		if err := remarshal(cfg.Config, &validateConfig); err != nil {
			return nil, fmt.Errorf("cannot create validate processor: %w", err)
		}

		validateConfig.Name = cfg.Name

		p, err := processor.NewValidateProcessor(validateConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create validate processor: %w", err)
		}

		return p, nil
	case "bind":
		var bindConfig processor.BindProcessorConfig
		if err := remarshal(cfg.Config, &bindConfig); err != nil {
			return nil, fmt.Errorf("cannot create bind processor: %w", err)
		}

		bindConfig.Name = cfg.Name

		p, err := processor.NewBindProcessor(bindConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create bind processor: %w", err)
		}

		return p, nil
	case "json":
		var jsonConfig processor.JsonQueryProcessorConfig
		if err := remarshal(cfg.Config, &jsonConfig); err != nil {
			return nil, fmt.Errorf("cannot create json processor: %w", err)
		}

		jsonConfig.Name = cfg.Name

		p, err := processor.NewJsonQueryProcessor(jsonConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create json processor: %w", err)
		}

		return p, nil
	default:
		return nil, fmt.Errorf("invalid query processor type: %s", cfg.Type)
	}
}

// remarshal converts a generic YAML value (like map[string]any) into a
// concrete struct by marshalling it and unmarshalling the result into output,
// which must be a pointer.
func remarshal(input any, output any) error {
	yamlBytes, err := yaml.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	if err := yaml.Unmarshal(yamlBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}

	return nil
}
