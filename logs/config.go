package logs

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/reusee/lazyphy/configs"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Config struct {
	Level  slog.Level
	Format Format
}

func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelInfo,
		Format: FormatText,
	}
}

type logSection struct {
	Level  *string `json:"level"`
	Format *string `json:"format"`
}

func (Module) Config(
	loader configs.Loader,
) Config {
	config := DefaultConfig()
	var section logSection
	if err := loader.AssignFirst("log", &section); err != nil {
		if errors.Is(err, configs.ErrValueNotFound) {
			return config
		}
		panic(err)
	}
	if section.Level != nil {
		if err := config.Level.UnmarshalText([]byte(*section.Level)); err != nil {
			panic(fmt.Errorf("log level: %w", err))
		}
	}
	if section.Format != nil {
		config.Format = Format(*section.Format)
	}
	return config
}
