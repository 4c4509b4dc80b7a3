package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/bookweave/internal/registry"
	"github.com/bookweave/pkg/models"
)

// VariableSpec is a user-defined template variable declared in the config
// file. It lands in the "user" category of the registry.
type VariableSpec struct {
	Name        string   `koanf:"name"`
	Type        string   `koanf:"type"`
	Description string   `koanf:"description"`
	Stages      []string `koanf:"stages"`
	Required    bool     `koanf:"required"`
}

// Config represents the application configuration
type Config struct {
	General struct {
		DefaultStage string `koanf:"default_stage"`
		LogLevel     string `koanf:"log_level"`
	} `koanf:"general"`

	Variables []VariableSpec    `koanf:"variables"`
	Aliases   map[string]string `koanf:"aliases"`
}

// LoadConfig loads the configuration from a file, falling back to default
// locations and finally to environment variables with the BOOKWEAVE_ prefix.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"general.default_stage": string(models.StageTranslation),
		"general.log_level":     "info",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./bookweave.toml", "$HOME/.bookweave.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix BOOKWEAVE_
	k.Load(env.Provider("BOOKWEAVE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "BOOKWEAVE_")), "_", ".", -1)
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# bookweave configuration

[general]
default_stage = "translation"
log_level = "info"

# Extra template variables, added to the "user" category.
# [[variables]]
# name = "imprint"
# type = "string"
# description = "Publisher imprint line"
# stages = ["translation", "proofreading"]
# required = false

# Extra alias table entries: legacy reference -> canonical full name.
# [aliases]
# "content.body" = "content.paragraph"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if _, err := models.ParseStage(config.General.DefaultStage); err != nil {
		return fmt.Errorf("general.default_stage: %w", err)
	}

	switch config.General.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("general.log_level: unknown level %q", config.General.LogLevel)
	}

	for _, spec := range config.Variables {
		if spec.Name == "" {
			return fmt.Errorf("variables: every entry needs a name")
		}
		if strings.Contains(spec.Name, ".") {
			return fmt.Errorf("variable %q: name must be a short identifier; it is registered as user.%s", spec.Name, spec.Name)
		}
		if _, err := models.ParseVariableType(spec.Type); err != nil {
			return fmt.Errorf("variable %q: %w", spec.Name, err)
		}
		for _, s := range spec.Stages {
			if _, err := models.ParseStage(s); err != nil {
				return fmt.Errorf("variable %q: %w", spec.Name, err)
			}
		}
	}

	return nil
}

// BuildRegistry merges the config's user variables and alias overrides into
// the built-in registry.
func BuildRegistry(config *Config) (*registry.Registry, error) {
	if err := Validate(config); err != nil {
		return nil, err
	}

	defs := make([]models.VariableDefinition, 0, len(config.Variables))
	for _, spec := range config.Variables {
		varType, _ := models.ParseVariableType(spec.Type)
		stages := make([]models.Stage, 0, len(spec.Stages))
		for _, s := range spec.Stages {
			stage, _ := models.ParseStage(s)
			stages = append(stages, stage)
		}
		if len(stages) == 0 {
			stages = append(stages, models.AllStages...)
		}
		defs = append(defs, models.VariableDefinition{
			Name:        spec.Name,
			FullName:    "user." + spec.Name,
			Type:        varType,
			Description: spec.Description,
			Stages:      stages,
			Required:    spec.Required,
		})
	}

	return registry.Default().WithUserVariables(defs, config.Aliases)
}
