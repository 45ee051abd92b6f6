package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"golang.org/x/text/language"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ExtractorConfig struct {
		MaxPDFSize    int64 `yaml:"max_pdf_size" validate:"gte=0"`
		MaxTextLength int   `yaml:"max_text_length" validate:"gte=0"`
	}

	StructurerConfig struct {
		APIKey      SecretString `yaml:"api_key"`
		BaseURL     string       `yaml:"base_url" validate:"omitempty,url"`
		Model       string       `yaml:"model" validate:"required"`
		Temperature float32      `yaml:"temperature" validate:"gte=0,lte=2"`
	}

	PackagerConfig struct {
		Language              string `yaml:"language" validate:"required"`
		StylesheetPath        string `yaml:"stylesheet_path" sanitize:"assure_file_access"`
		FixZip                bool   `yaml:"fix_zip"`
		OutputNameTemplate    string `yaml:"output_name_template"`
		FileNameTransliterate bool   `yaml:"file_name_transliterate"`
		MetadataTransliterate bool   `yaml:"metadata_transliterate"`
	}

	Config struct {
		Version    int              `yaml:"version" validate:"eq=1"`
		Extractor  ExtractorConfig  `yaml:"extractor"`
		Structurer StructurerConfig `yaml:"structurer"`
		Packager   PackagerConfig   `yaml:"packager"`
		Logging    LoggingConfig    `yaml:"logging"`
		Reporting  ReporterConfig   `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
	apiKeyFieldName             string            = "api_key"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// LanguageTag returns parsed language of generated books.
func (conf *PackagerConfig) LanguageTag() (language.Tag, error) {
	tag, err := language.Parse(conf.Language)
	switch {
	case err != nil:
	case tag == language.Und:
		err = errors.New("language is undetermined")
	case len(tag.Extensions()) > 0:
		err = errors.New("extensions and private use subtags are not allowed")
	default:
		if _, c := tag.Base(); c == language.No {
			err = errors.New("unknown base language")
		}
	}
	if err != nil {
		return language.Und, fmt.Errorf("bad book language %q: %w", conf.Language, err)
	}
	return tag, nil
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
		if _, err := cfg.Packager.LanguageTag(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file, file may use the same
	// template expressions as defaults (dumpconfig --default output does)
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	data, err = gencfg.Process(data, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice. Credential is left as template expression.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, append(requiredOptions, gencfg.WithDoNotExpandField(apiKeyFieldName))...)
}

// Dump returns actual configuration as YAML, secrets are masked.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
