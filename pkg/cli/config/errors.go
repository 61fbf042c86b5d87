package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig   = goerr.New("invalid configuration")
	ErrMissingOption   = goerr.New("required option is missing")
	ErrInvalidBackend  = goerr.New("invalid repository backend")
	ErrInvalidLogLevel = goerr.New("invalid log level")
)

// Context keys for error values
const (
	CatalogPathKey  = "catalog_path"
	TemplatePathKey = "template_path"
	BackendKey      = "backend"
	OptionKey       = "option"
)
