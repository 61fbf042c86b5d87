package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/catalog"
	"github.com/secmon-lab/bastion/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Catalog holds CLI flags for the threat catalog and questionnaire templates
type Catalog struct {
	catalogFiles  []string
	templatePaths []string
}

// Flags returns CLI flags for catalog configuration
func (x *Catalog) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "catalog",
			Usage:       "Threat and control catalog file (TOML or YAML). Built-in catalog is used when omitted",
			Category:    "Catalog",
			Sources:     cli.EnvVars("BASTION_CATALOG"),
			Destination: &x.catalogFiles,
		},
		&cli.StringSliceFlag{
			Name:        "template-path",
			Usage:       "Questionnaire template file or directory. Built-in templates are used when omitted",
			Category:    "Catalog",
			Sources:     cli.EnvVars("BASTION_TEMPLATE_PATH"),
			Destination: &x.templatePaths,
		},
	}
}

// Source returns the catalog source described by the flags
func (x *Catalog) Source() catalog.Source {
	return catalog.Source{
		CatalogFiles:  x.catalogFiles,
		TemplatePaths: x.templatePaths,
	}
}

// Configure loads catalogs and templates and builds the template registry
func (x *Catalog) Configure() (*model.TemplateRegistry, error) {
	registry, err := catalog.Load(x.Source())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load catalog",
			goerr.V(CatalogPathKey, x.catalogFiles),
			goerr.V(TemplatePathKey, x.templatePaths))
	}
	return registry, nil
}
