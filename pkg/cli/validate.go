package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/catalog"
	"github.com/secmon-lab/bastion/pkg/cli/config"
	"github.com/secmon-lab/bastion/pkg/usecase"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var catalogCfg config.Catalog
	var repoCfg config.Repository
	var checkDB bool

	var flags []cli.Flag
	flags = append(flags, catalogCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "check-db",
		Usage:       "Check stored assessments and responses against the templates",
		Sources:     cli.EnvVars("BASTION_CHECK_DB"),
		Destination: &checkDB,
	})

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate catalogs and templates and optionally check DB consistency",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// Step 1: Resolve every template reference against the catalogs
			catalogs, templates, err := catalogCfg.Source().Documents()
			if err != nil {
				return goerr.Wrap(err, "failed to read catalog files")
			}

			catalogResult, err := usecase.ValidateCatalogs(catalogs, templates)
			if err != nil {
				return goerr.Wrap(err, "catalog validation failed")
			}
			if catalogResult.HasIssues() {
				for _, issue := range catalogResult.Issues {
					logger.Warn("Catalog issue found",
						"template_id", issue.TemplateID,
						"kind", issue.Kind,
						"message", issue.Message,
						"names", issue.Names,
					)
				}
				return catalogResult.Err()
			}

			logger.Info("Catalog validation passed",
				"catalog_count", len(catalogs),
				"template_count", len(templates),
			)

			// Step 2: Optionally check stored data against the registry
			if !checkDB {
				logger.Info("DB consistency check is not requested, skipping")
				return nil
			}

			kb, err := catalog.BuildKnowledgeBase(catalogs...)
			if err != nil {
				return goerr.Wrap(err, "failed to build knowledge base")
			}
			registry, err := catalog.BuildRegistry(kb, templates...)
			if err != nil {
				return goerr.Wrap(err, "failed to build template registry")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			uc := usecase.New(repo, registry)
			dbResult, err := uc.ValidateDB(ctx)
			if err != nil {
				return goerr.Wrap(err, "DB consistency check failed")
			}

			if dbResult.HasIssues() {
				for _, issue := range dbResult.Issues {
					logger.Warn("DB consistency issue found",
						"assessment_id", issue.AssessmentID,
						"template_id", issue.TemplateID,
						"kind", issue.Kind,
						"message", issue.Message,
						"names", issue.Names,
					)
				}
				return goerr.Wrap(usecase.ErrInvalidInput, "DB consistency check found issues",
					goerr.V("issues", len(dbResult.Issues)))
			}

			logger.Info("DB consistency check passed")
			return nil
		},
	}
}
