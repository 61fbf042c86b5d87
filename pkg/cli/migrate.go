package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/repository/firestore"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
	"github.com/secmon-lab/bastion/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var (
		projectID  string
		databaseID string
		dryRun     bool
	)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create the Firestore indexes scenario queries depend on",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore project ID",
				Category:    "Firestore",
				Required:    true,
				Sources:     cli.EnvVars("BASTION_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore database ID",
				Category:    "Firestore",
				Sources:     cli.EnvVars("BASTION_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Print the index plan without applying it",
				Sources:     cli.EnvVars("BASTION_MIGRATE_DRY_RUN"),
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Starting index migration",
				"project_id", projectID,
				"database_id", databaseID,
				"dry_run", dryRun,
			)

			client, err := fireconf.NewClient(ctx, projectID, databaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client",
					goerr.V("project_id", projectID),
					goerr.V("database_id", databaseID),
				)
			}
			defer safe.Close(ctx, client)

			if dryRun {
				return planIndexes(ctx, client)
			}
			return applyIndexes(ctx, client)
		},
	}
}

func planIndexes(ctx context.Context, client *fireconf.Client) error {
	plan, err := client.GetMigrationPlan(ctx, scenarioIndexes())
	if err != nil {
		return goerr.Wrap(err, "failed to build index plan")
	}

	logger := logging.From(ctx)
	if len(plan.Steps) == 0 {
		logger.Info("Indexes are up to date")
		return nil
	}
	for _, step := range plan.Steps {
		logger.Info("Planned index change",
			"collection", step.Collection,
			"operation", step.Operation,
			"description", step.Description,
			"destructive", step.Destructive,
		)
	}
	return nil
}

func applyIndexes(ctx context.Context, client *fireconf.Client) error {
	if err := client.Migrate(ctx, scenarioIndexes()); err != nil {
		return goerr.Wrap(err, "failed to migrate indexes")
	}
	logging.From(ctx).Info("Index migration finished")
	return nil
}

// scenarioIndexes covers ScenarioRepository.ListByAssessment, which filters
// on assessment_id and orders by created_at. Responses live in a
// per-assessment subcollection and need no composite index.
func scenarioIndexes() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.ScenariosCollection,
				Indexes: []fireconf.Index{
					{
						Fields: []fireconf.IndexField{
							{Path: "assessment_id", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
