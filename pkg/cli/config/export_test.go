package config

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID, postgresDSN, sqlitePath string) *Repository {
	return &Repository{
		backend:     backend,
		projectID:   projectID,
		postgresDSN: postgresDSN,
		sqlitePath:  sqlitePath,
	}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID string) *Slack {
	return &Slack{
		botToken:  botToken,
		channelID: channelID,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewCatalogForTest creates a Catalog config for testing purposes
func NewCatalogForTest(catalogFiles, templatePaths []string) *Catalog {
	return &Catalog{
		catalogFiles:  catalogFiles,
		templatePaths: templatePaths,
	}
}
