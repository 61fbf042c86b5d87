package cli

var ScenarioIndexes = scenarioIndexes
