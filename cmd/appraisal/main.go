/*
main.go - appraisal command

PURPOSE:
  The appraisal command: serves the HTTP API and offers offline tooling
  over configuration documents.

COMMANDS:
  serve     HTTP server with graceful shutdown
  simulate  Score one answer set against a master from config files
  validate  Load and validate configuration documents

CONFIGURATION:
  Flags, APPRAISAL_* environment variables and .appraisalrc.{json,yaml,yml}
  (see config/config.go).

EXAMPLES:
  # Serve from a database file
  appraisal serve --db-path ./data/appraisal.db

  # Serve from a throwaway in-memory database
  appraisal serve --db-path :memory:

  # Preview a score
  appraisal simulate --config configs/annual.yaml --master annual-2025 \
      --department sales --job sales-rep --answers '{"teamwork": 4}'

SEE ALSO:
  - api/server.go: Router configuration
  - factory/load.go: Configuration document loading
*/
package main

func main() {
	Execute()
}
