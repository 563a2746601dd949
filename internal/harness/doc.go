// Package harness provides dialect conformance testing for metasql.
//
// A scenario holds one query document, renders it in each dialect and
// checks the resolved SQL against exact expectations and assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	dialects: [mysql, postgres, sqlite]   # optional, default all
//	query:
//	  operation: select
//	  columns: ["&Year(created_at)"]
//	  tables: [orders]
//	expect:
//	  mysql: SELECT YEAR(created_at) FROM `orders`;
//	setup:                                # documents run before executes
//	  - {operation: create_table, table: orders, columns: [...]}
//	assertions:
//	  - type: no_markers
//	  - type: contains
//	    dialect: postgres
//	    text: EXTRACT(YEAR
//	  - type: executes
//	    rows: 0
//
// # Assertion Types
//
//   - no_markers: no macro call survives resolution in any render
//   - contains / not_contains: substring checks on the resolved SQL
//   - error: rendering fails, optionally with a given malformed query code
//   - executes: the query runs on a fresh in-memory SQLite database after
//     the setup documents, optionally returning a given row count
//
// # Deterministic Testing
//
// Renders never touch a database. Column discovery for an insert from a
// select is answered from the scenario's source_columns by an in-memory
// fake connection, so renders are identical across runs and can be
// compared with golden files (RunWithGolden).
package harness
