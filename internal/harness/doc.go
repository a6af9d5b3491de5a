// Package harness runs query scenarios end to end: queries are decoded from
// YAML, compiled by the engine, optionally executed against an in-memory
// SQLite database, and checked against expectations and golden snapshots.
//
// # Scenario Format
//
//	name: people_by_region
//	description: "Composite keys expand and plans are reused"
//	dialect: sqlite
//	model: ../models/shop.cue
//	setup:
//	  - create: Region
//	  - sql: INSERT INTO "region" ("id", "name") VALUES (1, 'north')
//	steps:
//	  - name: by_region
//	    query:
//	      select:
//	        alias: p
//	        from: {table: {name: people, alias: p}}
//	        where:
//	          eq:
//	            - {related: {entity: Person, property: Region, alias: p}}
//	            - {key: {entity: Region, first: 0}}
//	    constants: [{int: 1}, {string: north}]
//	    execute: true
//	    expect:
//	      reusable: true
//	      cached: false
//	      rows: [["ann"]]
//	  - name: from_file
//	    document: queries/people.yaml
//
// A step holds either an inline query in query document syntax or the path
// of a query document. Step constants and projector override the document's.
//
// # Expectations
//
//   - sql: exact SQL text, compared after trimming
//   - parameters: bound values in order
//   - reusable, cached: plan reuse flags
//   - rows, affected: outcome of an executed step
//   - error: substring of the step's compile or execution error
//
// Every step in a scenario shares one engine, so repeating a query shape
// in a later step exercises the plan cache.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/people.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario, harness.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
