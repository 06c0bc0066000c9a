// Package pkg provides the core libraries for ecomap ecosystem maps.
//
// # Overview
//
// Ecomap turns a table of companies into a map of category boxes, each
// holding subcategory groups of company tiles. The pkg directory is
// organized into four areas:
//
//  1. Model - [ecosystem] entities and grouping, [layout] tier table,
//     estimator and auto-layout engine, [interact] pointer gestures
//  2. State - [store] (the map a user edits), [io] table import and
//     documents, [logo] blobs and references
//  3. Output - [render] scenes and the [render/sink] exporters
//  4. Infrastructure - [pipeline] orchestration, [cache], [session],
//     [server], [config], [observability] and [errors]
//
// # Architecture
//
// The typical data flow through ecomap:
//
//	CSV / JSON file
//	       ↓
//	  [io] package (read table, map columns → companies)
//	       ↓
//	  [store] package (group, lay out, keep manual edits)
//	       ↓
//	  [render] package (scene geometry)
//	       ↓
//	  PNG/SVG/PDF/JSON/DOT output
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "companies.csv",
//	    LogoDir: "logos",
//	    Formats: []string{"svg", "png"},
//	})
//	os.WriteFile("map.svg", result.Artifacts["svg"], 0o644)
//
// Keep editing the result and render again:
//
//	st := result.Store
//	st.Move("Infrastructure", ecosystem.Position{X: 40, Y: 40})
//	err = runner.Render(ctx, result, pipeline.Options{Formats: []string{"pdf"}})
//
// [ecosystem]: github.com/matzehuels/ecomap/pkg/ecosystem
// [layout]: github.com/matzehuels/ecomap/pkg/layout
// [interact]: github.com/matzehuels/ecomap/pkg/interact
// [store]: github.com/matzehuels/ecomap/pkg/store
// [io]: github.com/matzehuels/ecomap/pkg/io
// [logo]: github.com/matzehuels/ecomap/pkg/logo
// [render]: github.com/matzehuels/ecomap/pkg/render
// [render/sink]: github.com/matzehuels/ecomap/pkg/render/sink
// [pipeline]: github.com/matzehuels/ecomap/pkg/pipeline
// [cache]: github.com/matzehuels/ecomap/pkg/cache
// [session]: github.com/matzehuels/ecomap/pkg/session
// [server]: github.com/matzehuels/ecomap/pkg/server
// [config]: github.com/matzehuels/ecomap/pkg/config
// [observability]: github.com/matzehuels/ecomap/pkg/observability
// [errors]: github.com/matzehuels/ecomap/pkg/errors
package pkg
