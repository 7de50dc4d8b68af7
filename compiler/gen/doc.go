// Package gen turns a loaded OCSF schema version into Go validator packages.
//
// # Architecture
//
// The code generation pipeline follows this flow:
//
//	load.Schema (raw JSON tree)
//	        ↓
//	   Resolve (extends chains flattened, dictionary overlays applied)
//	        ↓
//	   BreakCycles (Tarjan components, deferred edges, topological order)
//	        ↓
//	   Graph (immutable, one per version)
//	        ↓
//	   Generator.Files (jennifer, rendered in parallel)
//	        ↓
//	   Writer (staged directory renamed into place)
//
// # Generated layout
//
// Each version is written to <target>/<slug>:
//
//	v1_7/v1_7.go            version barrel: Version, Objects, Events, Classes
//	v1_7/doc.go             package documentation
//	v1_7/objects/*.go       one struct and validator per object, plus Slots and Registry
//	v1_7/events/*.go        one struct, validator and ClassInfo per event class
//	v1_7/enums/*.go         one named integer type per enumerated attribute
//
// Object validators are registered in a per-version validate.Arena. An edge
// chosen to break a reference cycle is emitted as Slots.Lazy("name") and
// bound on first validation; every other reference is a plain variable
// reference, which Go orders at package initialization.
//
// # Error Handling
//
// The package uses structured error types:
//
//   - SchemaError: malformed entity definitions (unknown or cyclic extends)
//   - EdgeError: attributes referencing objects that do not exist
//   - CycleError: reference cycles that no deferred edge can break
//   - GenerationError: rendering and writing failures
//   - ConfigError: invalid configuration
//
// Example error handling:
//
//	graph, err := gen.NewGraph(cfg, version, schema)
//	if err != nil {
//	    if gen.IsCycleError(err) {
//	        // Handle cycle-specific error
//	    }
//	    return err
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	cfg, err := gen.NewConfig(
//	    gen.WithTarget("./ocsf"),
//	    gen.WithPackage("github.com/acme/project/ocsf"),
//	    gen.WithStrict("authentication"),
//	)
package gen
