// Package harness runs end-to-end generation scenarios.
//
// A scenario carries everything a run needs inline: the manifest, the
// probe dumps the binding layer would record and the GIR documents. The
// harness serves the dumps from memory through the snapshot service, runs
// the full pipeline and evaluates assertions over the emitted tree.
//
// # Scenario Format
//
//	name: core_ext
//	description: "Ext subclasses a Core widget across groups"
//	manifest:
//	  namespaces:
//	    - { name: Core, version: "1.0" }
//	    - { name: Ext, version: "2.0", preloads: [Core] }
//	  groups:
//	    - { name: core, namespaces: [Core] }
//	    - { name: ext, namespaces: [Ext], depends_on: [core] }
//	snapshots:
//	  - namespace: Core
//	    version: "1.0"
//	    entities: [...]
//	docs:
//	  Core-1.0.gir: |
//	    <repository>...</repository>
//	assertions:
//	  - type: file_contains
//	    path: ext/gi-stubs/repository/Ext.pyi
//	    text: "class Fancy(Core.Widget):"
//	  - type: diagnostic
//	    code: UNRESOLVED
//	    count: 1
//	golden: true
//
// # Assertion Types
//
//   - files: the exact emitted paths, in order
//   - file_contains / file_absent: one emitted file
//   - diagnostic: diagnostics by code and optional namespace, with an
//     optional exact count
//   - run_error: the run failed, optionally with a message substring
//   - no_raw_refs: no raw type reference survived resolution
package harness
