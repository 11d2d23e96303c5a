// Package harness provides conformance testing for the rolltide compiler.
//
// The harness writes a scenario's RT sources into a scratch directory,
// builds IR, validates it, generates the target's declarations and then
// checks the outcome against the scenario's assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: owner_naming
//	description: "into-blocks prefix the owner onto function identifiers"
//	sources:
//	  main.rt: |
//	    include <motor>
//	  lib/motor.rt: |
//	    into Motor
//	      def open[port: u8] -> f32
//	inputs: [main.rt]        # default: main.rt
//	lib_dirs: [lib]          # default: lib
//	target: pros             # default: pros
//	assertions:
//	  - type: module_order
//	    modules: [motor, main]
//	  - type: artifact_contains
//	    path: include/motor.h
//	    contains: ["float Motor_open(unsigned char port);"]
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - module_order: the program's modules, in order, are exactly modules
//   - diagnostic_count: code was reported exactly count times
//   - artifact_contains: the artifact at path contains every string in
//     contains and none in excludes
//   - artifact_absent: no artifact was generated at path
//   - query: the jq expression yields exactly one value, equal to expect
//
// # Golden Files
//
// RunWithGolden stores a canonical JSON snapshot of the IR document, the
// artifact paths and the diagnostic codes under testdata/golden. To
// regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
