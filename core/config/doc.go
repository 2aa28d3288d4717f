// Package config defines the three documents a simulation project is built
// from — component definitions (dataState.json), generated-type definitions
// (genState.json), and the edge list (edge.json) — together with the loader
// shared by all of them.
//
// The loader parses strict JSON first and, when that fails, attempts to
// repair the document before giving up, so hand-edited project files with
// trailing commas or unquoted keys still load.
package config
