// Package core defines the shared domain model of WordMesh: the per-turn
// Decision emitted by the decision resolver, the three style record families
// (mnemonic, image, voice) with their provenance tiers, the long-lived
// SessionState mutated by generation stages, and the terminal WordMemoryResult
// assembled at the end of a turn.
//
// Types here carry no behavior beyond construction, validation and cloning so
// that every other package (resolver, orchestrator, stages, assembler, stores)
// can depend on core without cycles.
package core
