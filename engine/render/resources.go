package render

import (
	"github.com/EliiasG/modula/asset"
)

// Resources is the asset context handed to operations while a sequence runs.
// Targets and sequences are the only types the render core stores itself.
type Resources struct {
	Targets   *asset.Store[Target]
	Sequences *asset.Store[*Sequence]
}

// NewResources creates empty target and sequence stores.
//
// Returns:
//   - *Resources: the new resource context.
func NewResources() *Resources {
	return &Resources{
		Targets:   asset.NewStore[Target](),
		Sequences: asset.NewStore[*Sequence](),
	}
}

// Target looks up a render target, panicking when the id is stale. Operations
// run against ids they were built with, so a missing target is a programmer
// error.
//
// Parameters:
//   - id: the target's asset id.
//
// Returns:
//   - Target: the stored target.
func (r *Resources) Target(id asset.Id[Target]) Target {
	target, ok := r.Targets.Get(id)
	if !ok {
		panic("render target was not found")
	}
	return target
}

// Sequence looks up a stored sequence, panicking when the id is stale.
//
// Parameters:
//   - id: the sequence's asset id.
//
// Returns:
//   - *Sequence: the stored sequence.
func (r *Resources) Sequence(id asset.Id[*Sequence]) *Sequence {
	sequence, ok := r.Sequences.Get(id)
	if !ok {
		panic("sequence was not found")
	}
	return sequence
}
