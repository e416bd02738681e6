package render

import (
	"fmt"

	"github.com/EliiasG/modula/asset"
	"github.com/cogentcore/webgpu/wgpu"
)

// OperationBuilder declares what an operation touches and finishes it into a
// runnable Operation. The read/write sets drive resolve scheduling, so a
// builder that reads a target another operation rendered into must list it.
type OperationBuilder interface {
	// Reading returns the targets the operation samples or copies from.
	//
	// Returns:
	//   - []asset.Id[Target]: the targets read by the operation.
	Reading() []asset.Id[Target]

	// Writing returns the targets the operation renders into.
	//
	// Returns:
	//   - []asset.Id[Target]: the targets written by the operation.
	Writing() []asset.Id[Target]

	// Finish builds the runnable operation, creating whatever GPU state it
	// needs. Called exactly once, when the owning sequence compiles.
	//
	// Parameters:
	//   - device: the device GPU state is created on.
	//
	// Returns:
	//   - Operation: the finished operation.
	//   - error: an error if GPU state creation failed.
	Finish(device *wgpu.Device) (Operation, error)
}

// Operation is one runnable step of a compiled sequence.
type Operation interface {
	// Run records the operation's work into the shared encoder.
	//
	// Parameters:
	//   - resources: the asset context for target and sequence lookups.
	//   - encoder: the frame's shared command encoder.
	//
	// Returns:
	//   - error: an error if recording failed.
	Run(resources *Resources, encoder *wgpu.CommandEncoder) error
}

// sequenceStep is either a resolve marker or an operation to run. Resolve
// steps have a nil operation.
type sequenceStep struct {
	operation Operation
	resolve   asset.Id[Target]
}

// Sequence is an ordered list of operations that compiles once, on first
// run, into steps with resolve markers inserted from the builders' declared
// read/write sets. After compiling it only executes.
type Sequence struct {
	builders []OperationBuilder
	steps    []sequenceStep
	compiled bool
}

// compile finishes every builder in order, inserting a resolve step in front
// of any read of a target written earlier in the sequence and trailing
// resolve steps for targets still unresolved at the end.
func (s *Sequence) compile(device *wgpu.Device) error {
	if s.compiled {
		return nil
	}
	var steps []sequenceStep
	needsResolving := newTargetIdSet()
	for i, builder := range s.builders {
		for _, id := range builder.Reading() {
			if needsResolving.remove(id) {
				steps = append(steps, sequenceStep{resolve: id})
			}
		}
		for _, id := range builder.Writing() {
			needsResolving.add(id)
		}
		operation, err := builder.Finish(device)
		if err != nil {
			return fmt.Errorf("failed to finish operation %d: %w", i, err)
		}
		steps = append(steps, sequenceStep{operation: operation})
	}
	for _, id := range needsResolving.drain() {
		steps = append(steps, sequenceStep{resolve: id})
	}
	s.steps = steps
	s.builders = nil
	s.compiled = true
	return nil
}

// run compiles the sequence if needed and executes its steps in order.
// Resolve steps arm the target's resolve flag for its next pass.
func (s *Sequence) run(resources *Resources, device *wgpu.Device, encoder *wgpu.CommandEncoder) error {
	if err := s.compile(device); err != nil {
		return err
	}
	for _, step := range s.steps {
		if step.operation == nil {
			target, ok := resources.Targets.Get(step.resolve)
			if !ok {
				panic("target to resolve was not found")
			}
			target.ScheduleResolve()
			continue
		}
		if err := step.operation.Run(resources, encoder); err != nil {
			return err
		}
	}
	return nil
}

// targetIdSet is a set of target ids that remembers insertion order, so
// trailing resolves come out in the order the targets were first written.
type targetIdSet struct {
	members map[asset.Id[Target]]struct{}
	order   []asset.Id[Target]
}

func newTargetIdSet() *targetIdSet {
	return &targetIdSet{members: map[asset.Id[Target]]struct{}{}}
}

func (s *targetIdSet) add(id asset.Id[Target]) {
	if _, ok := s.members[id]; ok {
		return
	}
	s.members[id] = struct{}{}
	s.order = append(s.order, id)
}

// remove reports whether the id was a member.
func (s *targetIdSet) remove(id asset.Id[Target]) bool {
	if _, ok := s.members[id]; !ok {
		return false
	}
	delete(s.members, id)
	return true
}

// drain returns the remaining members in first-insertion order.
func (s *targetIdSet) drain() []asset.Id[Target] {
	var remaining []asset.Id[Target]
	for _, id := range s.order {
		if _, ok := s.members[id]; ok {
			delete(s.members, id)
			remaining = append(remaining, id)
		}
	}
	s.order = nil
	return remaining
}

// SequenceBuilder accumulates operation builders for a sequence.
type SequenceBuilder struct {
	builders []OperationBuilder
}

// NewSequenceBuilder creates an empty sequence builder.
//
// Returns:
//   - *SequenceBuilder: the new builder.
func NewSequenceBuilder() *SequenceBuilder {
	return &SequenceBuilder{}
}

// Add appends an operation builder. Operations run in the order they were
// added.
//
// Parameters:
//   - builder: the operation builder to append.
//
// Returns:
//   - *SequenceBuilder: the builder, for chaining.
func (b *SequenceBuilder) Add(builder OperationBuilder) *SequenceBuilder {
	b.builders = append(b.builders, builder)
	return b
}

// Finish stores the sequence and returns its id. The sequence compiles
// lazily the first time it runs.
//
// Parameters:
//   - sequences: the store the sequence is added to.
//
// Returns:
//   - asset.Id[*Sequence]: the id of the stored sequence.
func (b *SequenceBuilder) Finish(sequences *asset.Store[*Sequence]) asset.Id[*Sequence] {
	return sequences.Add(&Sequence{builders: b.builders})
}
