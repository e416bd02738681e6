package render

import (
	"github.com/EliiasG/modula/asset"
	"github.com/cogentcore/webgpu/wgpu"
)

// ClearNext schedules a color clear on a target. It declares no reads or
// writes: the target is only touched when something later opens a pass on it.
type ClearNext struct {
	Target asset.Id[Target]
}

var _ OperationBuilder = ClearNext{}
var _ Operation = ClearNext{}

func (c ClearNext) Reading() []asset.Id[Target] {
	return nil
}

func (c ClearNext) Writing() []asset.Id[Target] {
	return nil
}

func (c ClearNext) Finish(_ *wgpu.Device) (Operation, error) {
	return c, nil
}

func (c ClearNext) Run(resources *Resources, _ *wgpu.CommandEncoder) error {
	resources.Target(c.Target).ScheduleClearColor()
	return nil
}

// EmptyPass opens and immediately ends a pass on a target. Useful to flush a
// scheduled clear or resolve without drawing anything.
type EmptyPass struct {
	Target asset.Id[Target]
}

var _ OperationBuilder = EmptyPass{}
var _ Operation = EmptyPass{}

func (e EmptyPass) Reading() []asset.Id[Target] {
	return nil
}

func (e EmptyPass) Writing() []asset.Id[Target] {
	return []asset.Id[Target]{e.Target}
}

func (e EmptyPass) Finish(_ *wgpu.Device) (Operation, error) {
	return e, nil
}

func (e EmptyPass) Run(resources *Resources, encoder *wgpu.CommandEncoder) error {
	pass := resources.Target(e.Target).BeginPass(encoder)
	pass.End()
	return nil
}
