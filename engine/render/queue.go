package render

import (
	"fmt"

	"github.com/EliiasG/modula/asset"
	"github.com/cogentcore/webgpu/wgpu"
)

// Queue collects the sequences to run during the next redraw. Scheduling is
// per frame: the queue empties after every drain, so a sequence that should
// run every frame must be scheduled every frame.
type Queue struct {
	scheduled []asset.Id[*Sequence]
}

// NewQueue creates an empty sequence queue.
//
// Returns:
//   - *Queue: the new queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Schedule appends a sequence to this frame's batch. Scheduling the same
// sequence twice runs it twice.
//
// Parameters:
//   - id: the id of the sequence to run.
func (q *Queue) Schedule(id asset.Id[*Sequence]) {
	q.scheduled = append(q.scheduled, id)
}

// RunScheduled drains the queue against one shared command encoder, submits
// the recorded work and clears the queue. Panics if a scheduled sequence no
// longer exists.
//
// Parameters:
//   - resources: the asset context sequences run against.
//   - device: the device the encoder is created on.
//   - gpuQueue: the queue the finished commands are submitted to.
//
// Returns:
//   - error: an error if encoding or a sequence failed.
func (q *Queue) RunScheduled(resources *Resources, device *wgpu.Device, gpuQueue *wgpu.Queue) error {
	encoder, err := device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{
		Label: "Sequence runner encoder",
	})
	if err != nil {
		return fmt.Errorf("failed to create sequence runner encoder: %w", err)
	}
	if err := q.drain(resources, device, encoder); err != nil {
		encoder.Release()
		return err
	}
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return fmt.Errorf("failed to finish sequence runner encoder: %w", err)
	}
	gpuQueue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()
	return nil
}

// drain runs every scheduled sequence in FIFO order and empties the queue,
// also on failure, so a broken frame does not replay next frame.
func (q *Queue) drain(resources *Resources, device *wgpu.Device, encoder *wgpu.CommandEncoder) error {
	defer func() {
		q.scheduled = q.scheduled[:0]
	}()
	for _, id := range q.scheduled {
		sequence, ok := resources.Sequences.Get(id)
		if !ok {
			panic("sequence was added to queue, but does not exist")
		}
		if err := sequence.run(resources, device, encoder); err != nil {
			return err
		}
	}
	return nil
}
