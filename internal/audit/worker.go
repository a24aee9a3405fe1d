package audit

import "context"

// Worker drains events from a channel into a sink, decoupling engine latency
// from sink latency. The publisher can front a buffered channel feeding this
// worker when the sink is remote.
type Worker struct {
	sink  Sink
	inbox <-chan Event
}

func NewWorker(sink Sink, inbox <-chan Event) *Worker {
	return &Worker{sink: sink, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}

// ChannelSink adapts a channel to the Sink interface for use with Worker.
type ChannelSink chan<- Event

func (c ChannelSink) Append(ctx context.Context, event Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case c <- event:
		return nil
	}
}
