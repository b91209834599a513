package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/playcrawl/internal/model"
)

// ErrDropItem is returned by a step to reject an item. It always stops the
// pipeline, regardless of WithContinueOnError.
var ErrDropItem = errors.New("item dropped")

// Step is one stage of the item pipeline.
// Steps are executed in sequence, with each step receiving the item as
// modified by the previous steps.
type Step interface {
	// Do processes the item. Returning ErrDropItem (or an error wrapping it)
	// rejects the item.
	Do(ctx context.Context, item *model.AppItem) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs every produced item through its steps in order.
// It implements the crawler's Emitter.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError keeps the item moving through later steps when a
	// step fails with an error other than ErrDropItem.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to keep executing steps
// when one fails. Failures are logged and the item is still accepted.
// ErrDropItem stops the pipeline either way.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given steps and options.
func New(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: append([]Step(nil), steps...),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// Emit runs item through every step in order.
// The context is checked before each step.
func (p *Pipeline) Emit(ctx context.Context, item *model.AppItem) error {
	if item == nil {
		return fmt.Errorf("%w: nil item", ErrDropItem)
	}

	var failed error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Debug("pipeline cancelled", "step", step.Name(), "url", item.URL)
			return err
		}

		err := step.Do(ctx, item)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrDropItem) {
			p.logger.Info("item dropped", "step", step.Name(), "url", item.URL, "error", err)
			return err
		}

		p.logger.Error("step failed", "step", step.Name(), "url", item.URL, "error", err)
		if !p.continueOnError {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
		failed = errors.Join(failed, err)
	}

	if failed != nil {
		p.logger.Debug("item accepted with step failures", "url", item.URL, "error", failed)
	}
	return nil
}

// Close closes every step that implements io.Closer, in order.
func (p *Pipeline) Close() error {
	var errs error
	for _, step := range p.steps {
		if c, ok := step.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = errors.Join(errs, fmt.Errorf("%s: %w", step.Name(), err))
			}
		}
	}
	return errs
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
