package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/roach88/ledger/internal/access"

// Context is a short-lived, per-operation persistence handle.
//
// A context is never shared between operations. The facade commits a write
// context after its block succeeds and rolls back every other context.
type Context interface {
	Commit() error
	Rollback() error
}

// Container is the shared durable store. It hands out a fresh Context for
// every operation and is never mutated by the controller.
type Container[C Context] interface {
	NewContext(ctx context.Context) (C, error)
}

// Facade runs caller blocks under admission control.
//
// Thread-safety: safe for concurrent use.
type Facade[C Context] struct {
	container  Container[C]
	controller Controller
	logger     *slog.Logger
	tracer     trace.Tracer
}

type facadeConfig struct {
	controller Controller
	logger     *slog.Logger
	tracer     trace.Tracer
}

// FacadeOption configures a Facade.
type FacadeOption func(*facadeConfig)

// WithController overrides the admission controller.
// Default: NewAdmissionController() with the relaxed policy.
func WithController(c Controller) FacadeOption {
	return func(cfg *facadeConfig) {
		cfg.controller = c
	}
}

// WithFacadeLogger sets the facade logger. Default: slog.Default().
func WithFacadeLogger(l *slog.Logger) FacadeOption {
	return func(cfg *facadeConfig) {
		cfg.logger = l
	}
}

// WithTracer sets the tracer used for read/write spans.
// Default: the global OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) FacadeOption {
	return func(cfg *facadeConfig) {
		cfg.tracer = t
	}
}

// NewFacade creates a facade bound to container.
func NewFacade[C Context](container Container[C], opts ...FacadeOption) *Facade[C] {
	cfg := facadeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.controller == nil {
		cfg.controller = NewAdmissionController(WithLogger(cfg.logger))
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}
	return &Facade[C]{
		container:  container,
		controller: cfg.controller,
		logger:     cfg.logger,
		tracer:     cfg.tracer,
	}
}

// Container returns the container the facade is bound to.
func (f *Facade[C]) Container() Container[C] {
	return f.container
}

// Controller returns the admission controller.
func (f *Facade[C]) Controller() Controller {
	return f.controller
}

// Read runs fn with read admission. See the package-level Read.
func (f *Facade[C]) Read(ctx context.Context, fn func(C) error) error {
	_, err := Read(ctx, f, func(c C) (struct{}, error) {
		return struct{}{}, fn(c)
	})
	return err
}

// Write runs fn with write admission. See the package-level Write.
func (f *Facade[C]) Write(ctx context.Context, fn func(C) error) error {
	_, err := Write(ctx, f, func(c C) (struct{}, error) {
		return struct{}{}, fn(c)
	})
	return err
}

// MakeContext returns a context straight from the container, bypassing
// admission. The caller owns all concurrency concerns and must finish the
// context itself. Meant for single-threaded call sites such as startup
// seeding and synchronous test setup.
func (f *Facade[C]) MakeContext(ctx context.Context) (C, error) {
	f.logger.Debug("unscheduled context requested")
	return f.container.NewContext(ctx)
}

// Read runs fn against a fresh context once read admission is granted.
// It may run concurrently with other reads.
//
// An error returned by fn is returned unchanged. ctx is used for context
// construction and tracing only; it does not cancel a pending admission.
func Read[C Context, T any](ctx context.Context, f *Facade[C], fn func(C) (T, error)) (T, error) {
	return run(ctx, f, KindRead, fn)
}

// Write runs fn against a fresh context once write admission is granted.
// It never runs concurrently with another write. The context is committed
// when fn succeeds and rolled back when it fails.
//
// An error returned by fn is returned unchanged; a commit failure is wrapped.
func Write[C Context, T any](ctx context.Context, f *Facade[C], fn func(C) (T, error)) (T, error) {
	return run(ctx, f, KindWrite, fn)
}

type outcome[T any] struct {
	value     T
	err       error
	recovered any
}

func run[C Context, T any](ctx context.Context, f *Facade[C], kind Kind, fn func(C) (T, error)) (T, error) {
	var zero T

	ctx, span := f.tracer.Start(ctx, "access."+kind.String(),
		trace.WithAttributes(attribute.String("access.kind", kind.String())),
	)
	defer span.End()

	submitted := time.Now()
	ticket := f.controller.Submit(kind)
	ticket.Wait()
	defer f.controller.Release(ticket.ID())

	span.SetAttributes(attribute.String("access.operation_id", ticket.ID()))
	f.logger.Debug("operation admitted",
		"id", ticket.ID(),
		"kind", kind.String(),
		"wait", time.Since(submitted),
	)

	pc, err := f.container.NewContext(ctx)
	if err != nil {
		err = fmt.Errorf("%s: new context: %w", kind, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return zero, err
	}

	// The block runs on its own goroutine; the controller's bookkeeping
	// never waits on caller work.
	done := make(chan outcome[T], 1)
	go func() {
		var out outcome[T]
		defer func() {
			if r := recover(); r != nil {
				out.recovered = r
			}
			done <- out
		}()
		out.value, out.err = fn(pc)
	}()
	out := <-done

	if out.recovered != nil {
		f.rollback(pc, ticket.ID())
		span.SetStatus(codes.Error, "panic")
		panic(out.recovered)
	}
	if out.err != nil {
		f.rollback(pc, ticket.ID())
		span.RecordError(out.err)
		span.SetStatus(codes.Error, out.err.Error())
		return zero, out.err
	}

	if kind == KindWrite {
		if err := pc.Commit(); err != nil {
			err = fmt.Errorf("write commit: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return zero, err
		}
	} else {
		f.rollback(pc, ticket.ID())
	}

	return out.value, nil
}

func (f *Facade[C]) rollback(pc C, id string) {
	if err := pc.Rollback(); err != nil {
		f.logger.Debug("context rollback failed", "id", id, "error", err)
	}
}
