package calcalc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	agent "github.com/DipperMason/calcalc/internal"
)

// NotFound is the text result when the remote service has no answer.
const NotFound = "Result could not be found"

// Route says which path produced a Result.
type Route string

const (
	RouteLocal  Route = "local"
	RouteRemote Route = "remote"
)

// ErrNoResolver is returned when the remote path is needed but no Resolver is set.
var ErrNoResolver = errors.New("no remote resolver configured")

// Fallback reasons recorded on remote results.
const (
	FallbackForced = "forced"
	FallbackUnsafe = "unsafe"
)

// Resolver answers free-form queries remotely.
type Resolver interface {
	Resolve(ctx context.Context, input string) (answer string, found bool, err error)
}

// Calculator evaluates arithmetic-only expressions.
type Calculator interface {
	Calculate(expression string) (agent.Value, error)
}

// Recorder persists finished evaluations.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Record is what a Recorder receives for every successful evaluation.
type Record struct {
	User      string
	Result    Result
	CreatedAt time.Time
}

// Result of one evaluation. Value is set for local results, Text for remote ones.
type Result struct {
	Expression string
	Route      Route
	Value      *agent.Value
	Text       string
	Found      bool
	Fallback   string
}

func (r Result) String() string {
	if r.Value != nil {
		return r.Value.String()
	}
	return r.Text
}

// Evaluator is stateless and safe for concurrent use.
type Evaluator struct {
	local    Calculator
	remote   Resolver
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithRecorder stores every finished evaluation.
func WithRecorder(rec Recorder) Option {
	return func(e *Evaluator) {
		e.recorder = rec
	}
}

// WithCalculator replaces the local evaluator.
func WithCalculator(c Calculator) Option {
	return func(e *Evaluator) {
		e.local = c
	}
}

// New creates an Evaluator that falls back to remote.
func New(remote Resolver, opts ...Option) *Evaluator {
	e := &Evaluator{
		local:  &agent.CalculatorAgent{},
		remote: remote,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate computes expr. The returned error is only ever a remote failure.
func (e *Evaluator) Evaluate(ctx context.Context, expr string, forceRemote bool) (Result, error) {
	res := Result{Expression: expr}

	switch {
	case forceRemote:
		res.Fallback = FallbackForced
	case !agent.IsArithmetic(expr):
		res.Fallback = FallbackUnsafe
	default:
		v, err := e.local.Calculate(expr)
		if err == nil {
			res.Route = RouteLocal
			res.Value = &v
			res.Found = true
			e.logger.Debug("evaluated locally", "expr", expr, "result", v.String())
			e.record(ctx, res)
			return res, nil
		}
		res.Fallback = "local: " + err.Error()
		e.logger.Debug("local evaluation failed", "expr", expr, "error", err)
	}

	res.Route = RouteRemote
	if e.remote == nil {
		return res, ErrNoResolver
	}
	answer, found, err := e.remote.Resolve(ctx, expr)
	if err != nil {
		e.logger.Warn("remote evaluation failed", "expr", expr, "error", err)
		return res, fmt.Errorf("remote evaluate: %w", err)
	}
	res.Found = found
	res.Text = answer
	if !found {
		res.Text = NotFound
	}
	e.logger.Debug("evaluated remotely", "expr", expr, "found", found, "fallback", res.Fallback)
	e.record(ctx, res)
	return res, nil
}

func (e *Evaluator) record(ctx context.Context, res Result) {
	if e.recorder == nil {
		return
	}
	rec := Record{User: UserFrom(ctx), Result: res, CreatedAt: e.now().UTC()}
	if err := e.recorder.Record(ctx, rec); err != nil {
		e.logger.Warn("record evaluation", "error", err)
	}
}
