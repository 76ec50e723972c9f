package update

import (
	"time"

	"github.com/goliatone/go-update/pkg/activity"
)

// EvalContext carries inputs needed when evaluating a condition expression
// against the last known state.
type EvalContext struct {
	Snapshot any
	Path     string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx EvalContext) withDefaultNow() EvalContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx EvalContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx EvalContext) withDefaultMaps() EvalContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx EvalContext) pathLabel() string {
	if ctx.Path == "" {
		return "<root>"
	}
	return ctx.Path
}

// Evaluator executes condition expressions against an eval context.
type Evaluator interface {
	Evaluate(ctx EvalContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx EvalContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// Option configures a Binder.
type Option func(*binderConfig)

type binderConfig struct {
	applier      Applier
	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
	logger       EvaluatorLogger
	emitter      *activity.Emitter
}

func applyOptions(opts []Option) binderConfig {
	cfg := binderConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithApplier swaps the applier used by the binder for the default
// structural one.
func WithApplier(applier Applier) Option {
	return func(cfg *binderConfig) {
		cfg.applier = applier
	}
}

// WithEvaluator configures the condition evaluator on the binder.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *binderConfig) {
		cfg.evaluator = e
	}
}

// WithActivityEmitter wires activity event emission into the binder. Events
// are emitted after each successful commit.
func WithActivityEmitter(emitter *activity.Emitter) Option {
	return func(cfg *binderConfig) {
		cfg.emitter = emitter
	}
}
