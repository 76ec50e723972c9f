package update

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoEvaluator indicates a condition was supplied but no evaluator could
// be resolved.
var ErrNoEvaluator = errors.New("update: evaluator not configured")

// Evaluate executes expr against the binder's last known state and wraps the
// result. It is the building block behind ApplyWhen and useful on its own
// for callers that gate updates externally.
func (b *Binder) Evaluate(expr string) (any, error) {
	return b.evaluate(expr, "")
}

func (b *Binder) evaluateCondition(condition, path string) (bool, error) {
	if condition == "" {
		return false, fmt.Errorf("update: condition must not be empty")
	}
	result, err := b.evaluate(condition, path)
	if err != nil {
		return false, err
	}
	verdict, ok := result.(bool)
	if !ok {
		return false, wrapEvaluationError("", condition, path,
			fmt.Errorf("condition returned %T, want bool", result))
	}
	return verdict, nil
}

func (b *Binder) evaluate(expr, path string) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("update: expression must not be empty")
	}
	evaluator, err := b.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	ctx := EvalContext{Snapshot: b.refreshLast(), Path: path}.withDefaultNow().withDefaultMaps()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError("", expr, ctx.pathLabel(), evalErr)
	b.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Path:     ctx.pathLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (b *Binder) resolveEvaluator() (Evaluator, error) {
	if b.cfg.evaluator != nil {
		return b.cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cache := b.cfg.programCache; cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := b.cfg.functions; registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	b.cfg.evaluator = defaultEvaluator
	return defaultEvaluator, nil
}

func (b *Binder) evaluatorLogger() EvaluatorLogger {
	if b.cfg.logger != nil {
		return b.cfg.logger
	}
	return noopEvaluatorLogger{}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*update.exprEvaluator":
		return "expr"
	case "*update.celEvaluator":
		return "cel"
	case "*update.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
