// Package rules filters normalized events with user supplied expressions.
package rules

import (
	"fmt"
	"sync/atomic"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/cyra/squidnorm/internal/config"
	"github.com/cyra/squidnorm/internal/logging"
	"github.com/cyra/squidnorm/internal/webproxy"
)

// Rule is a compiled filter rule.
type Rule struct {
	ID      string
	Source  string
	Drop    bool
	Program *vm.Program
}

// Decision is the outcome of evaluating a log against the rule set.
type Decision struct {
	Keep   bool
	RuleID string // empty when no rule matched
}

// Engine evaluates logs against the current rule set. Rules are swapped
// atomically so evaluation never blocks on a reload.
type Engine struct {
	rules  atomic.Pointer[[]Rule]
	logger *logging.Logger
}

// NewEngine compiles rules and returns an engine using them.
func NewEngine(rules []config.Rule, logger *logging.Logger) (*Engine, error) {
	e := &Engine{logger: logger}
	if err := e.UpdateRules(rules); err != nil {
		return nil, err
	}
	return e, nil
}

// Compile compiles one configured rule. The expression must evaluate to a
// bool.
func Compile(r config.Rule) (Rule, error) {
	program, err := expr.Compile(r.When, expr.Env(&Env{}), expr.AsBool())
	if err != nil {
		return Rule{}, fmt.Errorf("compile rule %q: %w", r.ID, err)
	}
	return Rule{
		ID:      r.ID,
		Source:  r.When,
		Drop:    r.Action != config.ActionKeep,
		Program: program,
	}, nil
}

// UpdateRules compiles the given rules and swaps them in. On any compile
// error the current set is left untouched.
func (e *Engine) UpdateRules(rules []config.Rule) error {
	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		c, err := Compile(r)
		if err != nil {
			return err
		}
		compiled = append(compiled, c)
	}
	e.rules.Store(&compiled)
	e.logger.Debugf("loaded %d filter rules", len(compiled))
	return nil
}

// Watch recompiles the rules whenever the store receives a new config.
func (e *Engine) Watch(store *config.Store) {
	store.Subscribe(func(cfg *config.Config) {
		if err := e.UpdateRules(cfg.Rules); err != nil {
			e.logger.Errorf("keeping previous rules: %v", err)
		}
	})
}

// Len returns the number of active rules.
func (e *Engine) Len() int {
	if rules := e.rules.Load(); rules != nil {
		return len(*rules)
	}
	return 0
}

// Evaluate runs the rules in order. The first matching rule decides; when
// none matches the log is kept. A rule that fails at runtime is skipped.
func (e *Engine) Evaluate(l *webproxy.Log) Decision {
	rules := e.rules.Load()
	if rules == nil || len(*rules) == 0 {
		return Decision{Keep: true}
	}

	env := NewEnv(l)
	for _, r := range *rules {
		out, err := expr.Run(r.Program, env)
		if err != nil {
			e.logger.Debugf("rule %s: %v", r.ID, err)
			continue
		}
		if matched, ok := out.(bool); ok && matched {
			return Decision{Keep: !r.Drop, RuleID: r.ID}
		}
	}
	return Decision{Keep: true}
}
