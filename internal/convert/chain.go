package convert

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"

	"tally/internal/timeentry"
)

// Registry is an explicit named lookup of conversion chains. It is built once
// at startup and populated by the rule packages; there is no process-global
// instance.
type Registry struct {
	logger *slog.Logger
	chains map[string]*Chain
}

// NewRegistry constructs an empty registry. A nil logger falls back to
// slog.Default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger, chains: make(map[string]*Chain)}
}

// NewChain creates and registers a chain under the given name.
func (r *Registry) NewChain(name string) (*Chain, error) {
	if _, ok := r.chains[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrChainExists, name)
	}
	chain := &Chain{
		name:      name,
		logger:    r.logger.With("chain", name),
		factories: make(map[float64]Factory),
	}
	r.chains[name] = chain
	return chain, nil
}

// Chain looks up a registered chain by name.
func (r *Registry) Chain(name string) (*Chain, error) {
	chain, ok := r.chains[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrChainNotFound, name)
	}
	return chain, nil
}

// Names returns the registered chain names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.chains))
	for name := range r.chains {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Chain is an ordered collection of rule factories keyed by priority; higher
// priorities are tried first.
type Chain struct {
	name      string
	logger    *slog.Logger
	factories map[float64]Factory
}

// Name returns the chain's registered name.
func (c *Chain) Name() string { return c.name }

// Len returns the number of registered rules.
func (c *Chain) Len() int { return len(c.factories) }

// Register adds a rule factory at the given priority. A duplicate priority is
// nudged down by a deterministic epsilon scaled by the current rule count, so
// registration never fails for collisions; both rules stay retrievable.
func (c *Chain) Register(priority float64, factory Factory) error {
	if math.IsNaN(priority) || math.IsInf(priority, 0) {
		return fmt.Errorf("%w: got %v", ErrBadPriority, priority)
	}
	if _, ok := c.factories[priority]; ok {
		nudged := priority - 0.00001*float64(len(c.factories))
		c.logger.Warn("duplicate rule priority, registering lower",
			"requested", priority, "effective", nudged)
		priority = nudged
	}
	c.factories[priority] = factory
	return nil
}

// Build instantiates one rule per registered factory with the shared run
// options, ordered by priority descending.
func (c *Chain) Build(opts Options) []Rule {
	priorities := make([]float64, 0, len(c.factories))
	for priority := range c.factories {
		priorities = append(priorities, priority)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(priorities)))

	rules := make([]Rule, 0, len(priorities))
	for _, priority := range priorities {
		rules = append(rules, c.factories[priority](opts))
	}
	return rules
}

// ConvertOne resolves a single entry against the built rules, first match
// wins. The boolean result reports whether any rule matched; it is false
// without error only when mustMatch is false.
func (c *Chain) ConvertOne(e timeentry.Entry, rules []Rule, mustMatch bool) (Line, bool, error) {
	for _, rule := range rules {
		if !rule.Match(e) {
			continue
		}
		line, err := rule.Convert(e)
		if err != nil {
			return Line{}, true, fmt.Errorf("chain %q rule %q entry %d: %w", c.name, rule.Name, e.ID, err)
		}
		return line, true, nil
	}
	if mustMatch {
		return Line{}, false, fmt.Errorf("%w: chain %q entry %d (%q)", ErrNoMatch, c.name, e.ID, e.Description)
	}
	return Line{}, false, nil
}

// ConvertOptions controls a batch conversion run.
type ConvertOptions struct {
	// MustMatch makes an unmatched entry a hard error instead of dropping it.
	MustMatch bool
	// Merge pipes the converted lines through the merge aggregator.
	Merge bool
	// MergeKeys overrides the default merge-key fields.
	MergeKeys []string
	// Rules carries the run-scoped rule construction options.
	Rules Options
}

// Convert applies the chain to every entry in order, preserving input order
// and dropping unmatched entries when MustMatch is false.
func (c *Chain) Convert(entries []timeentry.Entry, opts ConvertOptions) ([]Line, error) {
	rules := c.Build(opts.Rules)
	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		line, matched, err := c.ConvertOne(e, rules, opts.MustMatch)
		if err != nil {
			return nil, err
		}
		if !matched {
			c.logger.Debug("skipping unmatched entry", "entry", e.ID, "description", e.Description)
			continue
		}
		lines = append(lines, line)
	}
	if opts.Merge {
		lines = MergeLines(lines, opts.MergeKeys)
	}
	return lines, nil
}
