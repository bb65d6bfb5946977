package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/svctrack/registry"
	"github.com/roach88/svctrack/registry/registrytest"
	"github.com/roach88/svctrack/tracker"
)

// TraceEvent records one customizer hook invocation.
type TraceEvent struct {
	Hook    string `json:"hook"`
	Name    string `json:"name"`
	ID      int64  `json:"id"`
	Ranking int    `json:"ranking"`
}

// Result is the outcome of one scenario run: the full hook trace plus the
// tracker's final state, captured before the tracker was closed.
type Result struct {
	Scenario string       `json:"scenario"`
	Trace    []TraceEvent `json:"trace"`
	Size     int          `json:"size"`
	Revision int64        `json:"revision"`
	Selected string       `json:"selected,omitempty"`
	Tracked  []string     `json:"tracked,omitempty"`
}

// run holds the moving parts of one scenario execution.
type run struct {
	scenario *Scenario
	registry *registrytest.Registry
	regs     map[string]*registrytest.Registration
	names    map[int64]string
	trace    []TraceEvent
}

// Run executes a scenario and evaluates its assertions. The returned Result
// is populated even when assertions fail, so callers can print the trace for
// diagnosis; assertion failures come back as the error.
func Run(s *Scenario) (*Result, error) {
	r := &run{
		scenario: s,
		registry: registrytest.New(),
		regs:     make(map[string]*registrytest.Registration),
		names:    make(map[int64]string),
	}

	for i, step := range s.Setup {
		if err := r.applyRegistryStep(step); err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	crit, err := r.criterion()
	if err != nil {
		return nil, err
	}

	t, err := tracker.New[string](r.registry, crit, r.recorder())
	if err != nil {
		return nil, fmt.Errorf("build tracker: %w", err)
	}
	if err := t.Open(); err != nil {
		return nil, fmt.Errorf("open tracker: %w", err)
	}
	defer t.Close()

	for i, step := range s.Steps {
		if step.Remove != "" {
			reg, ok := r.regs[step.Remove]
			if !ok {
				return nil, fmt.Errorf("steps[%d]: unknown registration %q", i, step.Remove)
			}
			t.Remove(reg.Reference())
			continue
		}
		if err := r.applyRegistryStep(step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	res := r.result(t)
	if err := r.check(res); err != nil {
		return res, err
	}
	return res, nil
}

// recorder adapts the registered service string and records every hook.
func (r *run) recorder() tracker.Customizer[string] {
	return tracker.FuncCustomizer[string]{
		OnAdding: func(ref registry.Reference) (string, bool) {
			r.record("adding", ref)
			svc, ok := r.registry.Service(ref)
			if !ok {
				return "", false
			}
			s, ok := svc.(string)
			return s, ok
		},
		OnModified: func(ref registry.Reference, _ string) {
			r.record("modified", ref)
		},
		OnRemoved: func(ref registry.Reference, _ string) {
			r.record("removed", ref)
		},
	}
}

func (r *run) record(hook string, ref registry.Reference) {
	id := registry.ID(ref)
	r.trace = append(r.trace, TraceEvent{
		Hook:    hook,
		Name:    r.names[id],
		ID:      id,
		Ranking: registry.Ranking(ref),
	})
}

func (r *run) criterion() (tracker.Criterion, error) {
	c := r.scenario.Criterion
	switch {
	case c.Type != "":
		return tracker.ByType(c.Type), nil
	case c.Filter != "":
		return tracker.ByFilter(c.Filter), nil
	default:
		reg, ok := r.regs[c.Reference]
		if !ok {
			return tracker.Criterion{}, fmt.Errorf("criterion reference %q not registered in setup", c.Reference)
		}
		return tracker.ByReference(reg.Reference()), nil
	}
}

func (r *run) applyRegistryStep(step Step) error {
	switch {
	case step.Register != nil:
		reg := r.registry.Register(step.Register.Type, step.Register.Service, map[string]any{
			registry.KeyRanking: step.Register.Ranking,
		})
		r.regs[step.Register.Name] = reg
		r.names[registry.ID(reg.Reference())] = step.Register.Name
		return nil

	case step.Modify != nil:
		reg, ok := r.regs[step.Modify.Name]
		if !ok {
			return fmt.Errorf("unknown registration %q", step.Modify.Name)
		}
		props := make(map[string]any)
		if step.Modify.Ranking != nil {
			props[registry.KeyRanking] = *step.Modify.Ranking
		}
		reg.SetProperties(props)
		return nil

	case step.Unregister != "":
		reg, ok := r.regs[step.Unregister]
		if !ok {
			return fmt.Errorf("unknown registration %q", step.Unregister)
		}
		reg.Unregister()
		return nil

	default:
		return fmt.Errorf("empty step")
	}
}

func (r *run) result(t *tracker.Tracker[string]) *Result {
	res := &Result{
		Scenario: r.scenario.Name,
		Trace:    r.trace,
		Size:     t.Size(),
		Revision: t.Revision(),
	}
	if ref, ok := t.Reference(); ok {
		res.Selected = r.names[registry.ID(ref)]
	}
	refs := t.References()
	slices.SortFunc(refs, func(a, b registry.Reference) int {
		return int(registry.ID(a) - registry.ID(b))
	})
	for _, ref := range refs {
		res.Tracked = append(res.Tracked, r.names[registry.ID(ref)])
	}
	return res
}

// check evaluates the scenario's assertions against the result.
func (r *run) check(res *Result) error {
	for i, a := range r.scenario.Assertions {
		switch a.Type {
		case AssertSize:
			if int64(res.Size) != a.Count {
				return fmt.Errorf("assertions[%d]: size = %d, want %d", i, res.Size, a.Count)
			}
		case AssertRevision:
			if res.Revision != a.Count {
				return fmt.Errorf("assertions[%d]: revision = %d, want %d", i, res.Revision, a.Count)
			}
		case AssertSelected:
			if res.Selected != a.Name {
				return fmt.Errorf("assertions[%d]: selected = %q, want %q", i, res.Selected, a.Name)
			}
		case AssertTracked:
			got := append([]string{}, res.Tracked...)
			want := append([]string{}, a.Names...)
			slices.Sort(got)
			slices.Sort(want)
			if !slices.Equal(got, want) {
				return fmt.Errorf("assertions[%d]: tracked = %v, want %v", i, got, want)
			}
		case AssertTraceCount:
			n := int64(0)
			for _, ev := range res.Trace {
				if ev.Hook == a.Hook && ev.Name == a.Name {
					n++
				}
			}
			if n != a.Count {
				return fmt.Errorf("assertions[%d]: %s(%s) fired %d times, want %d", i, a.Hook, a.Name, n, a.Count)
			}
		}
	}
	return nil
}
