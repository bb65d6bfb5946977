// Package registrytest provides an in-memory service registry double.
//
// The double implements registry.Client with deterministic identity ids
// (1, 2, 3, ... in registration order) and synchronous event delivery on the
// mutating goroutine. Events are delivered liberally: the subscription filter
// narrows Registered events, while Modified and Unregistering events go to
// every subscriber so consumers can observe references leaving their match
// set. Listeners are always invoked with no registry lock held, so they may
// call back into the registry freely.
package registrytest

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/svctrack/registry"
)

// Registry is an in-memory registry.Client for tests and local tooling.
type Registry struct {
	mu       sync.Mutex
	nextID   int64
	regs     map[int64]*Registration
	subs     map[registry.Handle]*subscription
	releases map[int64]int
}

type subscription struct {
	filter   *filter // nil means subscribe-to-all
	listener func(registry.Event)
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		regs:     make(map[int64]*Registration),
		subs:     make(map[registry.Handle]*subscription),
		releases: make(map[int64]int),
	}
}

// Registration is one live service registration. It is the handle the
// providing side keeps; consumers only ever see the Reference.
type Registration struct {
	reg     *Registry
	ref     *reference
	id      int64
	service any
}

// reference implements registry.Reference. Identity is pointer identity.
type reference struct {
	mu    sync.Mutex
	props map[string]any
	live  bool
}

func (r *reference) Property(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.props[key]
	return v, ok
}

func (r *reference) Live() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

func (r *reference) setProps(update map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range update {
		// Identity and type are fixed at registration time.
		if k == registry.KeyID || k == registry.KeyType {
			continue
		}
		r.props[k] = v
	}
}

func (r *reference) kill() {
	r.mu.Lock()
	r.live = false
	r.mu.Unlock()
}

// Register adds a service under typeName with the given extra properties
// (typically registry.KeyRanking) and delivers a Registered event.
func (r *Registry) Register(typeName string, service any, props map[string]any) *Registration {
	r.mu.Lock()
	r.nextID++
	p := map[string]any{
		registry.KeyID:   r.nextID,
		registry.KeyType: typeName,
	}
	for k, v := range props {
		if k == registry.KeyID || k == registry.KeyType {
			continue
		}
		p[k] = v
	}
	ref := &reference{props: p, live: true}
	reg := &Registration{reg: r, ref: ref, id: r.nextID, service: service}
	r.regs[reg.id] = reg
	r.mu.Unlock()

	r.deliver(registry.Event{Kind: registry.Registered, Ref: ref})
	return reg
}

// Reference returns the registration's reference.
func (g *Registration) Reference() registry.Reference { return g.ref }

// SetProperties updates the registration's properties (id and type are
// immutable) and delivers a Modified event.
func (g *Registration) SetProperties(props map[string]any) {
	g.ref.setProps(props)
	g.reg.deliver(registry.Event{Kind: registry.Modified, Ref: g.ref})
}

// Unregister removes the registration and delivers an Unregistering event.
// The reference stops being Live and the service object stops being
// retrievable before the event goes out. Unregister is idempotent.
func (g *Registration) Unregister() {
	r := g.reg
	r.mu.Lock()
	if _, ok := r.regs[g.id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.regs, g.id)
	r.mu.Unlock()

	g.ref.kill()
	r.deliver(registry.Event{Kind: registry.Unregistering, Ref: g.ref})
}

// deliver fans an event out to subscribers with no lock held.
func (r *Registry) deliver(ev registry.Event) {
	r.mu.Lock()
	targets := make([]*subscription, 0, len(r.subs))
	for _, s := range r.subs {
		if ev.Kind == registry.Registered && s.filter != nil && !s.filter.Matches(ev.Ref) {
			continue
		}
		targets = append(targets, s)
	}
	r.mu.Unlock()

	for _, s := range targets {
		s.listener(ev)
	}
}

// CompileFilter implements registry.Client.
func (r *Registry) CompileFilter(expr string) (registry.Filter, error) {
	return compileFilter(expr)
}

// Subscribe implements registry.Client. Handles are UUIDv7 strings, sortable
// by subscription time, which keeps trace output stable to read.
func (r *Registry) Subscribe(filterExpr string, listener func(registry.Event)) (registry.Handle, error) {
	var f *filter
	if filterExpr != "" {
		var err error
		f, err = compileFilter(filterExpr)
		if err != nil {
			return "", err
		}
	}
	h := registry.Handle(uuid.Must(uuid.NewV7()).String())
	r.mu.Lock()
	r.subs[h] = &subscription{filter: f, listener: listener}
	r.mu.Unlock()
	return h, nil
}

// Unsubscribe implements registry.Client.
func (r *Registry) Unsubscribe(h registry.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[h]; !ok {
		return registry.ErrUnknownSubscription
	}
	delete(r.subs, h)
	return nil
}

// References implements registry.Client. Results come back in registration
// order (ascending identity id) for deterministic tests.
func (r *Registry) References(typeName, filterExpr string) ([]registry.Reference, error) {
	var f *filter
	if filterExpr != "" {
		var err error
		f, err = compileFilter(filterExpr)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var refs []registry.Reference
	for id := int64(1); id <= r.nextID; id++ {
		reg, ok := r.regs[id]
		if !ok {
			continue
		}
		if typeName != "" {
			t, ok := reg.ref.Property(registry.KeyType)
			if !ok || t != typeName {
				continue
			}
		}
		if f != nil && !f.Matches(reg.ref) {
			continue
		}
		refs = append(refs, reg.ref)
	}
	return refs, nil
}

// Service implements registry.Client.
func (r *Registry) Service(ref registry.Reference) (any, bool) {
	id := registry.ID(ref)
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok || reg.ref != ref {
		return nil, false
	}
	return reg.service, true
}

// ReleaseService implements registry.Client. Releases are counted so tests
// can assert the default customizer balanced its fetches.
func (r *Registry) ReleaseService(ref registry.Reference) {
	id := registry.ID(ref)
	r.mu.Lock()
	r.releases[id]++
	r.mu.Unlock()
}

// ReleaseCount reports how many times ReleaseService was called for ref.
func (r *Registry) ReleaseCount(ref registry.Reference) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releases[registry.ID(ref)]
}

// Subscriptions reports the number of live subscriptions.
func (r *Registry) Subscriptions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
