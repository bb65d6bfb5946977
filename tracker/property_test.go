package tracker

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/roach88/svctrack/registry"
	"github.com/roach88/svctrack/registry/registrytest"
)

// TestProperty_AdoptReleaseBalance drives a tracker with random registration
// lifecycles and checks the hook-pairing invariants after every operation: a
// reference is never adopted twice without an intervening release, and the
// tracked set always equals the set of live matching registrations.
func TestProperty_AdoptReleaseBalance(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := registrytest.New()

		adopts := map[int64]int{}
		releases := map[int64]int{}
		cust := FuncCustomizer[string]{
			OnAdding: func(ref registry.Reference) (string, bool) {
				adopts[registry.ID(ref)]++
				return "svc", true
			},
			OnRemoved: func(ref registry.Reference, _ string) {
				releases[registry.ID(ref)]++
			},
		}

		tkr, err := New[string](reg, ByType("Widget"), cust)
		if err != nil {
			rt.Fatalf("new tracker: %v", err)
		}
		if err := tkr.Open(); err != nil {
			rt.Fatalf("open: %v", err)
		}

		type entry struct {
			reg    *registrytest.Registration
			widget bool
			live   bool
		}
		var model []*entry
		liveAt := func(i int) *entry {
			var live []*entry
			for _, e := range model {
				if e.live {
					live = append(live, e)
				}
			}
			if len(live) == 0 {
				return nil
			}
			return live[i%len(live)]
		}
		liveWidgets := func() int {
			n := 0
			for _, e := range model {
				if e.live && e.widget {
					n++
				}
			}
			return n
		}

		ops := rapid.IntRange(1, 40).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				widget := rapid.Bool().Draw(rt, "widget")
				typeName := "Widget"
				if !widget {
					typeName = "Gadget"
				}
				ranking := rapid.IntRange(0, 5).Draw(rt, "ranking")
				r := reg.Register(typeName, "svc", map[string]any{registry.KeyRanking: ranking})
				model = append(model, &entry{reg: r, widget: widget, live: true})
			case 1:
				if e := liveAt(rapid.IntRange(0, 1<<20).Draw(rt, "pick")); e != nil {
					e.reg.Unregister()
					e.live = false
				}
			case 2:
				if e := liveAt(rapid.IntRange(0, 1<<20).Draw(rt, "pick")); e != nil {
					ranking := rapid.IntRange(0, 5).Draw(rt, "newranking")
					e.reg.SetProperties(map[string]any{registry.KeyRanking: ranking})
				}
			}

			for id, a := range adopts {
				balance := a - releases[id]
				if balance < 0 || balance > 1 {
					rt.Fatalf("reference %d: %d adopts vs %d releases", id, a, releases[id])
				}
			}
			if got, want := tkr.Size(), liveWidgets(); got != want {
				rt.Fatalf("size %d, want %d live widgets", got, want)
			}
		}

		tkr.Close()
		for id, a := range adopts {
			if a != releases[id] {
				rt.Fatalf("reference %d left unreleased after close: %d adopts vs %d releases", id, a, releases[id])
			}
		}
		if tkr.Size() != 0 {
			rt.Fatalf("size %d after close", tkr.Size())
		}
		if rev := tkr.Revision(); rev != -1 {
			rt.Fatalf("revision %d after close", rev)
		}
	})
}
