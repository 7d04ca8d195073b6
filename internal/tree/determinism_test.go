package tree

import (
	"log/slog"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/pwatools/urdfc/pkg/core"
)

// DOF layout is a function of joint declaration order and tree shape
// only. Reordering the link records must not change which coordinate a
// joint gets, because the traversal is driven by joints, not by link
// arena positions.
func TestDOFLayoutInvariantUnderLinkOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	b := New(slog.Default())

	base := cartPoleDesc()
	want := dofLayout(t, b, base)

	properties.Property("link permutation preserves DOF layout", prop.ForAll(
		func(seedPerm []int) bool {
			desc := cartPoleDesc()
			perm := normalizePerm(seedPerm, len(desc.Links))
			shuffled := make([]core.Link, len(desc.Links))
			for i, p := range perm {
				shuffled[i] = desc.Links[p]
			}
			desc.Links = shuffled

			tr, err := b.Build(desc)
			if err != nil {
				return false
			}
			for name, idx := range want {
				if tr.Joints[tr.JointIndex(name)].DOFIndex != idx {
					return false
				}
			}
			return tr.Links[tr.Root].Name == "ground"
		},
		gen.SliceOfN(5, gen.IntRange(0, 1<<30)),
	))

	properties.TestingRun(t)
}

func dofLayout(t *testing.T, b *Builder, desc *core.Description) map[string]int {
	t.Helper()
	tr, err := b.Build(desc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out := map[string]int{}
	for i := range tr.Joints {
		out[tr.Joints[i].Name] = tr.Joints[i].DOFIndex
	}
	return out
}

// normalizePerm turns arbitrary ints into a permutation of [0,n) by
// selection, so gopter can drive it from plain int slices.
func normalizePerm(seed []int, n int) []int {
	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}
	perm := make([]int, 0, n)
	for i := 0; i < n; i++ {
		k := 0
		if i < len(seed) {
			k = seed[i]
			if k < 0 {
				k = -k
			}
			k %= len(remaining)
		}
		perm = append(perm, remaining[k])
		remaining = append(remaining[:k], remaining[k+1:]...)
	}
	return perm
}
