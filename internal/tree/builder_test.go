package tree

import (
	"log/slog"
	"testing"

	"github.com/pwatools/urdfc/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func link(name string) core.Link {
	return core.Link{Name: name}
}

func joint(name string, typ core.JointType, parent, child string) core.Joint {
	return core.Joint{Name: name, Type: typ, Parent: parent, Child: child, Axis: core.Vec3{1, 0, 0}}
}

// cartPoleDesc is the canonical five-link fixture: a ground root, a rail
// fixed to it, a cart sliding on the rail, a pole swinging on the cart,
// and a wall fixed to the ground.
func cartPoleDesc() *core.Description {
	return &core.Description{
		Name:  "cartpole",
		Links: []core.Link{link("ground"), link("rail"), link("cart"), link("pole"), link("wall")},
		Joints: []core.Joint{
			joint("rail_mount", core.JointFixed, "ground", "rail"),
			joint("track", core.JointPrismatic, "rail", "cart"),
			joint("shoulder", core.JointContinuous, "cart", "pole"),
			joint("wall_mount", core.JointFixed, "ground", "wall"),
		},
	}
}

func TestBuildCartPole(t *testing.T) {
	b := New(slog.Default())
	tr, err := b.Build(cartPoleDesc())
	require.NoError(t, err)

	assert.Len(t, tr.Links, 5)
	assert.Equal(t, "ground", tr.Links[tr.Root].Name)
	assert.Equal(t, 2, tr.NQ)

	track := tr.Joints[tr.JointIndex("track")]
	shoulder := tr.Joints[tr.JointIndex("shoulder")]
	assert.Equal(t, 0, track.DOFIndex)
	assert.Equal(t, 1, track.DOFCount)
	assert.Equal(t, 1, shoulder.DOFIndex)
	assert.Equal(t, 1, shoulder.DOFCount)

	for _, name := range []string{"rail_mount", "wall_mount"} {
		j := tr.Joints[tr.JointIndex(name)]
		assert.Equal(t, -1, j.DOFIndex)
		assert.Equal(t, 0, j.DOFCount)
	}

	// A parent joint precedes its descendants in storage order.
	assert.Less(t, tr.JointIndex("rail_mount"), tr.JointIndex("track"))
	assert.Less(t, tr.JointIndex("track"), tr.JointIndex("shoulder"))
}

func TestBuildStructuralErrors(t *testing.T) {
	b := New(slog.Default())

	tests := []struct {
		name string
		desc *core.Description
		want error
	}{
		{
			name: "second parentless link",
			desc: &core.Description{
				Links: []core.Link{link("a"), link("b"), link("c")},
				Joints: []core.Joint{
					joint("j1", core.JointFixed, "a", "c"),
				},
			},
			want: core.ErrMultipleRoots,
		},
		{
			name: "no links",
			desc: &core.Description{},
			want: core.ErrNoRoot,
		},
		{
			name: "two joints into one child",
			desc: &core.Description{
				Links: []core.Link{link("a"), link("b"), link("c")},
				Joints: []core.Joint{
					joint("j1", core.JointFixed, "a", "c"),
					joint("j2", core.JointFixed, "b", "c"),
				},
			},
			want: core.ErrMultipleParents,
		},
		{
			name: "pure cycle",
			desc: &core.Description{
				Links: []core.Link{link("a"), link("b")},
				Joints: []core.Joint{
					joint("j1", core.JointFixed, "a", "b"),
					joint("j2", core.JointFixed, "b", "a"),
				},
			},
			want: core.ErrCycle,
		},
		{
			name: "cycle hanging off the tree",
			desc: &core.Description{
				Links: []core.Link{link("root"), link("a"), link("b")},
				Joints: []core.Joint{
					joint("j1", core.JointFixed, "a", "b"),
					joint("j2", core.JointFixed, "b", "a"),
				},
			},
			want: core.ErrCycle,
		},
		{
			name: "unknown joint type",
			desc: &core.Description{
				Links: []core.Link{link("a"), link("b")},
				Joints: []core.Joint{
					joint("j1", "helical", "a", "b"),
				},
			},
			want: core.ErrUnsupportedJointType,
		},
		{
			name: "joint references unknown link",
			desc: &core.Description{
				Links: []core.Link{link("a")},
				Joints: []core.Joint{
					joint("j1", core.JointFixed, "a", "ghost"),
				},
			},
			want: core.ErrUnknownLink,
		},
		{
			name: "duplicate link name",
			desc: &core.Description{
				Links: []core.Link{link("a"), link("a")},
			},
			want: core.ErrDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(tt.desc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var serr *core.StructuralError
			assert.ErrorAs(t, err, &serr)
			assert.NotEmpty(t, serr.Name)
		})
	}
}

func TestBuildMultiDOFRepresentable(t *testing.T) {
	b := New(slog.Default())
	desc := &core.Description{
		Links: []core.Link{link("world"), link("base")},
		Joints: []core.Joint{
			joint("free", core.JointFloating, "world", "base"),
		},
	}
	tr, err := b.Build(desc)
	require.NoError(t, err)
	assert.Equal(t, 6, tr.NQ)
	assert.Equal(t, 6, tr.Joints[0].DOFCount)
}

func TestBuildDeterministic(t *testing.T) {
	b := New(slog.Default())
	first, err := b.Build(cartPoleDesc())
	require.NoError(t, err)
	second, err := b.Build(cartPoleDesc())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
