// Package tree resolves flat description records into a validated
// kinematic tree: the link arena, joint edges with integer indices, and
// the deterministic degree-of-freedom layout every later stage depends
// on. It also resolves per-link mass properties (inertia.go).
package tree

import (
	"log/slog"

	"github.com/pwatools/urdfc/pkg/core"
)

// Builder validates and resolves descriptions. It carries only a logger.
type Builder struct {
	logger *slog.Logger
}

// New creates a tree builder.
func New(logger *slog.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build resolves names into a KinematicTree, enforcing the single-root,
// single-parent, no-cycle invariants. DOF indices are assigned by a
// depth-first walk from the root, visiting each link's child joints in
// declaration order, so re-building the same description always yields
// the same coordinate ordering.
func (b *Builder) Build(desc *core.Description) (*core.KinematicTree, error) {
	if len(desc.Links) == 0 {
		return nil, core.NewStructuralError(core.ErrNoRoot, desc.Name)
	}

	// Name index; duplicates are structural errors, not overwrites.
	linkIdx := make(map[string]int, len(desc.Links))
	for i := range desc.Links {
		name := desc.Links[i].Name
		if _, dup := linkIdx[name]; dup {
			return nil, core.NewStructuralError(core.ErrDuplicateName, name)
		}
		linkIdx[name] = i
	}

	jointNames := make(map[string]struct{}, len(desc.Joints))
	for i := range desc.Joints {
		j := &desc.Joints[i]
		if _, dup := jointNames[j.Name]; dup {
			return nil, core.NewStructuralError(core.ErrDuplicateName, j.Name)
		}
		jointNames[j.Name] = struct{}{}

		// Reject unknown kinds here rather than silently treating
		// them as fixed.
		if _, ok := j.Type.DOF(); !ok {
			return nil, core.NewStructuralError(core.ErrUnsupportedJointType, j.Name)
		}
		if _, ok := linkIdx[j.Parent]; !ok {
			return nil, core.NewStructuralError(core.ErrUnknownLink, j.Parent)
		}
		if _, ok := linkIdx[j.Child]; !ok {
			return nil, core.NewStructuralError(core.ErrUnknownLink, j.Child)
		}
	}

	// Incoming-edge counts and per-link child joints in declaration order.
	incoming := make([]int, len(desc.Links))
	childJoints := make([][]int, len(desc.Links))
	for i := range desc.Joints {
		j := &desc.Joints[i]
		child := linkIdx[j.Child]
		incoming[child]++
		if incoming[child] > 1 {
			return nil, core.NewStructuralError(core.ErrMultipleParents, j.Child)
		}
		parent := linkIdx[j.Parent]
		childJoints[parent] = append(childJoints[parent], i)
	}

	root := -1
	for i, n := range incoming {
		if n != 0 {
			continue
		}
		if root >= 0 {
			return nil, core.NewStructuralError(core.ErrMultipleRoots, desc.Links[i].Name)
		}
		root = i
	}
	if root < 0 {
		// Every link has a parent: the graph is all cycle.
		return nil, core.NewStructuralError(core.ErrCycle, desc.Links[0].Name)
	}

	t := &core.KinematicTree{
		Name:        desc.Name,
		Links:       desc.Links,
		Root:        root,
		ParentJoint: make([]int, len(desc.Links)),
	}
	for i := range t.ParentJoint {
		t.ParentJoint[i] = -1
	}

	// Depth-first DOF assignment. Joints are appended in traversal
	// order so a parent joint always precedes its descendants.
	visited := make([]bool, len(desc.Links))
	var walk func(link int) error
	walk = func(link int) error {
		visited[link] = true
		for _, ji := range childJoints[link] {
			j := desc.Joints[ji]
			child := linkIdx[j.Child]
			if visited[child] {
				return core.NewStructuralError(core.ErrCycle, j.Child)
			}
			dof, _ := j.Type.DOF()
			tj := core.TreeJoint{
				Joint:      j,
				ParentLink: link,
				ChildLink:  child,
				DOFCount:   dof,
				DOFIndex:   -1,
			}
			if dof > 0 {
				tj.DOFIndex = t.NQ
				t.NQ += dof
			}
			t.ParentJoint[child] = len(t.Joints)
			t.Joints = append(t.Joints, tj)
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}

	for i, seen := range visited {
		if seen {
			continue
		}
		// Unreachable. Distinguish a cycle among the unreachable set
		// from a genuinely detached subtree.
		if onCycle(i, desc, linkIdx) {
			return nil, core.NewStructuralError(core.ErrCycle, desc.Links[i].Name)
		}
		return nil, core.NewStructuralError(core.ErrDisconnected, desc.Links[i].Name)
	}

	b.logger.Debug("built kinematic tree",
		"name", t.Name,
		"root", t.Links[root].Name,
		"links", len(t.Links),
		"joints", len(t.Joints),
		"nq", t.NQ)

	return t, nil
}

// onCycle follows the parent chain from link i and reports whether it
// returns to a link already on the chain.
func onCycle(i int, desc *core.Description, linkIdx map[string]int) bool {
	seen := map[int]bool{i: true}
	cur := i
	for {
		next := -1
		for k := range desc.Joints {
			if linkIdx[desc.Joints[k].Child] == cur {
				next = linkIdx[desc.Joints[k].Parent]
				break
			}
		}
		if next < 0 {
			return false
		}
		if seen[next] {
			return true
		}
		seen[next] = true
		cur = next
	}
}
