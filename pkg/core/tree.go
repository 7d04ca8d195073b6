package core

// TreeJoint is a joint whose parent/child references have been resolved
// to link arena indices, carrying its slot in the generalized coordinate
// vector. Joints with zero DOF (fixed) have DOFIndex -1.
type TreeJoint struct {
	Joint
	ParentLink int `json:"parentLink"`
	ChildLink  int `json:"childLink"`
	DOFIndex   int `json:"dofIndex"`
	DOFCount   int `json:"dofCount"`
}

// KinematicTree is the resolved, validated single-root tree. Links form
// an arena indexed by position; Joints are stored in the deterministic
// depth-first traversal order used for DOF assignment, so a parent joint
// always precedes its descendants.
type KinematicTree struct {
	Name   string      `json:"name"`
	Links  []Link      `json:"links"`
	Joints []TreeJoint `json:"joints"`

	// Root is the arena index of the unique link with no parent joint.
	Root int `json:"root"`

	// NQ is the total generalized coordinate count.
	NQ int `json:"nq"`

	// ParentJoint[i] is the index into Joints of link i's incoming
	// joint, or -1 for the root.
	ParentJoint []int `json:"parentJoint"`
}

// LinkIndex returns the arena index of the named link, or -1.
func (t *KinematicTree) LinkIndex(name string) int {
	for i := range t.Links {
		if t.Links[i].Name == name {
			return i
		}
	}
	return -1
}

// JointIndex returns the index into Joints of the named joint, or -1.
func (t *KinematicTree) JointIndex(name string) int {
	for i := range t.Joints {
		if t.Joints[i].Name == name {
			return i
		}
	}
	return -1
}

// JointAdjacent reports whether two links are directly connected by a
// joint. Used by contact enumeration to exclude self-contact at joints.
func (t *KinematicTree) JointAdjacent(a, b int) bool {
	for i := range t.Joints {
		j := &t.Joints[i]
		if (j.ParentLink == a && j.ChildLink == b) || (j.ParentLink == b && j.ChildLink == a) {
			return true
		}
	}
	return false
}

// Warning codes surfaced by the compile pass.
const (
	WarnDegenerateInertia = "degenerate_inertia"
)

// Warning is a recoverable numeric finding. The compile continues;
// callers decide whether to act on it.
type Warning struct {
	Code    string `json:"code"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Code + " (" + w.Subject + "): " + w.Message
}
