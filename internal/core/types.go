package core

// ResourceState is the desired state of a step.
type ResourceState string

const (
	StatePresent ResourceState = "present"
	StateAbsent  ResourceState = "absent"
)

func (s ResourceState) String() string {
	return string(s)
}
