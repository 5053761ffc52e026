package orchestrator

// ManagedService is a projection of one externally-orchestrated workload:
// enough to read ingress labels and to know what's already mounted. It is
// the input to pkg/ingressview.ServiceView.
type ManagedService struct {
	ID     string
	Name   string
	Labels map[string]string
}

// TaskState mirrors the Swarm task lifecycle states relevant to
// WaitForState (spec §4.2). A task with DesiredState == shutdown is
// excluded from the convergence check regardless of its current state.
type TaskState string

const (
	TaskStateNew       TaskState = "new"
	TaskStatePending   TaskState = "pending"
	TaskStateAssigned  TaskState = "assigned"
	TaskStateAccepted  TaskState = "accepted"
	TaskStatePreparing TaskState = "preparing"
	TaskStateStarting  TaskState = "starting"
	TaskStateRunning   TaskState = "running"
	TaskStateComplete  TaskState = "complete"
	TaskStateFailed    TaskState = "failed"
	TaskStateShutdown  TaskState = "shutdown"
	TaskStateRejected  TaskState = "rejected"
	TaskStateOrphaned  TaskState = "orphaned"
	TaskStateRemove    TaskState = "remove"
)

// ServiceMode selects Swarm's replicated or global scheduling mode.
type ServiceMode string

const (
	ServiceModeReplicated ServiceMode = "replicated"
	ServiceModeGlobal     ServiceMode = "global"
)

// PublishMode selects how a port is exposed cluster-wide.
type PublishMode string

const (
	PublishModeIngress PublishMode = "ingress"
	PublishModeHost    PublishMode = "host"
	PublishModeNone    PublishMode = "none"
)

// SecretRef mounts an existing orchestrator secret into a service's
// containers, matching spec §6's "mounted paths inside the reverse
// proxy": each key/cert/config/dhparam secret is mounted under its own
// name.
type SecretRef struct {
	SecretName string
	Target     string
	Mode       uint32
}

// ConfigRef mounts an existing orchestrator config, same shape as SecretRef.
type ConfigRef struct {
	ConfigName string
	Target     string
	Mode       uint32
}

// PortSpec is one published port.
type PortSpec struct {
	Name          string
	TargetPort    int
	PublishedPort int
	Protocol      string // tcp|udp, default tcp
	PublishMode   PublishMode
}

// PlacementPreference is one entry of Swarm's spread placement strategy.
type PlacementPreference struct {
	Strategy   string // "spread"
	Descriptor string
}

// ServiceSpec is the input to EnsureService: everything the controller
// needs to create or update a workload (the account-bootstrap job, the
// observe worker, the challenge responder, or the reverse proxy itself).
type ServiceSpec struct {
	Name        string
	Image       string
	Command     []string
	Args        []string
	Env         []string
	Networks    []string
	Secrets     []SecretRef
	Configs     []ConfigRef
	Constraints []string
	Labels      map[string]string
	Placement   []PlacementPreference
	Mode        ServiceMode
	Replicas    *uint64 // nil means "leave unset" (global mode, or no scaling intent)
	MaxReplicas *uint64
	Ports       []PortSpec
	// RestartOnCompletion controls whether Swarm restarts a task that
	// exits 0. The account-bootstrap job sets this false: it must run
	// exactly once and be observed reaching "complete".
	RestartOnCompletion bool
}
