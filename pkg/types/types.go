package types

import (
	"fmt"
	"time"
)

// RelationKind identifies an external integration the operator consumes
type RelationKind string

const (
	RelationDatabase   RelationKind = "database"
	RelationIngress    RelationKind = "ingress"
	RelationFederation RelationKind = "matrix-auth"
	RelationLogging    RelationKind = "logging"
)

// Databag holds the key/value payload one remote instance published on a relation
type Databag map[string]string

// Empty reports whether the remote side has written anything yet
func (d Databag) Empty() bool {
	return len(d) == 0
}

// StaticConfig is the deploy-time configuration delivered with each event
type StaticConfig map[string]string

// Configuration keys recognized in StaticConfig
const (
	ConfigKeyPublicURL = "public-url"
)

// Snapshot is the full externally-owned state delivered with an event.
// The operator never caches it; every reconciliation derives from the
// snapshot it was handed.
type Snapshot struct {
	Config    StaticConfig              `json:"config,omitempty"`
	Relations map[RelationKind][]Databag `json:"relations,omitempty"`
}

// Instances returns the delivered databags for one relation kind
func (s Snapshot) Instances(kind RelationKind) []Databag {
	if s.Relations == nil {
		return nil
	}
	return s.Relations[kind]
}

// DatabaseFact is the validated database credentials fact
type DatabaseFact struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN renders the fact as a PostgreSQL connection URI
func (f *DatabaseFact) DSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s", f.User, f.Password, f.Host, f.Port, f.Database)
}

// IngressFact is the validated external URL published by the ingress provider
type IngressFact struct {
	URL string
}

// FederationFact is the validated federation contract (homeserver + shared secret)
type FederationFact struct {
	Homeserver   string
	SharedSecret string
	ServerName   string
}

// LoggingFact is the validated log-sink endpoint
type LoggingFact struct {
	Endpoint string
}

// Facts aggregates the typed facts derived from one snapshot.
// A nil field means the relation is absent (not formed, or nothing
// published yet); absence is not an error.
type Facts struct {
	Database   *DatabaseFact
	Ingress    *IngressFact
	Federation *FederationFact
	Logging    *LoggingFact
}

// WorkloadConfig is the configuration document rendered into the
// workload container. Marshaling is deterministic: identical inputs
// produce identical bytes.
type WorkloadConfig struct {
	Server      ServerConfig          `yaml:"server"`
	Database    string                `yaml:"database"`
	Homeservers map[string]Homeserver `yaml:"homeservers,omitempty"`
	Logging     *LoggingConfig        `yaml:"logging,omitempty"`
}

// ServerConfig is the workload's HTTP server section
type ServerConfig struct {
	PublicURL string `yaml:"public_url"`
}

// Homeserver is one federation target in the homeservers section
type Homeserver struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
}

// LoggingConfig is the optional log-forwarding section
type LoggingConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// LayerDefinition describes one supervised process
type LayerDefinition struct {
	Name        string
	Summary     string
	Command     string
	WorkingDir  string
	After       []string
	Environment map[string]string
	Restart     RestartCondition
	Check       *LayerCheck
}

// LayerCheck is a periodic readiness probe attached to a layer
type LayerCheck struct {
	Name      string
	URL       string
	Period    time.Duration
	Threshold int
}

// RestartCondition defines when the supervisor restarts a process
type RestartCondition string

const (
	RestartNever     RestartCondition = "never"
	RestartOnFailure RestartCondition = "on-failure"
	RestartAlways    RestartCondition = "always"
)

// Plan is the full set of layer definitions for the workload container
type Plan struct {
	Layers []LayerDefinition
}

// PlanDocument is the wire form of a plan as the supervisor applies and
// reports it: one combined layer with service and check maps.
type PlanDocument struct {
	Summary     string                 `yaml:"summary,omitempty"`
	Description string                 `yaml:"description,omitempty"`
	Services    map[string]ServiceSpec `yaml:"services"`
	Checks      map[string]CheckSpec   `yaml:"checks,omitempty"`
}

// ServiceSpec is one service entry in a plan document
type ServiceSpec struct {
	Override    string            `yaml:"override"`
	Summary     string            `yaml:"summary,omitempty"`
	Command     string            `yaml:"command"`
	Startup     string            `yaml:"startup,omitempty"`
	After       []string          `yaml:"after,omitempty"`
	WorkingDir  string            `yaml:"working-dir,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
	Restart     RestartCondition  `yaml:"restart,omitempty"`
}

// CheckSpec is one check entry in a plan document
type CheckSpec struct {
	Override  string         `yaml:"override"`
	Period    string         `yaml:"period,omitempty"`
	Threshold int            `yaml:"threshold,omitempty"`
	HTTP      *HTTPCheckSpec `yaml:"http,omitempty"`
}

// HTTPCheckSpec is the HTTP probe target of a check
type HTTPCheckSpec struct {
	URL string `yaml:"url"`
}

// StatusState represents the unit status the operator reports
type StatusState string

const (
	StatusUnknown StatusState = "unknown"
	StatusWaiting StatusState = "waiting"
	StatusBlocked StatusState = "blocked"
	StatusActive  StatusState = "active"
)

// UnitStatus is the externally visible outcome of a reconciliation
type UnitStatus struct {
	State  StatusState `json:"state"`
	Reason string      `json:"reason,omitempty"`
}

// Waiting builds a waiting status (precondition not met yet; the runtime
// will redeliver)
func Waiting(reason string) UnitStatus {
	return UnitStatus{State: StatusWaiting, Reason: reason}
}

// Blocked builds a blocked status (operator intervention required)
func Blocked(reason string) UnitStatus {
	return UnitStatus{State: StatusBlocked, Reason: reason}
}

// Active builds the healthy steady-state status
func Active() UnitStatus {
	return UnitStatus{State: StatusActive}
}

func (s UnitStatus) String() string {
	if s.Reason == "" {
		return string(s.State)
	}
	return fmt.Sprintf("%s: %s", s.State, s.Reason)
}

// ActionErrorKind classifies account action failures
type ActionErrorKind string

const (
	// ActionErrorAuth marks a failed authentication round-trip; the
	// follow-up call was never made
	ActionErrorAuth ActionErrorKind = "auth"

	// ActionErrorCall marks a failed follow-up call after successful
	// authentication
	ActionErrorCall ActionErrorKind = "call"

	// ActionErrorNotReady marks an action invoked before the workload
	// can serve its API
	ActionErrorNotReady ActionErrorKind = "not-ready"

	// ActionErrorInvalid marks an action rejected before any workload
	// call, such as a reserved account name
	ActionErrorInvalid ActionErrorKind = "invalid"
)

// ActionError is a structured account action failure
type ActionError struct {
	Kind    ActionErrorKind `json:"kind"`
	Message string          `json:"error"`
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// CreateAdminResult is the outcome of a successful create-admin action
type CreateAdminResult struct {
	Password string `json:"password"`
}

// RegisterAccountResult is the outcome of a successful
// register-client-account action
type RegisterAccountResult struct {
	UserID      string `json:"user-id"`
	Password    string `json:"password"`
	AccessToken string `json:"access-token"`
	DeviceID    string `json:"device-id"`
}
