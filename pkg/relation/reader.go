package relation

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/canonical/maubot-operator/pkg/types"
)

// DefaultServerName is used when the federation provider does not name itself
const DefaultServerName = "synapse"

// validate holds the shared payload validator instance
var validate = validator.New()

// MalformedDataError reports relation data that is present but unusable.
// It maps to a blocked unit status: the remote application published
// something, and what it published cannot be acted on.
type MalformedDataError struct {
	Kind   types.RelationKind
	Reason string
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("malformed %s relation data: %s", e.Kind, e.Reason)
}

// Payload shapes as the remote applications publish them. Validation tags
// draw the line between absent (nothing published) and malformed (published
// but unusable).
type databasePayload struct {
	Endpoints string `validate:"required"`
	Username  string `validate:"required"`
	Password  string `validate:"required"`
	Database  string `validate:"required"`
}

type ingressPayload struct {
	URL string `validate:"required,http_url"`
}

type federationPayload struct {
	Homeserver   string `validate:"required,http_url"`
	SharedSecret string `validate:"required"`
	ServerName   string
}

type loggingPayload struct {
	Endpoint string `validate:"required,http_url"`
}

// Reader derives typed facts from the relation data delivered with an event.
// It performs no I/O; the snapshot already contains everything the runtime
// knows.
type Reader struct{}

// NewReader creates a relation reader
func NewReader() *Reader {
	return &Reader{}
}

// ReadAll reads every relation kind from the snapshot. The returned facts
// have nil fields for absent relations. The first malformed payload aborts
// the read; the database relation is checked first.
func (r *Reader) ReadAll(snap types.Snapshot) (types.Facts, error) {
	var facts types.Facts
	var err error

	if facts.Database, err = r.Database(snap); err != nil {
		return types.Facts{}, err
	}
	if facts.Ingress, err = r.Ingress(snap); err != nil {
		return types.Facts{}, err
	}
	if facts.Federation, err = r.Federation(snap); err != nil {
		return types.Facts{}, err
	}
	if facts.Logging, err = r.Logging(snap); err != nil {
		return types.Facts{}, err
	}

	return facts, nil
}

// Database reads the database credentials fact. Nil means the relation is
// absent or nothing has been published yet.
func (r *Reader) Database(snap types.Snapshot) (*types.DatabaseFact, error) {
	bag := firstPopulated(snap.Instances(types.RelationDatabase))
	if bag == nil {
		return nil, nil
	}

	payload := databasePayload{
		Endpoints: bag["endpoints"],
		Username:  bag["username"],
		Password:  bag["password"],
		Database:  bag["database"],
	}
	if err := validate.Struct(payload); err != nil {
		return nil, malformed(types.RelationDatabase, err)
	}

	host, port, err := splitEndpoint(payload.Endpoints)
	if err != nil {
		return nil, &MalformedDataError{Kind: types.RelationDatabase, Reason: err.Error()}
	}

	return &types.DatabaseFact{
		Host:     host,
		Port:     port,
		User:     payload.Username,
		Password: payload.Password,
		Database: payload.Database,
	}, nil
}

// Ingress reads the external URL published by the ingress provider
func (r *Reader) Ingress(snap types.Snapshot) (*types.IngressFact, error) {
	bag := firstPopulated(snap.Instances(types.RelationIngress))
	if bag == nil {
		return nil, nil
	}

	payload := ingressPayload{URL: bag["url"]}
	if err := validate.Struct(payload); err != nil {
		return nil, malformed(types.RelationIngress, err)
	}

	return &types.IngressFact{URL: payload.URL}, nil
}

// Federation reads the federation contract (homeserver URL + shared secret)
func (r *Reader) Federation(snap types.Snapshot) (*types.FederationFact, error) {
	bag := firstPopulated(snap.Instances(types.RelationFederation))
	if bag == nil {
		return nil, nil
	}

	payload := federationPayload{
		Homeserver:   bag["homeserver"],
		SharedSecret: bag["shared_secret"],
		ServerName:   bag["server_name"],
	}
	if err := validate.Struct(payload); err != nil {
		return nil, malformed(types.RelationFederation, err)
	}

	serverName := payload.ServerName
	if serverName == "" {
		serverName = DefaultServerName
	}

	return &types.FederationFact{
		Homeserver:   payload.Homeserver,
		SharedSecret: payload.SharedSecret,
		ServerName:   serverName,
	}, nil
}

// Logging reads the log-sink endpoint
func (r *Reader) Logging(snap types.Snapshot) (*types.LoggingFact, error) {
	bag := firstPopulated(snap.Instances(types.RelationLogging))
	if bag == nil {
		return nil, nil
	}

	payload := loggingPayload{Endpoint: bag["endpoint"]}
	if err := validate.Struct(payload); err != nil {
		return nil, malformed(types.RelationLogging, err)
	}

	return &types.LoggingFact{Endpoint: payload.Endpoint}, nil
}

// firstPopulated returns the first databag a remote instance actually wrote
// to. Joined-but-unwritten instances arrive as empty bags and do not count
// as published data.
func firstPopulated(bags []types.Databag) types.Databag {
	for _, bag := range bags {
		if !bag.Empty() {
			return bag
		}
	}
	return nil
}

// splitEndpoint extracts host and numeric port from the first entry of a
// comma-separated endpoint list
func splitEndpoint(endpoints string) (string, int, error) {
	first := strings.TrimSpace(strings.Split(endpoints, ",")[0])

	host, portStr, err := net.SplitHostPort(first)
	if err != nil {
		return "", 0, fmt.Errorf("endpoint %q is not host:port", first)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return "", 0, fmt.Errorf("endpoint %q has invalid port", first)
	}

	return host, port, nil
}

func malformed(kind types.RelationKind, err error) *MalformedDataError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &MalformedDataError{
			Kind:   kind,
			Reason: fmt.Sprintf("field %s failed %s validation", strings.ToLower(fe.Field()), fe.Tag()),
		}
	}
	return &MalformedDataError{Kind: kind, Reason: err.Error()}
}
