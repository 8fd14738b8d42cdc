package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cuemby/printq/pkg/types"
	"gopkg.in/yaml.v3"
)

// APIVersion is the only manifest version understood
const APIVersion = "printq/v1"

// Resource kinds
const (
	KindPrinter = "Printer"
	KindClass   = "Class"
	KindQueue   = "Queue"
)

// EnsureAbsent marks a resource that must not exist
const EnsureAbsent = "absent"

// Resource is one YAML document of a manifest
type Resource struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`
	Spec       Spec     `yaml:"spec"`
}

// Metadata identifies a resource
type Metadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// Access is the YAML form of an access control
type Access struct {
	Policy string   `yaml:"policy"`
	Users  []string `yaml:"users,omitempty"`
}

// Spec holds every field a resource may declare. Fields that do not apply
// to the resource kind are rejected by the queue validation.
type Spec struct {
	Ensure string `yaml:"ensure,omitempty"`

	URI          *string `yaml:"uri,omitempty"`
	Model        string  `yaml:"model,omitempty"`
	PPD          string  `yaml:"ppd,omitempty"`
	Interface    string  `yaml:"interface,omitempty"`
	MakeAndModel string  `yaml:"make_and_model,omitempty"`

	Members []string `yaml:"members,omitempty"`

	Access      *Access           `yaml:"access,omitempty"`
	Accepting   *bool             `yaml:"accepting,omitempty"`
	Enabled     *bool             `yaml:"enabled,omitempty"`
	Held        *bool             `yaml:"held,omitempty"`
	Shared      *bool             `yaml:"shared,omitempty"`
	Description *string           `yaml:"description,omitempty"`
	Location    *string           `yaml:"location,omitempty"`
	Options     map[string]string `yaml:"options,omitempty"`

	Require []string `yaml:"require,omitempty"`
}

// Manifest is an ordered set of resources loaded from one source
type Manifest struct {
	Source    string
	Resources []*Resource
}

// LoadFile reads a manifest from disk
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Source = path
	return m, nil
}

// Parse decodes a multi-document YAML manifest. Empty documents are skipped.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	for doc := 1; ; doc++ {
		var res Resource
		err := dec.Decode(&res)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: failed to parse YAML: %w", doc, err)
		}
		if res.Kind == "" && res.Metadata.Name == "" && res.APIVersion == "" {
			continue
		}
		if err := res.check(); err != nil {
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}
		m.Resources = append(m.Resources, &res)
	}
	return m, nil
}

func (r *Resource) check() error {
	if r.APIVersion != APIVersion {
		return fmt.Errorf("unsupported apiVersion %q (want %s)", r.APIVersion, APIVersion)
	}
	if r.Metadata.Name == "" {
		return fmt.Errorf("%s: metadata.name is required", r.Kind)
	}
	switch r.Kind {
	case KindPrinter, KindClass:
		if r.Spec.Ensure != "" && r.Spec.Ensure != EnsureAbsent {
			return fmt.Errorf("%s %s: unsupported ensure %q", r.Kind, r.Metadata.Name, r.Spec.Ensure)
		}
	case KindQueue:
		if r.Spec.Ensure != EnsureAbsent {
			return fmt.Errorf("Queue %s: ensure must be %q", r.Metadata.Name, EnsureAbsent)
		}
	default:
		return fmt.Errorf("unsupported resource kind: %s", r.Kind)
	}
	return nil
}

// Name returns the queue name of the resource
func (r *Resource) Name() types.QueueName {
	return types.QueueName(r.Metadata.Name)
}

// QueueKind is the kind of queue the resource converges to
func (r *Resource) QueueKind() types.QueueKind {
	if r.Spec.Ensure == EnsureAbsent {
		return types.KindAbsent
	}
	if r.Kind == KindClass {
		return types.KindClass
	}
	return types.KindPrinter
}

// ToDeclared converts the resource into the reconciler's desired state
func (r *Resource) ToDeclared() *types.DeclaredQueue {
	s := r.Spec
	d := &types.DeclaredQueue{
		Name: r.Name(),
		Kind: r.QueueKind(),
	}
	if d.Kind == types.KindAbsent {
		return d
	}

	d.DeviceURI = s.URI
	d.Model = s.Model
	d.PPD = s.PPD
	d.Interface = s.Interface
	d.MakeAndModel = s.MakeAndModel
	for _, m := range s.Members {
		d.Members = append(d.Members, types.QueueName(m))
	}

	if s.Access != nil {
		acl := types.AccessControl{
			Policy: types.Policy(strings.ToLower(s.Access.Policy)),
			Users:  s.Access.Users,
		}
		d.Access = &acl
	}
	d.Accepting = s.Accepting
	d.Enabled = s.Enabled
	d.Held = s.Held
	d.Shared = s.Shared
	d.Description = s.Description
	d.Location = s.Location
	d.Options = s.Options
	return d
}

// Dependencies lists the queues this resource must follow: class members
// plus explicit requirements
func (r *Resource) Dependencies() []types.QueueName {
	var deps []types.QueueName
	if r.QueueKind() == types.KindClass {
		for _, m := range r.Spec.Members {
			deps = append(deps, types.QueueName(m))
		}
	}
	for _, req := range r.Spec.Require {
		deps = append(deps, types.QueueName(req))
	}
	return deps
}

// Validate runs the static queue validation over every resource
func (m *Manifest) Validate() error {
	if _, err := m.Order(); err != nil {
		return err
	}
	for _, res := range m.Resources {
		if err := res.ToDeclared().Validate(); err != nil {
			return err
		}
	}
	return nil
}
