package types

import (
	"slices"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// QueueName identifies a printer or class on the print server. Names are
// compared case-insensitively, the way cupsd does.
type QueueName string

// Equal reports whether two names denote the same queue
func (n QueueName) Equal(other QueueName) bool {
	return strings.EqualFold(string(n), string(other))
}

func (n QueueName) String() string {
	return string(n)
}

// QueueKind is what a queue name currently denotes
type QueueKind string

const (
	KindPrinter QueueKind = "printer"
	KindClass   QueueKind = "class"
	KindAbsent  QueueKind = "absent"
)

// Valid reports whether k is one of the known kinds
func (k QueueKind) Valid() bool {
	switch k {
	case KindPrinter, KindClass, KindAbsent:
		return true
	}
	return false
}

// ClassMembership is the ordered member list of a class. Order defines the
// load-balancing priority and is significant.
type ClassMembership []QueueName

// Equal compares two memberships element by element, ignoring name case
func (m ClassMembership) Equal(other ClassMembership) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if !m[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// QueueAttributeSet maps attribute keys to their current values
type QueueAttributeSet map[string]string

// Policy is the access control policy of a queue
type Policy string

const (
	PolicyAllow Policy = "allow"
	PolicyDeny  Policy = "deny"
)

// PrincipalAll is the pseudo-user that stands for everybody
const PrincipalAll = "all"

// AccessControl governs who may submit jobs to a queue. Users holds plain
// user names or @group references.
type AccessControl struct {
	Policy Policy
	Users  []string
}

// NewAccessControl builds a normalized access control
func NewAccessControl(policy Policy, users ...string) AccessControl {
	return AccessControl{Policy: policy, Users: users}.Normalize()
}

// DefaultAccessControl is what cupsd reports for a queue without any ACL
func DefaultAccessControl() AccessControl {
	return NewAccessControl(PolicyAllow, PrincipalAll)
}

// Normalize returns a copy with quotes stripped and users sorted and
// deduplicated
func (a AccessControl) Normalize() AccessControl {
	users := NormalizeUsers(a.Users)
	if len(users) == 0 {
		users = []string{PrincipalAll}
	}
	return AccessControl{Policy: a.Policy, Users: users}
}

// Equal compares two access controls after normalization
func (a AccessControl) Equal(other AccessControl) bool {
	x, y := a.Normalize(), other.Normalize()
	if x.Policy != y.Policy {
		return false
	}
	return slices.Equal(x.Users, y.Users)
}

// String renders the access control the way lpadmin -u expects it
func (a AccessControl) String() string {
	return string(a.Policy) + ":" + strings.Join(a.Users, ",")
}

// NormalizeUsers strips quote characters and blanks, then sorts and
// deduplicates
func NormalizeUsers(users []string) []string {
	cleaned := lo.FilterMap(users, func(u string, _ int) (string, bool) {
		u = strings.TrimSpace(strings.Trim(u, `"'`))
		return u, u != ""
	})
	cleaned = lo.Uniq(cleaned)
	sort.Strings(cleaned)
	return cleaned
}

// InstallMethod says how a printer's driver is installed
type InstallMethod string

const (
	InstallNone      InstallMethod = ""
	InstallModel     InstallMethod = "model"
	InstallPPD       InstallMethod = "ppd"
	InstallInterface InstallMethod = "interface"
)

// DeclaredQueue is the desired state of one queue. Nil pointers and empty
// strings mean the attribute is not managed.
type DeclaredQueue struct {
	Name QueueName
	Kind QueueKind

	// Printer only
	DeviceURI    *string
	Model        string
	PPD          string
	Interface    string
	MakeAndModel string

	// Class only
	Members ClassMembership

	// Shared by printers and classes
	Access      *AccessControl
	Accepting   *bool
	Enabled     *bool
	Held        *bool
	Shared      *bool
	Description *string
	Location    *string
	Options     map[string]string
}

// InstallMethod returns the declared installation method and its argument
func (d *DeclaredQueue) InstallMethod() (InstallMethod, string) {
	switch {
	case d.Model != "":
		return InstallModel, d.Model
	case d.PPD != "":
		return InstallPPD, d.PPD
	case d.Interface != "":
		return InstallInterface, d.Interface
	}
	return InstallNone, ""
}

// FirstClassOptions maps option keys that have a dedicated declared
// property to the name of that property. They cannot be set through the
// generic options map.
var FirstClassOptions = map[string]string{
	"printer-is-accepting-jobs": "accepting",
	"printer-info":              "description",
	"printer-state":             "enabled",
	"printer-location":          "location",
	"printer-is-shared":         "shared",
	"device-uri":                "uri",
}
