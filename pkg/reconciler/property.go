package reconciler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cuemby/printq/pkg/types"
	"github.com/hashicorp/go-multierror"
)

// Property is one shared-property change. The set of implementations is
// closed; apply dispatches on it with a single type switch.
type Property interface {
	// Operation names the administration operation the change maps to
	Operation() string
	value() string
}

// DeviceURI points a printer at a device
type DeviceURI struct{ URI string }

// Access replaces the access control list
type Access struct{ ACL types.AccessControl }

// Description sets printer-info
type Description struct{ Text string }

// Location sets printer-location
type Location struct{ Text string }

// Option sets one native or vendor option
type Option struct{ Key, Value string }

// Shared publishes or hides the queue
type Shared struct{ Value bool }

// Accepting accepts or rejects new jobs
type Accepting struct{ Value bool }

// Enabled starts or stops the queue. Restore is the access control put back
// after the root bracket around an enable.
type Enabled struct {
	Value   bool
	Restore types.AccessControl
}

// Held holds or releases new jobs
type Held struct{ Value bool }

func (DeviceURI) Operation() string   { return "set-uri" }
func (Access) Operation() string      { return "set-acl" }
func (Description) Operation() string { return "set-description" }
func (Location) Operation() string    { return "set-location" }
func (Option) Operation() string      { return "set-option" }
func (Shared) Operation() string      { return "set-shared" }

func (p Accepting) Operation() string {
	if p.Value {
		return "accept"
	}
	return "reject"
}

func (p Enabled) Operation() string {
	if p.Value {
		return "enable"
	}
	return "disable"
}

func (p Held) Operation() string {
	if p.Value {
		return "hold"
	}
	return "release"
}

func (p DeviceURI) value() string   { return p.URI }
func (p Access) value() string      { return p.ACL.Normalize().String() }
func (p Description) value() string { return p.Text }
func (p Location) value() string    { return p.Text }
func (p Option) value() string      { return p.Key + "=" + p.Value }
func (p Shared) value() string      { return strconv.FormatBool(p.Value) }
func (p Accepting) value() string   { return "" }
func (p Enabled) value() string     { return "" }
func (p Held) value() string        { return "" }

func (r *Reconciler) apply(ctx context.Context, name types.QueueName, p Property) error {
	switch p := p.(type) {
	case DeviceURI:
		return r.admin.SetDeviceURI(ctx, name, p.URI)
	case Access:
		return r.admin.SetACL(ctx, name, p.ACL)
	case Description:
		return r.admin.SetDescription(ctx, name, p.Text)
	case Location:
		return r.admin.SetLocation(ctx, name, p.Text)
	case Option:
		return r.admin.SetOption(ctx, name, p.Key, p.Value)
	case Shared:
		return r.admin.SetShared(ctx, name, p.Value)
	case Accepting:
		if p.Value {
			return r.admin.Accept(ctx, name)
		}
		return r.admin.Reject(ctx, name)
	case Enabled:
		if p.Value {
			return r.enable(ctx, name, p.Restore)
		}
		return r.admin.Disable(ctx, name)
	case Held:
		if p.Value {
			return r.admin.Hold(ctx, name)
		}
		return r.admin.Release(ctx, name)
	}
	return fmt.Errorf("queue %s: unsupported property %T", name, p)
}

// enable starts a queue with its ACL temporarily opened to the root
// identity. cupsd refuses to let an account the ACL blocks enable the queue,
// and the bracket is issued on every enable.
func (r *Reconciler) enable(ctx context.Context, name types.QueueName, restore types.AccessControl) error {
	if err := r.admin.SetACL(ctx, name, types.NewAccessControl(types.PolicyAllow, r.rootIdentity)); err != nil {
		return err
	}
	if err := r.admin.Enable(ctx, name); err != nil {
		// put the ACL back so that a failed enable does not leave the queue
		// open to root only
		var result *multierror.Error
		result = multierror.Append(result, err)
		if rerr := r.admin.SetACL(ctx, name, restore); rerr != nil {
			result = multierror.Append(result, rerr)
		}
		return result.ErrorOrNil()
	}
	return r.admin.SetACL(ctx, name, restore)
}
