package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/cuemby/printq/pkg/admin"
	"github.com/cuemby/printq/pkg/discovery"
	"github.com/cuemby/printq/pkg/log"
	"github.com/cuemby/printq/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultRootIdentity is the account the enable bracket opens the ACL to
const DefaultRootIdentity = "root"

// Client is what the reconciler needs from the IPP query client
type Client interface {
	discovery.Querier
	AttributeValue(ctx context.Context, queue types.QueueName, attribute string) (string, error)
}

// Options configures a Reconciler
type Options struct {
	RootIdentity string
}

// Change is one logical administration operation issued for a queue
type Change struct {
	Operation string
	Value     string
}

func (c Change) String() string {
	if c.Value == "" {
		return c.Operation
	}
	return c.Operation + " " + c.Value
}

// Result describes what one reconciliation did
type Result struct {
	Queue    types.QueueName
	Previous types.QueueKind
	Kind     types.QueueKind
	Changes  []Change
}

// Changed reports whether any command was issued
func (r *Result) Changed() bool {
	return len(r.Changes) > 0
}

// Created reports whether the queue did not exist as its target kind before
func (r *Result) Created() bool {
	return r.Kind != types.KindAbsent && r.Previous != r.Kind
}

// Deleted reports whether an existing queue was removed for good
func (r *Result) Deleted() bool {
	return r.Kind == types.KindAbsent && r.Previous != types.KindAbsent
}

// Reconciler converges one declared queue at a time
type Reconciler struct {
	client       Client
	discovery    *discovery.Discovery
	admin        *admin.Admin
	rootIdentity string
	logger       zerolog.Logger
}

// New creates a reconciler. Discovery always runs in strict mode so that no
// command is issued against a partial inventory.
func New(client Client, adm *admin.Admin, opts Options) *Reconciler {
	if opts.RootIdentity == "" {
		opts.RootIdentity = DefaultRootIdentity
	}
	return &Reconciler{
		client:       client,
		discovery:    discovery.NewStrict(client),
		admin:        adm,
		rootIdentity: opts.RootIdentity,
		logger:       log.WithComponent("reconciler"),
	}
}

// Reconcile converges the server towards decl. Configuration errors are
// returned before any command is issued, except unsupported options on a
// queue this call created, which can only be checked once its driver is
// installed. The first failing command aborts
// the remaining steps and nothing is rolled back. The returned result lists
// the changes issued so far, even on error.
func (r *Reconciler) Reconcile(ctx context.Context, decl *types.DeclaredQueue) (*Result, error) {
	result := &Result{Queue: decl.Name, Kind: decl.Kind, Previous: types.KindAbsent}

	if err := decl.Validate(); err != nil {
		return result, err
	}

	snap, err := r.discovery.Snapshot(ctx)
	if err != nil {
		return result, err
	}
	result.Previous = snap.Kind(decl.Name)

	logger := r.logger.With().
		Str("queue", string(decl.Name)).
		Str("current", string(result.Previous)).
		Str("target", string(decl.Kind)).
		Logger()
	logger.Debug().Msg("Reconciling queue")

	job := &run{r: r, decl: decl, result: result}
	switch decl.Kind {
	case types.KindAbsent:
		err = job.absent(ctx)
	case types.KindPrinter:
		err = job.printer(ctx, result.Previous)
	case types.KindClass:
		err = job.class(ctx, result.Previous, snap.Members(decl.Name))
	}
	if err != nil {
		return result, err
	}

	if result.Changed() {
		logger.Info().Int("changes", len(result.Changes)).Msg("Queue converged")
	}
	return result, nil
}

// run carries one reconciliation
type run struct {
	r      *Reconciler
	decl   *types.DeclaredQueue
	result *Result
}

func (x *run) record(operation, value string) {
	x.result.Changes = append(x.result.Changes, Change{Operation: operation, Value: value})
}

func (x *run) delete(ctx context.Context) error {
	if err := x.r.admin.Delete(ctx, x.decl.Name); err != nil {
		return err
	}
	x.record("delete", "")
	return nil
}

func (x *run) absent(ctx context.Context) error {
	if x.result.Previous == types.KindAbsent {
		return nil
	}
	return x.delete(ctx)
}

func (x *run) printer(ctx context.Context, current types.QueueKind) error {
	name := x.decl.Name

	if current == types.KindPrinter {
		mismatch, err := x.makeAndModelMismatch(ctx)
		if err != nil {
			return err
		}
		if !mismatch {
			return x.sync(ctx, x.r.observe(name))
		}

		// the driver changed: re-create in place, keeping the device the
		// queue pointed at unless one is declared
		obs := x.r.observe(name)
		uri, err := obs.attr(ctx, "device-uri")
		if err != nil {
			return err
		}
		if err := x.create(ctx); err != nil {
			return err
		}
		return x.syncWithURI(ctx, uri)
	}

	if current == types.KindClass {
		if err := x.delete(ctx); err != nil {
			return err
		}
	}
	if err := x.create(ctx); err != nil {
		return err
	}
	return x.sync(ctx, x.r.observe(name))
}

// create binds the queue to the null device, installs the declared driver
// and verifies the result
func (x *run) create(ctx context.Context) error {
	name := x.decl.Name
	if err := x.r.admin.CreateMinimal(ctx, name); err != nil {
		return err
	}
	x.record("create", admin.NullDevice)

	method, arg := x.decl.InstallMethod()
	if method != types.InstallNone {
		if err := x.r.admin.Install(ctx, name, method, arg); err != nil {
			return err
		}
		x.record("install", string(method)+" "+arg)
	}
	return x.verify(ctx)
}

func (x *run) makeAndModelMismatch(ctx context.Context) (bool, error) {
	if x.decl.MakeAndModel == "" {
		return false, nil
	}
	installed, err := x.r.observe(x.decl.Name).attr(ctx, "printer-make-and-model")
	if err != nil {
		return false, err
	}
	return installed != x.decl.MakeAndModel, nil
}

func (x *run) verify(ctx context.Context) error {
	if x.decl.MakeAndModel == "" {
		return nil
	}
	installed, err := x.r.observe(x.decl.Name).attr(ctx, "printer-make-and-model")
	if err != nil {
		return err
	}
	if installed != x.decl.MakeAndModel {
		method, arg := x.decl.InstallMethod()
		return &VerificationError{
			Queue:     x.decl.Name,
			Expected:  x.decl.MakeAndModel,
			Installed: installed,
			Method:    method,
			Argument:  arg,
		}
	}
	return nil
}

func (x *run) class(ctx context.Context, current types.QueueKind, members types.ClassMembership) error {
	name := x.decl.Name

	rebuild := current != types.KindClass || !members.Equal(x.decl.Members)
	if rebuild {
		if current != types.KindAbsent {
			if err := x.delete(ctx); err != nil {
				return err
			}
		}
		for _, member := range x.decl.Members {
			if err := x.r.admin.AddMember(ctx, member, name); err != nil {
				return err
			}
			x.record("add-member", string(member))
		}
	}
	return x.sync(ctx, x.r.observe(name))
}

func (x *run) syncWithURI(ctx context.Context, previousURI string) error {
	if x.decl.DeviceURI == nil && previousURI != "" {
		decl := *x.decl
		decl.DeviceURI = &previousURI
		x.decl = &decl
	}
	return x.sync(ctx, x.r.observe(x.decl.Name))
}

// sync plans the shared-property changes against obs and applies them in
// order. On a queue that existed before this run the options are validated
// before the first command; on a new one right after creation.
func (x *run) sync(ctx context.Context, obs *observed) error {
	props, err := x.plan(ctx, obs)
	if err != nil {
		return err
	}
	for _, p := range props {
		if err := x.r.apply(ctx, x.decl.Name, p); err != nil {
			return err
		}
		x.record(p.Operation(), p.value())
	}
	return nil
}

// plan compares every declared property with the observed value, in
// application order
func (x *run) plan(ctx context.Context, obs *observed) ([]Property, error) {
	d := x.decl
	var props []Property

	// options first, so an unsupported key fails before anything is read
	// for the remaining properties
	var options []Property
	if len(d.Options) > 0 {
		supported, err := obs.supportedOptions(ctx)
		if err != nil {
			return nil, err
		}
		if err := types.ValidateSupportedOptions(d.Name, d.Options, supported); err != nil {
			var ce *types.ConfigurationError
			if x.result.Created() && errors.As(err, &ce) {
				ce.Reason += "; the queue was created but options were not applied"
			}
			return nil, err
		}
		keys := make([]string, 0, len(d.Options))
		for k := range d.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if supported[k] != d.Options[k] {
				options = append(options, Option{Key: k, Value: d.Options[k]})
			}
		}
	}

	if d.DeviceURI != nil && d.Kind == types.KindPrinter {
		current, err := obs.attr(ctx, "device-uri")
		if err != nil {
			return nil, err
		}
		if current != *d.DeviceURI {
			props = append(props, DeviceURI{URI: *d.DeviceURI})
		}
	}

	if d.Access != nil {
		current, err := obs.access(ctx)
		if err != nil {
			return nil, err
		}
		if !current.Equal(*d.Access) {
			props = append(props, Access{ACL: d.Access.Normalize()})
		}
	}

	for _, text := range []struct {
		want *string
		key  string
		prop func(string) Property
	}{
		{d.Description, "printer-info", func(s string) Property { return Description{Text: s} }},
		{d.Location, "printer-location", func(s string) Property { return Location{Text: s} }},
	} {
		if text.want == nil {
			continue
		}
		current, err := obs.attr(ctx, text.key)
		if err != nil {
			return nil, err
		}
		if current != *text.want {
			props = append(props, text.prop(*text.want))
		}
	}

	props = append(props, options...)

	if d.Shared != nil {
		current, err := obs.boolean(ctx, "printer-is-shared")
		if err != nil {
			return nil, err
		}
		if current != *d.Shared {
			props = append(props, Shared{Value: *d.Shared})
		}
	}

	if d.Accepting != nil {
		current, err := obs.boolean(ctx, "printer-is-accepting-jobs")
		if err != nil {
			return nil, err
		}
		if current != *d.Accepting {
			props = append(props, Accepting{Value: *d.Accepting})
		}
	}

	if d.Enabled != nil {
		current, err := obs.enabled(ctx)
		if err != nil {
			return nil, err
		}
		if current != *d.Enabled {
			p := Enabled{Value: *d.Enabled}
			if p.Value {
				restore, err := x.restoreACL(ctx, obs)
				if err != nil {
					return nil, err
				}
				p.Restore = restore
			}
			props = append(props, p)
		}
	}

	if d.Held != nil {
		current, err := obs.held(ctx)
		if err != nil {
			return nil, err
		}
		if current != *d.Held {
			props = append(props, Held{Value: *d.Held})
		}
	}

	return props, nil
}

// restoreACL is the access control that must hold once the queue is
// enabled: the declared one, else whatever is in place now
func (x *run) restoreACL(ctx context.Context, obs *observed) (types.AccessControl, error) {
	if x.decl.Access != nil {
		return x.decl.Access.Normalize(), nil
	}
	return obs.access(ctx)
}

// VerificationError reports an installed driver that does not match the
// declared make-and-model
type VerificationError struct {
	Queue     types.QueueName
	Expected  string
	Installed string
	Method    types.InstallMethod
	Argument  string
}

func (e *VerificationError) Error() string {
	msg := fmt.Sprintf("queue %s: installed make-and-model %q does not match the declared %q", e.Queue, e.Installed, e.Expected)
	if e.Method != types.InstallNone {
		msg += fmt.Sprintf(" after installing %s %s", e.Method, e.Argument)
	}
	return msg + "; revise the model or PPD, or the make_and_model expectation"
}
