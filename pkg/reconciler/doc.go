/*
Package reconciler converges CUPS queues towards their declared state.

A Reconciler handles one declared queue at a time. It takes a strict
inventory of the server, works out what the name currently denotes and
drives the administration tools through the states absent, printer and
class:

	target absent    delete the queue if it exists
	target printer   delete a class of that name, create a minimal queue on
	                 file:///dev/null, install the model, PPD or interface
	                 script, verify make-and-model, then sync properties
	target class     delete a printer of that name; when the class is new or
	                 its member list differs (order matters) delete it and
	                 add the members in declared order; then sync properties

An existing printer whose make-and-model no longer matches the declaration
is re-created in place and verified again.

# Properties

Shared properties are read one attribute at a time and compared with the
declaration. Every difference becomes a Property value (DeviceURI, Access,
Description, Location, Option, Shared, Accepting, Enabled, Held), applied in
that order through one type switch.

Enabling a queue is always bracketed by two ACL writes: the ACL is opened to
the root identity, the queue is enabled, and the ACL that must hold
afterwards (declared, else current) is put back. cupsd refuses to let an
account its ACL blocks enable the queue.

Options must be known to the queue: the native attributes (auth-info-required
reads back empty when unset and counts as "none") plus the vendor options
lpoptions lists. Keys with a dedicated property are rejected outright.

# Errors

Nothing is retried and nothing is rolled back. The first failing command
ends the reconciliation of that queue with an *admin.ConvergenceError; a
driver that reports the wrong make-and-model gives a *VerificationError;
declaration problems give a *types.ConfigurationError before any command.

# Passes and the agent

Pass runs an ordered list of items, keeps going past failures, skips items
whose dependencies failed, aggregates errors with go-multierror, publishes
events and updates metrics. Agent repeats a pass on a ticker, one at a time,
and saves each report:

	pass := reconciler.NewPass(r, broker)
	agent := reconciler.NewAgent(pass, "site.yaml", load, 30*time.Minute, store)
	agent.Start()
	defer agent.Stop()
*/
package reconciler
