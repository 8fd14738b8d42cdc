/*
Package types defines the data model shared by every printq package.

# Core Types

Queue identity:
  - QueueName: printer or class name, case-insensitive
  - QueueKind: printer, class or absent
  - ClassMembership: ordered class members; order is significant

Queue state:
  - QueueAttributeSet: option key to current value, merging IPP-native
    attributes and driver (PPD) options
  - AccessControl: allow/deny policy plus principals (users or @groups)

Desired state:
  - DeclaredQueue: the target for one queue as handed to the reconciler

# Validation

DeclaredQueue.Validate enforces the static contracts before the reconciler
touches the print server. Failures are *ConfigurationError values:

	q := &types.DeclaredQueue{Name: "Front Desk", Kind: types.KindPrinter}
	err := q.Validate()
	// invalid configuration for queue "Front Desk": name: must not contain whitespace (' ')

Option keys that shadow a dedicated property (printer-is-shared, printer-info
and friends, see FirstClassOptions) are rejected with a pointer to that
property. Whether a key is supported by the installed driver can only be
decided against the live queue; ValidateSupportedOptions does that check
once the reconciler has read the supported set.
*/
package types
