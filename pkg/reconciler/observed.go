package reconciler

import (
	"context"
	"strings"

	"github.com/cuemby/printq/pkg/types"
	"github.com/samber/lo"
)

// NativeOptions are the protocol-native attributes every queue supports
// through the options map
var NativeOptions = []string{
	"auth-info-required",
	"job-k-limit",
	"job-page-limit",
	"job-quota-period",
	"job-sheets-default",
	"port-monitor",
	"printer-error-policy",
	"printer-op-policy",
}

// observed reads the current attributes of one queue on demand. A fresh
// instance is used after every create, so nothing outlives the state it
// describes.
type observed struct {
	r     *Reconciler
	queue types.QueueName
	cache map[string]string
}

func (r *Reconciler) observe(queue types.QueueName) *observed {
	return &observed{r: r, queue: queue, cache: make(map[string]string)}
}

func (o *observed) attr(ctx context.Context, key string) (string, error) {
	if v, ok := o.cache[key]; ok {
		return v, nil
	}
	v, err := o.r.client.AttributeValue(ctx, o.queue, key)
	if err != nil {
		return "", err
	}
	o.cache[key] = v
	return v, nil
}

func (o *observed) boolean(ctx context.Context, key string) (bool, error) {
	v, err := o.attr(ctx, key)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(v), "true"), nil
}

func (o *observed) list(ctx context.Context, key string) ([]string, error) {
	v, err := o.attr(ctx, key)
	if err != nil {
		return nil, err
	}
	return splitList(v), nil
}

func (o *observed) enabled(ctx context.Context) (bool, error) {
	v, err := o.attr(ctx, "printer-state")
	if err != nil {
		return false, err
	}
	switch strings.TrimSpace(v) {
	case "stopped", "5":
		return false, nil
	}
	return true, nil
}

func (o *observed) held(ctx context.Context) (bool, error) {
	reasons, err := o.list(ctx, "printer-state-reasons")
	if err != nil {
		return false, err
	}
	return lo.Contains(reasons, "hold-new-jobs"), nil
}

func (o *observed) access(ctx context.Context) (types.AccessControl, error) {
	denied, err := o.list(ctx, "requesting-user-name-denied")
	if err != nil {
		return types.AccessControl{}, err
	}
	allowed, err := o.list(ctx, "requesting-user-name-allowed")
	if err != nil {
		return types.AccessControl{}, err
	}
	return AccessFromLists(denied, allowed), nil
}

// supportedOptions merges the native attributes with the vendor options
// lpoptions reports for the queue
func (o *observed) supportedOptions(ctx context.Context) (types.QueueAttributeSet, error) {
	supported := make(types.QueueAttributeSet, len(NativeOptions))
	for _, key := range NativeOptions {
		v, err := o.attr(ctx, key)
		if err != nil {
			return nil, err
		}
		// cupsd reports an unset auth-info-required as an empty value
		if key == "auth-info-required" && v == "" {
			v = "none"
		}
		supported[key] = v
	}

	vendor, err := o.r.admin.ListOptions(ctx, o.queue)
	if err != nil {
		return nil, err
	}
	for key, v := range vendor {
		supported[key] = v
	}
	return supported, nil
}

// AccessFromLists derives the current access control from the denied and
// allowed user lists. Deny wins when any user is denied; with neither list
// set everybody is allowed.
func AccessFromLists(denied, allowed []string) types.AccessControl {
	denied = types.NormalizeUsers(denied)
	allowed = types.NormalizeUsers(allowed)

	switch {
	case len(denied) > 0:
		return types.AccessControl{Policy: types.PolicyDeny, Users: denied}
	case len(allowed) > 0:
		return types.AccessControl{Policy: types.PolicyAllow, Users: allowed}
	}
	return types.DefaultAccessControl()
}

func splitList(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return lo.Map(strings.Split(v, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
}
