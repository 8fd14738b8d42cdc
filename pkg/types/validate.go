package types

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// MaxQueueNameLength is the longest queue name cupsd accepts
const MaxQueueNameLength = 127

// ConfigurationError reports a declared resource that violates a static
// contract. It is raised before any command is issued for that resource.
type ConfigurationError struct {
	Queue  QueueName
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration for queue %q: %s", e.Queue, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for queue %q: %s: %s", e.Queue, e.Field, e.Reason)
}

func configErr(queue QueueName, field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Queue: queue, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ValidateQueueName checks that name is acceptable to cupsd. The error
// names the class of the first offending character.
func ValidateQueueName(name QueueName) error {
	if name == "" {
		return configErr(name, "name", "must not be empty")
	}
	if len(name) > MaxQueueNameLength {
		return configErr(name, "name", "must be at most %d bytes", MaxQueueNameLength)
	}
	for _, r := range string(name) {
		if class := forbiddenNameRune(r); class != "" {
			return configErr(name, "name", "must not contain %s (%q)", class, r)
		}
	}
	return nil
}

func forbiddenNameRune(r rune) string {
	switch {
	case r == ' ' || r == '\t':
		return "whitespace"
	case r == '/':
		return "a slash"
	case r == '#':
		return "a hash sign"
	case r == ',':
		return "a comma"
	case r == '"' || r == '\'' || r == '`':
		return "a quote character"
	case r == '\\':
		return "a backslash"
	case unicode.IsControl(r):
		return "a control character"
	}
	return ""
}

// Validate checks the declaration against every static contract: name,
// kind, kind-specific attributes, installation method exclusivity, paths,
// URIs, access control and option keys.
func (d *DeclaredQueue) Validate() error {
	if err := ValidateQueueName(d.Name); err != nil {
		return err
	}
	if !d.Kind.Valid() {
		return configErr(d.Name, "ensure", "unknown kind %q (want printer, class or absent)", d.Kind)
	}
	if d.Kind == KindAbsent {
		return nil
	}

	switch d.Kind {
	case KindClass:
		if err := d.validateClass(); err != nil {
			return err
		}
	case KindPrinter:
		if err := d.validatePrinter(); err != nil {
			return err
		}
	}

	if d.Access != nil {
		if err := validateAccess(d.Name, d.Access); err != nil {
			return err
		}
	}
	return ValidateOptionKeys(d.Name, d.Options)
}

func (d *DeclaredQueue) validateClass() error {
	printerOnly := map[string]bool{
		"uri":            d.DeviceURI != nil,
		"model":          d.Model != "",
		"ppd":            d.PPD != "",
		"interface":      d.Interface != "",
		"make_and_model": d.MakeAndModel != "",
	}
	for _, field := range []string{"uri", "model", "ppd", "interface", "make_and_model"} {
		if printerOnly[field] {
			return configErr(d.Name, field, "is not supported for classes")
		}
	}

	if len(d.Members) == 0 {
		return configErr(d.Name, "members", "a class needs at least one member")
	}
	for i, member := range d.Members {
		if err := ValidateQueueName(member); err != nil {
			return configErr(d.Name, "members", "member %q is not a valid queue name", member)
		}
		if member.Equal(d.Name) {
			return configErr(d.Name, "members", "a class cannot contain itself")
		}
		for _, earlier := range d.Members[:i] {
			if earlier.Equal(member) {
				return configErr(d.Name, "members", "member %q is listed twice", member)
			}
		}
	}
	return nil
}

func (d *DeclaredQueue) validatePrinter() error {
	if len(d.Members) > 0 {
		return configErr(d.Name, "members", "only classes have members")
	}

	set := 0
	for _, v := range []string{d.Model, d.PPD, d.Interface} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return configErr(d.Name, "model", "model, ppd and interface are mutually exclusive")
	}

	if d.PPD != "" && !filepath.IsAbs(d.PPD) {
		return configErr(d.Name, "ppd", "path %q must be absolute", d.PPD)
	}
	if d.Interface != "" && !filepath.IsAbs(d.Interface) {
		return configErr(d.Name, "interface", "path %q must be absolute", d.Interface)
	}

	if d.DeviceURI != nil {
		u, err := url.Parse(*d.DeviceURI)
		if err != nil {
			return configErr(d.Name, "uri", "%v", err)
		}
		if u.Scheme == "" {
			return configErr(d.Name, "uri", "%q has no scheme", *d.DeviceURI)
		}
	}
	return nil
}

func validateAccess(queue QueueName, acl *AccessControl) error {
	if acl.Policy != PolicyAllow && acl.Policy != PolicyDeny {
		return configErr(queue, "access", "policy must be allow or deny, got %q", acl.Policy)
	}
	if len(acl.Users) == 0 {
		return configErr(queue, "access", "users must not be empty")
	}
	for _, user := range acl.Users {
		if user == "" || user == "@" || strings.ContainsAny(user, " \t,") {
			return configErr(queue, "access", "invalid principal %q", user)
		}
	}
	return nil
}

// ValidateOptionKeys rejects keys that belong to a dedicated property or
// cannot be passed to lpadmin -o
func ValidateOptionKeys(queue QueueName, options map[string]string) error {
	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if property, ok := FirstClassOptions[key]; ok {
			return configErr(queue, "options", "%q must be managed through the %q property instead", key, property)
		}
		if key == "" || strings.ContainsAny(key, "= \t") {
			return configErr(queue, "options", "invalid option key %q", key)
		}
	}
	return nil
}

// ValidateSupportedOptions checks options against the keys the queue
// currently supports
func ValidateSupportedOptions(queue QueueName, options map[string]string, supported QueueAttributeSet) error {
	var unsupported []string
	for key := range options {
		if _, ok := supported[key]; !ok {
			unsupported = append(unsupported, key)
		}
	}
	if len(unsupported) == 0 {
		return nil
	}
	sort.Strings(unsupported)

	available := make([]string, 0, len(supported))
	for key := range supported {
		available = append(available, key)
	}
	sort.Strings(available)

	return configErr(queue, "options", "unsupported option(s) %s; supported: %s",
		strings.Join(unsupported, ", "), strings.Join(available, ", "))
}
