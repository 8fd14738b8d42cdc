package framework

import (
	"fmt"
	"strings"

	"github.com/cuemby/printq/pkg/process"
)

func (f *FakeCUPS) lpadmin(args []string) process.Result {
	var target *Queue
	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() (string, bool) {
			if i+1 >= len(args) {
				return "", false
			}
			i++
			return args[i], true
		}

		switch arg {
		case "-E":
			if target != nil {
				target.Enabled = true
				target.Accepting = true
			}
		case "-x":
			name, ok := next()
			if !ok {
				return failure(1, "lpadmin: Expected printer or class after \"-x\" option.")
			}
			if _, exists := f.queues[lower(name)]; !exists {
				return failure(1, "lpadmin: The printer or class does not exist.")
			}
			delete(f.queues, lower(name))
			for _, q := range f.queues {
				if q.Class {
					q.Members = removeName(q.Members, name)
				}
			}
		case "-p":
			name, ok := next()
			if !ok {
				return failure(1, "lpadmin: Expected printer name after \"-p\" option.")
			}
			q, exists := f.queues[lower(name)]
			if !exists {
				q = &Queue{
					Name:         name,
					MakeAndModel: "Local Raw Printer",
					Native:       defaultNative(false),
				}
				f.queues[lower(name)] = q
			}
			target = q
		case "-c":
			class, ok := next()
			if !ok || target == nil {
				return failure(1, "lpadmin: Unable to add a printer to the class:")
			}
			c, exists := f.queues[lower(class)]
			if !exists {
				c = &Queue{
					Name:         class,
					Class:        true,
					MakeAndModel: "Local Printer Class",
					Accepting:    true,
					Enabled:      true,
					Native:       defaultNative(true),
				}
				f.queues[lower(class)] = c
			}
			if !c.Class {
				return failure(1, "lpadmin: Unable to add a printer to the class:\n        client-error-not-possible")
			}
			if !containsName(c.Members, target.Name) {
				c.Members = append(c.Members, target.Name)
			}
		default:
			value, ok := next()
			if !ok {
				return failure(1, fmt.Sprintf("lpadmin: Unknown option \"%s\".", arg))
			}
			if target == nil {
				return failure(1, "lpadmin: Unable to set the printer options:\n        You must specify a printer name first.")
			}
			if res, failed := f.applyOption(target, arg, value); failed {
				return res
			}
		}
	}
	return process.Result{}
}

func (f *FakeCUPS) applyOption(q *Queue, flag, value string) (process.Result, bool) {
	install := func(drivers map[string]Driver) (process.Result, bool) {
		d, ok := drivers[value]
		if !ok {
			return failure(1, "lpadmin: Unable to copy PPD file."), true
		}
		q.MakeAndModel = d.MakeAndModel
		q.Vendor = append([]VendorOption(nil), d.Options...)
		return process.Result{}, false
	}

	switch flag {
	case "-v":
		q.DeviceURI = value
	case "-m":
		return install(f.Models)
	case "-P":
		return install(f.PPDs)
	case "-i":
		return install(f.Interfaces)
	case "-D":
		q.Info = value
	case "-L":
		q.Location = value
	case "-u":
		policy, users, _ := strings.Cut(value, ":")
		list := strings.Split(users, ",")
		q.Allowed, q.Denied = nil, nil
		switch {
		case policy == "allow" && users != "all":
			q.Allowed = list
		case policy == "deny" && users != "none":
			q.Denied = list
		}
	case "-o":
		key, val, _ := strings.Cut(value, "=")
		switch {
		case key == "printer-is-shared":
			q.Shared = val == "true"
		case key == "auth-info-required":
			q.AuthInfo = val
			if val == "none" {
				q.AuthInfo = ""
			}
		default:
			if _, native := q.Native[key]; native {
				q.Native[key] = val
				break
			}
			for i, opt := range q.Vendor {
				if opt.Key == key {
					if !containsName(opt.Choices, val) {
						return failure(1, fmt.Sprintf("lpadmin: Unknown choice %q for option %q.", val, key)), true
					}
					q.Vendor[i].Default = val
				}
			}
		}
	default:
		return failure(1, fmt.Sprintf("lpadmin: Unknown option \"%s\".", flag)), true
	}
	return process.Result{}, false
}

func (f *FakeCUPS) lpoptions(args []string) process.Result {
	var name string
	list := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-p", "-d":
			if i+1 < len(args) {
				i++
				name = args[i]
			}
		case "-l":
			list = true
		}
	}

	q, ok := f.queues[lower(name)]
	if !ok {
		return failure(1, "lpoptions: Unknown printer or class.")
	}
	if !list {
		return process.Result{}
	}

	var b strings.Builder
	for _, opt := range q.Vendor {
		fmt.Fprintf(&b, "%s/%s:", opt.Key, opt.Label)
		for _, choice := range opt.Choices {
			if choice == opt.Default {
				b.WriteString(" *" + choice)
			} else {
				b.WriteString(" " + choice)
			}
		}
		b.WriteString("\n")
	}
	return process.Result{Stdout: b.String()}
}

func (f *FakeCUPS) queueState(tool string, args []string) process.Result {
	if len(args) == 0 {
		return failure(1, tool+": Expected destination")
	}
	name := args[len(args)-1]
	q, ok := f.queues[lower(name)]
	if !ok {
		return failure(1, fmt.Sprintf("%s: The printer or class does not exist.", tool))
	}

	hold, release := false, false
	for _, a := range args[:len(args)-1] {
		switch a {
		case "--hold":
			hold = true
		case "--release":
			release = true
		}
	}

	switch tool {
	case "cupsaccept":
		q.Accepting = true
	case "cupsreject":
		q.Accepting = false
	case "cupsenable":
		if release {
			q.Held = false
			break
		}
		if f.EnforceACL && f.blocked(q) {
			return failure(1, "cupsenable: Forbidden")
		}
		q.Enabled = true
	case "cupsdisable":
		if hold {
			q.Held = true
			break
		}
		q.Enabled = false
	}
	return process.Result{}
}

func (f *FakeCUPS) blocked(q *Queue) bool {
	if containsName(q.Denied, f.Operator) {
		return true
	}
	return len(q.Allowed) > 0 && !containsName(q.Allowed, f.Operator)
}

func containsName(list []string, name string) bool {
	for _, n := range list {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func removeName(list []string, name string) []string {
	out := list[:0]
	for _, n := range list {
		if !strings.EqualFold(n, name) {
			out = append(out, n)
		}
	}
	return out
}
