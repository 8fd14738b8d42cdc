package framework

import (
	"bufio"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/cuemby/printq/pkg/process"
)

type attribute struct {
	name   string
	typ    string
	values []string
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// attributes lists what Get-Printer-Attributes would report for q
func (q *Queue) attributes() []attribute {
	attrs := []attribute{
		{"printer-name", "nameWithoutLanguage", []string{q.Name}},
	}
	if q.Class && len(q.Members) > 0 {
		attrs = append(attrs, attribute{"member-names", "1setOf nameWithoutLanguage", q.Members})
	}
	if !q.Class {
		attrs = append(attrs, attribute{"device-uri", "uri", []string{q.DeviceURI}})
	}

	state := "idle"
	if !q.Enabled {
		state = "stopped"
	}
	var reasons []string
	if !q.Enabled {
		reasons = append(reasons, "paused")
	}
	if q.Held {
		reasons = append(reasons, "hold-new-jobs")
	}
	if len(reasons) == 0 {
		reasons = []string{"none"}
	}

	attrs = append(attrs,
		attribute{"printer-make-and-model", "textWithoutLanguage", []string{q.MakeAndModel}},
		attribute{"printer-info", "textWithoutLanguage", []string{q.Info}},
		attribute{"printer-location", "textWithoutLanguage", []string{q.Location}},
		attribute{"printer-is-shared", "boolean", []string{boolString(q.Shared)}},
		attribute{"printer-is-accepting-jobs", "boolean", []string{boolString(q.Accepting)}},
		attribute{"printer-state", "enum", []string{state}},
		attribute{"printer-state-reasons", "1setOf keyword", reasons},
		attribute{"auth-info-required", "keyword", []string{q.AuthInfo}},
	)
	if len(q.Allowed) > 0 {
		attrs = append(attrs, attribute{"requesting-user-name-allowed", "1setOf nameWithoutLanguage", q.Allowed})
	}
	if len(q.Denied) > 0 {
		attrs = append(attrs, attribute{"requesting-user-name-denied", "1setOf nameWithoutLanguage", q.Denied})
	}

	keys := make([]string, 0, len(q.Native))
	for k := range q.Native {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		typ := "keyword"
		if strings.HasPrefix(k, "job-") && k != "job-sheets-default" {
			typ = "integer"
		}
		attrs = append(attrs, attribute{k, typ, strings.Split(q.Native[k], ",")})
	}
	return attrs
}

func parseTest(body string) (operation string, display []string) {
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "OPERATION":
			operation = fields[1]
		case "DISPLAY":
			display = append(display, fields[1])
		}
	}
	return operation, display
}

var backslashEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// csvField quotes a joined value the way ipptool's CSV writer does:
// quotes and backslashes inside a quoted field get a backslash
func csvField(values []string) string {
	f := strings.Join(values, ",")
	if strings.ContainsAny(f, `,"\`) {
		return `"` + backslashEscaper.Replace(f) + `"`
	}
	return f
}

func verboseValue(values []string) string {
	return backslashEscaper.Replace(strings.Join(values, ","))
}

func (f *FakeCUPS) ipptool(args []string, stdin string) process.Result {
	if len(args) < 2 {
		return failure(1, "Usage: ipptool [options] URI filename")
	}
	compact := args[0] == "-c"
	if compact && f.CompactBroken {
		return failure(1, "ipptool: Unable to connect to localhost on port 631")
	}

	u, err := url.Parse(args[1])
	if err != nil {
		return failure(1, "ipptool: Bad URI")
	}

	operation, display := parseTest(stdin)
	var entities []*Queue
	switch operation {
	case "CUPS-Get-Printers":
		for _, name := range f.sortedNames(false) {
			entities = append(entities, f.queues[lower(name)])
		}
	case "CUPS-Get-Classes":
		for _, name := range f.sortedNames(true) {
			entities = append(entities, f.queues[lower(name)])
		}
	case "Get-Printer-Attributes":
		name := strings.TrimPrefix(strings.TrimPrefix(u.Path, "/printers/"), "/classes/")
		q, ok := f.queues[lower(name)]
		if !ok {
			if compact {
				return process.Result{ExitCode: 1, Stdout: strings.Join(display, ",") + "\n", Stderr: "client-error-not-found\n"}
			}
			return process.Result{
				ExitCode: 1,
				Stdout:   "    Get-Printer-Attributes [FAIL]\n        EXPECTED: STATUS successful-ok (got client-error-not-found)\n",
			}
		}
		entities = []*Queue{q}
	default:
		return failure(1, fmt.Sprintf("ipptool: Unsupported operation %q", operation))
	}

	if len(entities) == 0 {
		if compact {
			return process.Result{ExitCode: 1}
		}
		return process.Result{ExitCode: 1, Stderr: "successful-ok\n"}
	}

	if compact {
		var b strings.Builder
		b.WriteString(strings.Join(display, ",") + "\n")
		for _, q := range entities {
			attrs := q.attributes()
			fields := make([]string, len(display))
			for i, name := range display {
				for _, a := range attrs {
					if a.name == name {
						fields[i] = csvField(a.values)
					}
				}
			}
			b.WriteString(strings.Join(fields, ",") + "\n")
		}
		return process.Result{Stdout: b.String()}
	}

	var b strings.Builder
	b.WriteString("\"/dev/stdin\":\n")
	fmt.Fprintf(&b, "    %s [PASS]\n", operation)
	b.WriteString("        status-code = successful-ok (successful-ok)\n")
	b.WriteString("        attributes-charset (charset) = utf-8\n")
	b.WriteString("        attributes-natural-language (naturalLanguage) = en\n")
	for _, q := range entities {
		b.WriteString("\n")
		for _, a := range q.attributes() {
			fmt.Fprintf(&b, "        %s (%s) = %s\n", a.name, a.typ, verboseValue(a.values))
		}
	}
	return process.Result{Stdout: b.String()}
}
