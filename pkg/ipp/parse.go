package ipp

import (
	"regexp"
	"strings"
)

// parseCompact turns ipptool -c output into rows: the header line is
// dropped, blank lines are ignored
func parseCompact(stdout string) []string {
	lines := strings.Split(strings.ReplaceAll(stdout, "\r\n", "\n"), "\n")
	if len(lines) <= 1 {
		return nil
	}

	var rows []string
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	return rows
}

// verboseLine matches "attribute (type) = value" as printed by ipptool -v
func verboseLine(attr string) *regexp.Regexp {
	return regexp.MustCompile(`^\s*` + regexp.QuoteMeta(attr) + `\s+\([^)]*\)\s+=\s?(.*)$`)
}

// parseVerbose extracts the values of the displayed attributes from
// ipptool -v output. One row is produced per entity, starting a new row
// whenever the first displayed attribute reappears. Values lose the
// backslash escapes ipptool adds and are re-quoted the way compact mode
// prints them, so both modes yield identical rows.
func parseVerbose(stdout string, display []string) []string {
	matchers := make([]*regexp.Regexp, len(display))
	for i, attr := range display {
		matchers[i] = verboseLine(attr)
	}

	var rows [][]string
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimRight(line, "\r")
		for i, m := range matchers {
			match := m.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			if i == 0 || len(rows) == 0 {
				rows = append(rows, make([]string, len(display)))
			}
			rows[len(rows)-1][i] = unescape(match[1])
			break
		}
	}

	out := make([]string, 0, len(rows))
	for _, fields := range rows {
		quoted := make([]string, len(fields))
		for i, f := range fields {
			quoted[i] = quoteField(f)
		}
		out = append(out, strings.Join(quoted, ","))
	}
	return out
}

// quoteField quotes a field containing a comma, quote or backslash and
// escapes quotes and backslashes inside it, as ipptool's CSV writer does
func quoteField(f string) string {
	if !strings.ContainsAny(f, `,"\`) {
		return f
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range f {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// unescape drops the backslash in front of every escaped character
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// Unquote strips one pair of surrounding double quotes from a compact-mode
// field and removes the backslash escapes inside it
func Unquote(field string) string {
	if len(field) >= 2 && strings.HasPrefix(field, `"`) && strings.HasSuffix(field, `"`) {
		return unescape(field[1 : len(field)-1])
	}
	return field
}

// SplitRow splits a compact-mode row at its first comma. The second field
// keeps any quoting it had.
func SplitRow(row string) (string, string) {
	name, rest, _ := strings.Cut(row, ",")
	return name, rest
}
