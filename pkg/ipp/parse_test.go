package ipp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequest_Render(t *testing.T) {
	body := NewRequest(OpGetPrinterAttributes).
		WithPrinterURI().
		ExpectStatus(StatusOK).
		Show("printer-state").
		Render()

	assert.Equal(t, "{\n"+
		"\tOPERATION Get-Printer-Attributes\n"+
		"\tGROUP operation-attributes-tag\n"+
		"\tATTR charset attributes-charset utf-8\n"+
		"\tATTR language attributes-natural-language en\n"+
		"\tATTR uri printer-uri $uri\n"+
		"\tSTATUS successful-ok\n"+
		"\tDISPLAY printer-state\n"+
		"}\n", body)

	assert.Equal(t, []string{"printer-state"}, displayDirectives(body))
}

func TestParseCompact(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   []string
	}{
		{"empty", "", nil},
		{"header only", "printer-name\n", nil},
		{"rows", "printer-name\nOffice\nWarehouse\n", []string{"Office", "Warehouse"}},
		{"blank rows skipped", "printer-name\n\nOffice\n\n", []string{"Office"}},
		{"crlf", "printer-name\r\nOffice\r\n", []string{"Office"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCompact(tt.stdout))
		})
	}
}

func TestParseVerbose_SingleAttribute(t *testing.T) {
	stdout := `"/dev/stdin":
    Get-Printer-Attributes [PASS]
        status-code = successful-ok (successful-ok)
        printer-name (nameWithoutLanguage) = Office
        printer-is-shared (boolean) = false
`
	assert.Equal(t, []string{"false"}, parseVerbose(stdout, []string{"printer-is-shared"}))
}

func TestParseVerbose_EmptyValue(t *testing.T) {
	stdout := "        auth-info-required (keyword) = \n"
	assert.Equal(t, []string{""}, parseVerbose(stdout, []string{"auth-info-required"}))
}

func TestParseVerbose_DoesNotMatchPrefix(t *testing.T) {
	stdout := "        printer-state-reasons (1setOf keyword) = paused\n"
	assert.Empty(t, parseVerbose(stdout, []string{"printer-state"}))
}

func TestParseVerbose_MultipleAttributes(t *testing.T) {
	stdout := `
        printer-name (nameWithoutLanguage) = Downstairs
        member-names (1setOf nameWithoutLanguage) = Office,Warehouse
        printer-name (nameWithoutLanguage) = Empty
        printer-name (nameWithoutLanguage) = Upstairs
        member-names (1setOf nameWithoutLanguage) = Lab
`
	rows := parseVerbose(stdout, []string{"printer-name", "member-names"})
	assert.Equal(t, []string{
		`Downstairs,"Office,Warehouse"`,
		"Empty,",
		"Upstairs,Lab",
	}, rows)
}

func TestParseVerbose_Escapes(t *testing.T) {
	stdout := `        printer-info (textWithoutLanguage) = Room \"A\"
        printer-location (textWithoutLanguage) = C:\\spool
`
	assert.Equal(t, []string{`"Room \"A\""`}, parseVerbose(stdout, []string{"printer-info"}))
	assert.Equal(t, []string{`"C:\\spool"`}, parseVerbose(stdout, []string{"printer-location"}))
}

func TestQuoteField_RoundTrips(t *testing.T) {
	for _, v := range []string{"plain", "a,b", `Room "A"`, `back\slash`, `"`, ""} {
		assert.Equal(t, v, Unquote(quoteField(v)), v)
	}
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "a,b", Unquote(`"a,b"`))
	assert.Equal(t, `say "hi"`, Unquote(`"say \"hi\""`))
	assert.Equal(t, `C:\spool`, Unquote(`"C:\\spool"`))
	assert.Equal(t, `Room "A", north`, Unquote(`"Room \"A\", north"`))
	assert.Equal(t, "plain", Unquote("plain"))
	assert.Equal(t, `"`, Unquote(`"`))
}

func TestSplitRow(t *testing.T) {
	name, rest := SplitRow(`Floor,"A,B"`)
	assert.Equal(t, "Floor", name)
	assert.Equal(t, `"A,B"`, rest)

	name, rest = SplitRow("Lonely")
	assert.Equal(t, "Lonely", name)
	assert.Equal(t, "", rest)
}
