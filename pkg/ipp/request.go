package ipp

import (
	"bufio"
	"fmt"
	"strings"
)

// Operation names used by printq
const (
	OpGetPrinterAttributes = "Get-Printer-Attributes"
	OpGetPrinters          = "CUPS-Get-Printers"
	OpGetClasses           = "CUPS-Get-Classes"
)

// StatusOK is the IPP status printq expects from every request. ipptool
// also prints it on stderr for an empty but successful verbose response.
const StatusOK = "successful-ok"

// Request is an ipptool test describing one IPP request
type Request struct {
	Operation  string
	PrinterURI bool
	Status     []string
	Display    []string
}

// NewRequest starts a request for the given operation
func NewRequest(operation string) *Request {
	return &Request{Operation: operation}
}

// WithPrinterURI adds the printer-uri operation attribute, bound to the URI
// ipptool is pointed at
func (r *Request) WithPrinterURI() *Request {
	r.PrinterURI = true
	return r
}

// ExpectStatus adds a STATUS assertion
func (r *Request) ExpectStatus(status string) *Request {
	r.Status = append(r.Status, status)
	return r
}

// Show adds DISPLAY directives for the given attributes
func (r *Request) Show(attributes ...string) *Request {
	r.Display = append(r.Display, attributes...)
	return r
}

// Render produces the ipptool test file
func (r *Request) Render() string {
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "\tOPERATION %s\n", r.Operation)
	b.WriteString("\tGROUP operation-attributes-tag\n")
	b.WriteString("\tATTR charset attributes-charset utf-8\n")
	b.WriteString("\tATTR language attributes-natural-language en\n")
	if r.PrinterURI {
		b.WriteString("\tATTR uri printer-uri $uri\n")
	}
	for _, status := range r.Status {
		fmt.Fprintf(&b, "\tSTATUS %s\n", status)
	}
	for _, attr := range r.Display {
		fmt.Fprintf(&b, "\tDISPLAY %s\n", attr)
	}
	b.WriteString("}\n")
	return b.String()
}

// displayDirectives extracts the attribute names of every DISPLAY line in
// an ipptool test body, in order
func displayDirectives(body string) []string {
	var attrs []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "DISPLAY" {
			attrs = append(attrs, fields[1])
		}
	}
	return attrs
}
