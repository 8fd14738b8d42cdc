/*
Package discovery enumerates the printers and classes a CUPS server knows.

Two canned requests are sent to the server root: CUPS-Get-Classes with the
printer-name and member-names attributes, and CUPS-Get-Printers with
printer-name, which lists printers and classes together. Printer names are the
set difference of the two.

A Discovery runs in one of two modes. Strict propagates every query error and
is the only mode the reconciler uses, so that it never acts on a partial
inventory. Lenient degrades failures to empty results with a warning and
serves fact reporting and the inventory gauges.

	d := discovery.NewStrict(ippClient)
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return err
	}
	switch snap.Kind("Office") {
	case types.KindClass:
		...
	}
*/
package discovery
