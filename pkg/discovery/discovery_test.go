package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/cuemby/printq/pkg/ipp"
	"github.com/cuemby/printq/pkg/types"
	"github.com/cuemby/printq/test/framework"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedQuerier answers by operation name
type cannedQuerier struct {
	rows map[string][]string
	err  error
}

func (c *cannedQuerier) Query(ctx context.Context, path string, req *ipp.Request) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.rows[req.Operation], nil
}

func floors() *cannedQuerier {
	return &cannedQuerier{rows: map[string][]string{
		ipp.OpGetClasses: {
			"CrawlSpace,",
			`GroundFloor,"Office,Warehouse"`,
			"UpperFloor,BackOffice",
		},
		ipp.OpGetPrinters: {
			"BackOffice", "CrawlSpace", "GroundFloor", "Office", "UpperFloor", "Warehouse",
		},
	}}
}

func TestClassMembers(t *testing.T) {
	d := NewStrict(floors())

	classes, err := d.ClassMembers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[types.QueueName]types.ClassMembership{
		"CrawlSpace":  {},
		"GroundFloor": {"Office", "Warehouse"},
		"UpperFloor":  {"BackOffice"},
	}, classes)
}

func TestPrinterNames(t *testing.T) {
	d := NewStrict(floors())

	printers, err := d.PrinterNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.QueueName{"BackOffice", "Office", "Warehouse"}, printers)

	classes, err := d.ClassNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.QueueName{"CrawlSpace", "GroundFloor", "UpperFloor"}, classes)
}

func TestPrinterNames_CaseInsensitive(t *testing.T) {
	q := &cannedQuerier{rows: map[string][]string{
		ipp.OpGetClasses:  {"lab,Office"},
		ipp.OpGetPrinters: {"Lab", "Office"},
	}}

	printers, err := NewStrict(q).PrinterNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.QueueName{"Office"}, printers)
}

func TestParseClassRow(t *testing.T) {
	tests := []struct {
		row     string
		name    types.QueueName
		members types.ClassMembership
	}{
		{"CrawlSpace,", "CrawlSpace", types.ClassMembership{}},
		{"Lonely", "Lonely", types.ClassMembership{}},
		{"UpperFloor,BackOffice", "UpperFloor", types.ClassMembership{"BackOffice"}},
		{`GroundFloor,"Office,Warehouse"`, "GroundFloor", types.ClassMembership{"Office", "Warehouse"}},
	}
	for _, tt := range tests {
		t.Run(tt.row, func(t *testing.T) {
			name, members := ParseClassRow(tt.row)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.members, members)
		})
	}
}

func TestStrictPropagatesErrors(t *testing.T) {
	boom := &ipp.QueryError{ExitCode: 1, Stderr: "client-error-forbidden"}
	d := NewStrict(&cannedQuerier{err: boom})

	_, err := d.ClassMembers(context.Background())
	var qe *ipp.QueryError
	require.True(t, errors.As(err, &qe))

	_, err = d.QueueNames(context.Background())
	require.True(t, errors.As(err, &qe))

	_, err = d.PrinterNames(context.Background())
	require.Error(t, err)

	_, err = d.Snapshot(context.Background())
	require.Error(t, err)
}

func TestLenientDegradesToEmpty(t *testing.T) {
	d := NewLenient(&cannedQuerier{err: errors.New("connection refused")})

	classes, err := d.ClassMembers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, classes)

	queues, err := d.QueueNames(context.Background())
	require.NoError(t, err)
	assert.Empty(t, queues)

	printers, err := d.PrinterNames(context.Background())
	require.NoError(t, err)
	assert.Empty(t, printers)

	p, c := d.Count(context.Background())
	assert.Zero(t, p)
	assert.Zero(t, c)
}

func TestSnapshot(t *testing.T) {
	snap, err := NewStrict(floors()).Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.KindClass, snap.Kind("groundfloor"))
	assert.Equal(t, types.KindPrinter, snap.Kind("OFFICE"))
	assert.Equal(t, types.KindAbsent, snap.Kind("Basement"))
	assert.Equal(t, types.ClassMembership{"Office", "Warehouse"}, snap.Members("GroundFloor"))
	assert.Nil(t, snap.Members("Office"))
	assert.Equal(t, []types.QueueName{"CrawlSpace", "GroundFloor", "UpperFloor"}, snap.ClassNames())
}

func TestAgainstFakeServer(t *testing.T) {
	cups := framework.NewFakeCUPS()
	cups.AddPrinter(framework.Queue{Name: "Office"})
	cups.AddPrinter(framework.Queue{Name: "Warehouse"})
	cups.AddClass("Floor", "Warehouse", "Office")

	for _, broken := range []bool{false, true} {
		cups.CompactBroken = broken
		d := NewStrict(ipp.NewClient(cups, ipp.Options{}))

		snap, err := d.Snapshot(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []types.QueueName{"Office", "Warehouse"}, snap.Printers())
		assert.Equal(t, types.ClassMembership{"Warehouse", "Office"}, snap.Members("Floor"))

		p, c := d.Count(context.Background())
		assert.Equal(t, 2, p)
		assert.Equal(t, 1, c)
	}
}

func TestEmptyServer(t *testing.T) {
	cups := framework.NewFakeCUPS()
	d := NewStrict(ipp.NewClient(cups, ipp.Options{}))

	snap, err := d.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Queues)
	assert.Empty(t, snap.Classes)
}
