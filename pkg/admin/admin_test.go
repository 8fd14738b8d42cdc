package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/cuemby/printq/pkg/metrics"
	"github.com/cuemby/printq/pkg/types"
	"github.com/cuemby/printq/test/framework"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmin_Invocations(t *testing.T) {
	cups := framework.NewFakeCUPS()
	cups.Models["drv:///sample.drv/generic.ppd"] = framework.Driver{MakeAndModel: "Generic PostScript Printer"}
	a := New(cups, Tools{})
	ctx := context.Background()

	require.NoError(t, a.CreateMinimal(ctx, "Office"))
	require.NoError(t, a.SetModel(ctx, "Office", "drv:///sample.drv/generic.ppd"))
	require.NoError(t, a.SetDescription(ctx, "Office", "Front desk"))
	require.NoError(t, a.SetShared(ctx, "Office", true))
	require.NoError(t, a.SetACL(ctx, "Office", types.NewAccessControl(types.PolicyDeny, "sshd", "@guests")))
	require.NoError(t, a.Accept(ctx, "Office"))
	require.NoError(t, a.Enable(ctx, "Office"))
	require.NoError(t, a.Hold(ctx, "Office"))
	require.NoError(t, a.AddMember(ctx, "Office", "Floor"))

	want := []string{
		"lpadmin -E -p Office -v file:///dev/null",
		"lpadmin -E -p Office -m drv:///sample.drv/generic.ppd",
		"lpadmin -E -p Office -D 'Front desk'",
		"lpadmin -E -p Office -o printer-is-shared=true",
		"lpadmin -E -p Office -u deny:@guests,sshd",
		"cupsaccept -E Office",
		"cupsenable -E Office",
		"cupsdisable -E --hold Office",
		"lpadmin -E -p Office -c Floor",
	}
	var got []string
	for _, c := range cups.AdminCalls() {
		got = append(got, c.String())
	}
	assert.Equal(t, want, got)

	q, ok := cups.Queue("Office")
	require.True(t, ok)
	assert.Equal(t, "Generic PostScript Printer", q.MakeAndModel)
	assert.Equal(t, "Front desk", q.Info)
	assert.True(t, q.Shared)
	assert.True(t, q.Accepting)
	assert.True(t, q.Enabled)
	assert.True(t, q.Held)
	assert.Equal(t, []string{"@guests", "sshd"}, q.Denied)

	floor, ok := cups.Queue("Floor")
	require.True(t, ok)
	assert.Equal(t, []string{"Office"}, floor.Members)
}

func commandSamples(t *testing.T, tool string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, metrics.CommandDuration.WithLabelValues(tool).(prometheus.Histogram).Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestAdmin_RecordsCommandLatency(t *testing.T) {
	cups := framework.NewFakeCUPS()
	cups.AddPrinter(framework.Queue{Name: "Office"})
	a := New(cups, Tools{CupsAccept: "/usr/sbin/cupsaccept"})

	before := commandSamples(t, "cupsaccept")
	require.NoError(t, a.Accept(context.Background(), "Office"))
	require.Error(t, a.Accept(context.Background(), "Ghost"))

	assert.Equal(t, before+2, commandSamples(t, "cupsaccept"))
}

func TestAdmin_ConvergenceError(t *testing.T) {
	cups := framework.NewFakeCUPS()
	a := New(cups, Tools{})

	err := a.Delete(context.Background(), "Ghost")
	require.Error(t, err)

	var ce *ConvergenceError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, types.QueueName("Ghost"), ce.Queue)
	assert.Equal(t, "lpadmin -E -x Ghost", ce.Command)
	assert.Equal(t, 1, ce.ExitCode)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestAdmin_ConfiguredToolPaths(t *testing.T) {
	cups := framework.NewFakeCUPS()
	cups.AddPrinter(framework.Queue{Name: "Office"})
	a := New(cups, Tools{CupsReject: "/usr/sbin/cupsreject"})

	require.NoError(t, a.Reject(context.Background(), "Office"))

	calls := cups.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "cupsreject", calls[0].Name)
}

func TestAdmin_SpawnError(t *testing.T) {
	cups := framework.NewFakeCUPS()
	a := New(cups, Tools{LPAdmin: "/opt/missing/lpadmin-ng"})

	err := a.Delete(context.Background(), "Office")
	require.Error(t, err)

	var ce *ConvergenceError
	assert.False(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), "failed to start")
}

func TestAdmin_ListOptions(t *testing.T) {
	cups := framework.NewFakeCUPS()
	cups.AddPrinter(framework.Queue{
		Name: "Office",
		Vendor: []framework.VendorOption{
			{Key: "PageSize", Label: "Media Size", Choices: []string{"Letter", "Legal", "A4"}, Default: "A4"},
			{Key: "Duplex", Label: "2-Sided Printing", Choices: []string{"None", "DuplexNoTumble"}, Default: "None"},
		},
	})
	a := New(cups, Tools{})

	opts, err := a.ListOptions(context.Background(), "Office")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"PageSize": "A4", "Duplex": "None"}, opts)

	assert.Empty(t, cups.AdminCalls())
}

func TestParseOptionListing(t *testing.T) {
	stdout := "PageSize/Media Size: *Letter Legal A4\n" +
		"ColorModel/Color Mode: Gray *RGB\n" +
		"Resolution/Resolution: 300dpi 600dpi\n" +
		"\n" +
		"garbage line\n"

	assert.Equal(t, map[string]string{
		"PageSize":   "Letter",
		"ColorModel": "RGB",
	}, ParseOptionListing(stdout))
}
