package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cuemby/printq/pkg/discovery"
	"github.com/cuemby/printq/pkg/ipp"
	"github.com/cuemby/printq/pkg/process"
	"github.com/cuemby/printq/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Facts is the inventory printed by the facts command
type Facts struct {
	Classes      []types.QueueName                         `json:"printq_classes" yaml:"printq_classes"`
	ClassMembers map[types.QueueName]types.ClassMembership `json:"printq_classmembers" yaml:"printq_classmembers"`
	Printers     []types.QueueName                         `json:"printq_printers" yaml:"printq_printers"`
	Queues       []types.QueueName                         `json:"printq_queues" yaml:"printq_queues"`
}

// gatherFacts never fails: discovery runs lenient and an unreachable
// server yields empty lists. One snapshot serves every list.
func gatherFacts(ctx context.Context, d *discovery.Discovery) *Facts {
	f := &Facts{
		Classes:      []types.QueueName{},
		ClassMembers: map[types.QueueName]types.ClassMembership{},
		Printers:     []types.QueueName{},
		Queues:       []types.QueueName{},
	}
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return f
	}
	if names := snap.ClassNames(); len(names) > 0 {
		f.Classes = names
	}
	if len(snap.Classes) > 0 {
		f.ClassMembers = snap.Classes
	}
	if printers := snap.Printers(); len(printers) > 0 {
		f.Printers = printers
	}
	if len(snap.Queues) > 0 {
		f.Queues = snap.Queues
	}
	return f
}

func writeFacts(w io.Writer, facts *Facts, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(facts)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(facts)
	default:
		return fmt.Errorf("unsupported output format %q (want yaml or json)", format)
	}
}

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Print the queues and classes the server knows",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client := ipp.NewClient(process.NewExecRunner(), cfg.IPPOptions())
		facts := gatherFacts(cmd.Context(), discovery.NewLenient(client))
		return writeFacts(cmd.OutOrStdout(), facts, output)
	},
}

func init() {
	factsCmd.Flags().StringP("output", "o", "yaml", "Output format: yaml or json")
	rootCmd.AddCommand(factsCmd)
}
