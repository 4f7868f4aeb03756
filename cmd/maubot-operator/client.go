package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/canonical/maubot-operator/pkg/client"
	"github.com/canonical/maubot-operator/pkg/events"
	"github.com/canonical/maubot-operator/pkg/types"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch KIND",
	Short: "Deliver a lifecycle event to the operator",
	Long: `Deliver one lifecycle event to a running operator.

The snapshot (static config plus relation databags) is read from the
file given with --snapshot, or from stdin when the flag is "-".

Examples:
  # Dispatch a config-changed event with a snapshot file
  maubot-operator dispatch config-changed --snapshot snapshot.json

  # Pipe the snapshot through stdin
  cat snapshot.json | maubot-operator dispatch relation-changed --relation database`,
	Args: cobra.ExactArgs(1),
	RunE: runDispatch,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the unit status the operator last reported",
	RunE:  runStatus,
}

func init() {
	dispatchCmd.Flags().StringP("snapshot", "f", "-", "Snapshot JSON file (\"-\" for stdin)")
	dispatchCmd.Flags().String("relation", "", "Relation kind for relation-* events")
	dispatchCmd.Flags().String("operator", DefaultListenAddr, "Operator API address")

	statusCmd.Flags().String("operator", DefaultListenAddr, "Operator API address")

	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(statusCmd)
}

func runDispatch(cmd *cobra.Command, args []string) error {
	kind := events.Kind(args[0])
	if !validKind(kind) {
		return fmt.Errorf("unknown event kind %q (valid: %v)", args[0], events.Kinds())
	}

	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	relationKind, _ := cmd.Flags().GetString("relation")
	operatorAddr, _ := cmd.Flags().GetString("operator")

	snapshot, err := readSnapshot(snapshotPath)
	if err != nil {
		return err
	}

	c := client.New(operatorAddr)
	status, err := c.DispatchEvent(events.Event{
		Kind:     kind,
		Relation: types.RelationKind(relationKind),
		Snapshot: snapshot,
	})
	if err != nil {
		return err
	}

	fmt.Println("✓ Event dispatched")
	fmt.Printf("  Unit status: %s\n", status)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	operatorAddr, _ := cmd.Flags().GetString("operator")

	status, err := client.New(operatorAddr).Status()
	if err != nil {
		return err
	}

	fmt.Println(status)
	return nil
}

func validKind(kind events.Kind) bool {
	for _, k := range events.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// readSnapshot loads the snapshot JSON from a file, or stdin for "-"
func readSnapshot(path string) (types.Snapshot, error) {
	var data []byte
	var err error

	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to read snapshot: %v", err)
	}

	var snapshot types.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to parse snapshot: %v", err)
	}

	return snapshot, nil
}
