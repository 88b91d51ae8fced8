package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/retention/mem/dram/protocol"
)

var timingCmd = &cobra.Command{
	Use:   "timing",
	Short: "Print a timing preset.",
	Long: "`timing --preset [name]` prints every wait of a timing preset, " +
		"in cycles and in nanoseconds of the controller clock.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		preset, _ := cmd.Flags().GetString("preset")
		hz, _ := cmd.Flags().GetUint64("controller-hz")
		asYAML, _ := cmd.Flags().GetBool("yaml")

		tb, err := protocol.LookupPreset(protocol.Preset(preset))
		if err != nil {
			return err
		}

		if asYAML {
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(tb.Build())
		}

		return printTiming(cmd.OutOrStdout(), tb.Build(), hz)
	},
}

func init() {
	rootCmd.AddCommand(timingCmd)

	timingCmd.Flags().String("preset", string(protocol.PresetDDR3_1600),
		"Timing preset")
	timingCmd.Flags().Uint64("controller-hz", 800_000_000,
		"Controller clock the waits are counted in")
	timingCmd.Flags().Bool("yaml", false, "Print the table as YAML")
}

func printTiming(w io.Writer, t protocol.TimingTable, controllerHz uint64) error {
	if controllerHz == 0 {
		return fmt.Errorf("controller clock must be positive")
	}

	waits := []struct {
		name   string
		cycles int
	}{
		{"tResetHold", t.TResetHold},
		{"tCKEStabilize", t.TCKEStabilize},
		{"tXPR", t.TXPR},
		{"tMRD", t.TMRD},
		{"tMOD", t.TMOD},
		{"tZQInit", t.TZQInit},
		{"tRCD", t.TRCD},
		{"tWR", t.TWR},
		{"tRP", t.TRP},
		{"tRAS", t.TRAS},
		{"tCL", t.TCL},
		{"read grace", t.TReadGrace},
		{"tREFI", t.TREFI},
		{"tRFC", t.TRFC},
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WAIT\tCYCLES\tNS")

	for _, wait := range waits {
		ns := float64(wait.cycles) * 1e9 / float64(controllerHz)
		fmt.Fprintf(tw, "%s\t%d\t%.2f\n", wait.name, wait.cycles, ns)
	}

	fmt.Fprintf(tw, "burst length\t%d\t\n", t.BurstLength)

	for _, mr := range t.ModeRegisters {
		fmt.Fprintf(tw, "MR%d\t0x%04X\t\n", mr.Register, mr.Value)
	}

	return tw.Flush()
}
