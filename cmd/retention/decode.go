package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/retention/retention/report"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [record file]",
	Short: "Decode serial records.",
	Long: "`decode [record file]` prints the records of a sweep as a table. " +
		"Records are read from stdin when no file is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := io.Reader(os.Stdin)

		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			in = f
		}

		hz, _ := cmd.Flags().GetUint64("controller-hz")

		_, err := decodeRecords(in, cmd.OutOrStdout(), hz)

		return err
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().Uint64("controller-hz", 800_000_000,
		"Controller clock the decay cycles are counted in")
}

// decodeRecords prints one row per record and returns the number of
// records. Blank lines are skipped.
func decodeRecords(r io.Reader, w io.Writer, controllerHz uint64) (int, error) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DECAY\tSECONDS\tBANK\tROW\tCOL\tREPEAT\tERRORS\tPASSED\tREAD\tWRITTEN")

	scanner := bufio.NewScanner(r)
	lineNo := 0
	count := 0

	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := report.Parse(line)
		if err != nil {
			return count, fmt.Errorf("line %d: %w", lineNo, err)
		}

		writeRecordRow(tw, rec, controllerHz)

		count++
	}

	if err := scanner.Err(); err != nil {
		return count, err
	}

	return count, tw.Flush()
}

func writeRecordRow(w io.Writer, rec report.Record, controllerHz uint64) {
	loc := rec.Location()

	passed := rec.BitErrors == 0
	written := "-"

	if rec.Layout == report.LayoutVerbose {
		passed = rec.Passed
		written = fmt.Sprintf("%X", rec.Written[:])
	}

	seconds := 0.0
	if controllerHz > 0 {
		seconds = float64(rec.DecayCycles) / float64(controllerHz)
	}

	fmt.Fprintf(w, "%d\t%.6g\t%d\t%d\t%d\t%d\t%d\t%t\t%X\t%s\n",
		rec.DecayCycles, seconds,
		loc.Bank, loc.Row, loc.Column,
		rec.RepeatIndex, rec.BitErrors, passed,
		rec.Read[:], written)
}
