package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/retention/config"
	"github.com/sarchlab/retention/datarecording"
)

var resultsCmd = &cobra.Command{
	Use:   "results [SQLite file]",
	Short: "Query recorded sweep results.",
	Long: "`results [SQLite file]` lists the points a run recorded, " +
		"optionally only the failed ones. With --postgres-url the points " +
		"are read from Postgres instead, and with --clickhouse-dsn from " +
		"ClickHouse.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := openReader(cmd, args)
		if err != nil {
			return err
		}
		defer reader.Close()

		q := resultQuery{}
		q.runID, _ = cmd.Flags().GetString("run")
		q.failedOnly, _ = cmd.Flags().GetBool("failed")
		q.limit, _ = cmd.Flags().GetInt("limit")

		return listResults(cmd.Context(), reader, q, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)

	resultsCmd.Flags().String("run", "", "Only show this run")
	resultsCmd.Flags().Bool("failed", false, "Only show failed points")
	resultsCmd.Flags().Int("limit", 100, "Maximum number of points, 0 for all")
	resultsCmd.Flags().String("postgres-url", "", "Read from Postgres")
	resultsCmd.Flags().String("clickhouse-dsn", "", "Read from ClickHouse")
}

func openReader(
	cmd *cobra.Command,
	args []string,
) (datarecording.DataReader, error) {
	url, _ := cmd.Flags().GetString("postgres-url")
	dsn, _ := cmd.Flags().GetString("clickhouse-dsn")

	sources := len(args)
	for _, s := range []string{url, dsn} {
		if s != "" {
			sources++
		}
	}

	switch {
	case sources > 1:
		return nil, errors.New(
			"give either a SQLite file, a Postgres URL or a ClickHouse DSN")
	case dsn != "":
		db, err := datarecording.OpenClickHouse(cmd.Context(),
			datarecording.ClickHouseConfig{
				DSN:         dsn,
				PingTimeout: config.Default().DBPingTimeout,
			})
		if err != nil {
			return nil, err
		}

		return datarecording.NewClickHouseReader(db), nil
	case url != "":
		db, err := datarecording.OpenPostgres(cmd.Context(),
			datarecording.PostgresConfig{
				URL:          url,
				PingTimeout:  config.Default().DBPingTimeout,
				MaxOpenConns: 1,
			})
		if err != nil {
			return nil, err
		}

		return datarecording.NewPostgresReader(db), nil
	case len(args) == 1:
		return datarecording.NewReader(args[0]), nil
	default:
		return nil, errors.New("no SQLite file given")
	}
}

type resultQuery struct {
	runID      string
	failedOnly bool
	limit      int
}

func (q resultQuery) params() datarecording.QueryParams {
	p := datarecording.QueryParams{
		Limit:   q.limit,
		OrderBy: "Sweep, Point",
	}

	where := ""

	if q.runID != "" {
		where = "RunID = ?"
		p.Args = append(p.Args, q.runID)
	}

	if q.failedOnly {
		if where != "" {
			where += " AND "
		}

		where += "(BitErrors > 0 OR TimedOut)"
	}

	p.Where = where

	return p
}

func listResults(
	ctx context.Context,
	reader datarecording.DataReader,
	q resultQuery,
	w io.Writer,
) error {
	reader.MapTable(datarecording.ResultTable, datarecording.ResultEntry{})

	rows, total, err := reader.Query(ctx,
		datarecording.ResultTable, q.params())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSWEEP\tPOINT\tDECAY S\tBANK\tROW\tCOL\tREPEAT\tERRORS\tTIMED OUT")

	for _, row := range rows {
		e := row.(*datarecording.ResultEntry)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.6g\t%d\t%d\t%d\t%d\t%d\t%t\n",
			e.RunID, e.Sweep, e.Point, e.DecaySeconds,
			e.BankAddr, e.RowAddr, e.ColAddr,
			e.RepeatIndex, e.BitErrors, e.TimedOut)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%d of %d points\n", len(rows), total)

	return err
}
