package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/spf13/cobra"
)

func main() {
	var addr string

	var rootCmd = &cobra.Command{Use: "ledger-query-tool"}
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "localhost:9000", "ClickHouse address")

	// Command to show the most recent ingested purchase events
	var recentCmd = &cobra.Command{
		Use:   "recent",
		Short: "Show recent purchase events",
		Run: func(cmd *cobra.Command, args []string) {
			conn := connect(addr)
			defer conn.Close()

			rows, err := conn.Query(context.Background(),
				"SELECT operation_type, customer_id, amount_charged, completed_at FROM purchase_events ORDER BY completed_at DESC LIMIT 20")
			if err != nil {
				log.Fatal(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tCUSTOMER\tAMOUNT\tCOMPLETED AT")
			for rows.Next() {
				var operation, customer string
				var amount float64
				var completedAt time.Time
				if err := rows.Scan(&operation, &customer, &amount, &completedAt); err != nil {
					log.Fatal(err)
				}
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", operation, customer, amount, completedAt.Format(time.RFC3339))
			}
			w.Flush()
		},
	}

	// Command to aggregate revenue per operation kind
	var revenueCmd = &cobra.Command{
		Use:   "revenue",
		Short: "Show revenue grouped by operation type",
		Run: func(cmd *cobra.Command, args []string) {
			conn := connect(addr)
			defer conn.Close()

			rows, err := conn.Query(context.Background(),
				"SELECT operation_type, count(), sum(amount_charged) FROM purchase_events GROUP BY operation_type ORDER BY operation_type")
			if err != nil {
				log.Fatal(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tCOUNT\tREVENUE")
			for rows.Next() {
				var operation string
				var count uint64
				var revenue float64
				if err := rows.Scan(&operation, &count, &revenue); err != nil {
					log.Fatal(err)
				}
				fmt.Fprintf(w, "%s\t%d\t%.2f\n", operation, count, revenue)
			}
			w.Flush()
		},
	}

	rootCmd.AddCommand(recentCmd, revenueCmd)
	rootCmd.Execute()
}

func connect(addr string) clickhouse.Conn {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
	})
	if err != nil {
		log.Fatal(err)
	}
	return conn
}
