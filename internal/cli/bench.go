package cli

import (
	"fmt"
	"os"

	"github.com/hupe1980/sfdb/internal/loadgen"
	"github.com/spf13/cobra"
)

func newBenchCommand(g *globalOptions) *cobra.Command {
	var (
		dir         string
		workers     int
		concurrency int
		appends     int
		ioLimit     int64
		verify      int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Append formatted test records to independent databases and report latency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.benchConfig(cmd)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return err
			}
			cfg.Dir = dir
			cfg.Workers = workers
			cfg.Concurrency = concurrency
			cfg.Appends = appends
			cfg.IOLimitBytesPerSec = ioLimit
			cfg.Verify = verify

			report, err := loadgen.Run(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			for _, wr := range report.Workers {
				fmt.Fprintf(out, "%s: appends=%d failures=%d verified=%d min=%s mean=%s p50=%s p99=%s max=%s\n",
					wr.Path, wr.Appends, wr.Failures, wr.Verified,
					wr.Latency.Min, wr.Latency.Mean, wr.Latency.P50, wr.Latency.P99, wr.Latency.Max)
			}
			fmt.Fprintf(out, "total: appends=%d failures=%d elapsed=%s\n", report.Appends, report.Failures, report.Elapsed)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&dir, "dir", "bench", "Directory for the benchmark databases")
	f.IntVar(&workers, "workers", 1, "Number of independent databases")
	f.IntVar(&concurrency, "concurrency", 0, "Workers running at once (default: all)")
	f.IntVar(&appends, "appends", loadgen.DefaultAppends, "Records appended per worker")
	f.Int64Var(&ioLimit, "io-limit", 0, "Write throughput limit in bytes/s (0: unlimited)")
	f.IntVar(&verify, "verify", loadgen.DefaultVerify, "Latest records verified per worker (-1: skip)")
	return cmd
}

// benchConfig derives the harness settings from the global flags. Unlike
// other commands bench needs no database path.
func (g *globalOptions) benchConfig(cmd *cobra.Command) (loadgen.Config, error) {
	logger, err := newLogger(g.logLevel, g.logFormat)
	if err != nil {
		return loadgen.Config{}, err
	}
	sync := true
	if cmd.Flags().Changed("sync") {
		sync = g.sync
	}
	return loadgen.Config{
		MaxRecordNum: g.maxRecordNum,
		RecordLen:    g.recordLen,
		Sync:         sync,
		Logger:       logger,
	}, nil
}
