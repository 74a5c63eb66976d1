package cli

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/hupe1980/sfdb"
	"github.com/spf13/cobra"
)

// maxReadRecords bounds a single read command, like the on-device shell.
const maxReadRecords = 100

func newAppendCommand(g *globalOptions) *cobra.Command {
	var useHex bool

	cmd := &cobra.Command{
		Use:   "append <record>...",
		Short: "Append records (zero padded to the record length)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withDB(cmd, func(e *env, db *sfdb.DB) error {
				for _, arg := range args {
					rec, err := encodeRecord(arg, e.db.RecordLen, useHex)
					if err != nil {
						return err
					}
					if err := db.Append(rec); err != nil {
						return err
					}
				}
				info, err := db.Info()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "appended %d record(s), index %d count %d\n",
					len(args), info.RecordIndex, info.RecordCount)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&useHex, "hex", false, "Records are hex encoded")
	return cmd
}

func encodeRecord(arg string, recLen uint32, useHex bool) ([]byte, error) {
	data := []byte(arg)
	if useHex {
		var err error
		if data, err = hex.DecodeString(arg); err != nil {
			return nil, fmt.Errorf("invalid hex record %q: %w", arg, err)
		}
	}
	if len(data) > int(recLen) {
		return nil, fmt.Errorf("record %q is %d bytes, record length is %d", arg, len(data), recLen)
	}
	rec := make([]byte, recLen)
	copy(rec, data)
	return rec, nil
}

func newReadCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read [offset num order]",
		Short: "Read records; without arguments print the ring state",
		Long: "Read num records starting offset records back from the latest.\n" +
			"order is 0 (asc, oldest first) or 1 (desc, newest first).",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 3 {
				return fmt.Errorf("expected no arguments or [offset] [num] [order(0:asc 1:desc)]")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return g.withDB(cmd, func(_ *env, db *sfdb.DB) error {
					return printInfo(cmd, db)
				})
			}

			offset, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid offset %q", args[0])
			}
			num, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid num %q", args[1])
			}
			order, err := parseOrder(args[2])
			if err != nil {
				return err
			}
			num = min(num, maxReadRecords)

			return g.withDB(cmd, func(_ *env, db *sfdb.DB) error {
				records, err := db.ReadRecords(uint32(offset), uint32(num), order)
				if err != nil {
					return err
				}
				printRecords(cmd.OutOrStdout(), uint32(offset), records, order)
				return nil
			})
		},
	}
}

func parseOrder(s string) (sfdb.Order, error) {
	switch s {
	case "0", "asc":
		return sfdb.Ascending, nil
	case "1", "desc":
		return sfdb.Descending, nil
	default:
		return 0, fmt.Errorf("invalid order %q; use 0|asc or 1|desc", s)
	}
}

func newInfoCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the ring state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withDB(cmd, func(_ *env, db *sfdb.DB) error {
				return printInfo(cmd, db)
			})
		},
	}
}

func printInfo(cmd *cobra.Command, db *sfdb.DB) error {
	info, err := db.Info()
	if err != nil {
		return err
	}
	writeInfo(cmd.OutOrStdout(), db.Path(), info)
	return nil
}

func newResetCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget all records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withDB(cmd, func(_ *env, db *sfdb.DB) error {
				if err := db.Reset(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "reset", db.Path())
				return nil
			})
		},
	}
}

func newDeleteCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the database file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			if err := sfdb.Remove(e.db.Path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", e.db.Path)
			return nil
		},
	}
}

func newDumpCommand(g *globalOptions) *cobra.Command {
	var orderFlag string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every record of a closed database file without opening it for writing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			order, err := parseOrder(orderFlag)
			if err != nil {
				return err
			}

			v, err := sfdb.OpenView(e.db.Path)
			if err != nil {
				return err
			}
			defer v.Close()

			info := v.Info()
			records, err := v.Records(0, info.RecordCount, order)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writeInfo(out, e.db.Path, info)
			printRecords(out, 0, records, order)
			return nil
		},
	}
	cmd.Flags().StringVar(&orderFlag, "order", "asc", "Order: asc|desc")
	return cmd
}
