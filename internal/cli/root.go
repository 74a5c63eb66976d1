package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/sfdb"
	"github.com/hupe1980/sfdb/internal/config"
	"github.com/spf13/cobra"
)

// Defaults match the on-device example database.
const (
	defaultMaxRecordNum = 10000
	defaultRecordLen    = 32
)

// globalOptions holds the persistent flags shared by all commands.
type globalOptions struct {
	configPath   string
	dbName       string
	path         string
	maxRecordNum uint32
	recordLen    uint32
	sync         bool
	overwrite    bool
	logLevel     string
	logFormat    string
}

// NewRoot constructs the root Cobra command and registers all subcommands.
func NewRoot() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:          "sfdb",
		Short:        "Fixed-record circular log database",
		Long:         "sfdb manages single-file ring buffers of fixed-length records.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&g.dbName, "db", "", "Database name from the configuration file")
	pf.StringVarP(&g.path, "path", "p", "", "Database file path")
	pf.Uint32Var(&g.maxRecordNum, "max-records", defaultMaxRecordNum, "Ring capacity in records")
	pf.Uint32Var(&g.recordLen, "record-len", defaultRecordLen, "Record length in bytes (max 512)")
	pf.BoolVar(&g.sync, "sync", false, "Flush after every write")
	pf.BoolVar(&g.overwrite, "overwrite", false, "Recreate the file on capacity/record length mismatch")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&g.logFormat, "log-format", "", "Log format: text|json")

	root.AddCommand(
		newAppendCommand(g),
		newReadCommand(g),
		newInfoCommand(g),
		newResetCommand(g),
		newDeleteCommand(g),
		newDumpCommand(g),
		newBenchCommand(g),
		newBackupCommand(g),
		newRestoreCommand(g),
		newBackupsCommand(g),
	)
	return root
}

// env is the resolved configuration of one command invocation.
type env struct {
	cfg    config.Config
	db     sfdb.Config
	logger *sfdb.Logger
}

var errNoDatabase = errors.New("no database selected: use --path or --db")

func (g *globalOptions) resolve(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	var entry config.DatabaseConfig
	switch {
	case g.dbName != "":
		if entry, err = cfg.Database(g.dbName); err != nil {
			return nil, err
		}
	case len(cfg.Databases) == 1:
		entry = cfg.Databases[cfg.DatabaseNames()[0]]
	}

	flags := cmd.Flags()
	if flags.Changed("path") || entry.Path == "" {
		entry.Path = g.path
	}
	if flags.Changed("max-records") || entry.MaxRecordNum == 0 {
		entry.MaxRecordNum = g.maxRecordNum
	}
	if flags.Changed("record-len") || entry.RecordLen == 0 {
		entry.RecordLen = g.recordLen
	}
	if flags.Changed("sync") {
		entry.Sync = g.sync
	}
	if flags.Changed("overwrite") {
		entry.Overwrite = g.overwrite
	}
	if entry.Path == "" {
		return nil, errNoDatabase
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if g.logLevel != "" {
		level = g.logLevel
	}
	if g.logFormat != "" {
		format = g.logFormat
	}
	logger, err := newLogger(level, format)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg: cfg,
		db: sfdb.Config{
			Path:         entry.Path,
			MaxRecordNum: entry.MaxRecordNum,
			RecordLen:    entry.RecordLen,
			Sync:         entry.Sync,
			Overwrite:    entry.Overwrite,
		},
		logger: logger,
	}, nil
}

func newLogger(level, format string) (*sfdb.Logger, error) {
	if level == "" {
		return sfdb.NoopLogger(), nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q; use debug|info|warn|error", level)
	}
	switch strings.ToLower(format) {
	case "", "text":
		return sfdb.NewTextLogger(lvl), nil
	case "json":
		return sfdb.NewJSONLogger(lvl), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q; use text|json", format)
	}
}

// open opens the resolved database.
func (e *env) open(extra ...sfdb.Option) (*sfdb.DB, error) {
	opts := append([]sfdb.Option{sfdb.WithLogger(e.logger)}, extra...)
	return sfdb.OpenConfig(e.db, opts...)
}

// withDB resolves and opens the database, runs fn and closes it again.
func (g *globalOptions) withDB(cmd *cobra.Command, fn func(*env, *sfdb.DB) error) error {
	e, err := g.resolve(cmd)
	if err != nil {
		return err
	}
	db, err := e.open()
	if err != nil {
		return err
	}
	if err := fn(e, db); err != nil {
		_ = db.Close()
		return err
	}
	return db.Close()
}
