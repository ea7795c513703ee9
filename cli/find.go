package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/montrey/ftpseek/config"
	"github.com/montrey/ftpseek/logger"
	"github.com/montrey/ftpseek/remote"
	"github.com/montrey/ftpseek/search"
	"github.com/montrey/ftpseek/store"
	"github.com/montrey/ftpseek/ui"
)

type findOptions struct {
	host       string
	port       int
	user       string
	password   string
	tls        bool
	insecure   bool
	start      string
	ignore     []string
	ignoreFile string
	maxDepth   int
	workers    int
	rate       float64
	timeout    time.Duration
	hidden     bool
	profile    string
	local      string
	tui        bool
	noHistory  bool
}

func newFindCommand(a *app) *cobra.Command {
	opts := &findOptions{}
	cmd := &cobra.Command{
		Use:   "find <filename>",
		Short: "Find the directory holding a file",
		Long: `Search the server for a file with exactly this name.

The start directory is listed first, then each of its subdirectories,
then one more level at a time until the file turns up or --max-depth
levels have been walked. The shallowest match wins.

Exit status is 0 when found, 1 when not found and 2 on errors.`,
		Example: `  ftpseek find --host ftp.example.org README
  ftpseek find --profile mirror --ignore node_modules --ignore '\.git$' target.cfg
  ftpseek find --local ./testdata --max-depth 2 notes.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			return runFind(cmd, a, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.host, "host", "", "FTP server")
	flags.IntVar(&opts.port, "port", remote.DefaultPort, "FTP control port")
	flags.StringVarP(&opts.user, "user", "u", "", "login user")
	flags.StringVarP(&opts.password, "password", "p", "", "login password (prefer "+config.EnvPassword+")")
	flags.BoolVar(&opts.tls, "tls", false, "use explicit FTPS (AUTH TLS)")
	flags.BoolVar(&opts.insecure, "insecure", false, "skip TLS certificate verification")
	flags.StringVarP(&opts.start, "start", "s", "", "start directory (default: login directory)")
	flags.StringArrayVarP(&opts.ignore, "ignore", "i", nil, "regular expression for directories to skip (repeatable)")
	flags.StringVar(&opts.ignoreFile, "ignore-file", "", "gitignore-style file of directories to skip")
	flags.IntVarP(&opts.maxDepth, "max-depth", "d", search.DefaultMaxDepth, "deepest level listed: a file at most N directories below the start can be found")
	flags.IntVarP(&opts.workers, "workers", "w", 1, "parallel FTP sessions")
	flags.Float64Var(&opts.rate, "rate", 0, "max directory listings per second (0 = unlimited)")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "connection timeout")
	flags.BoolVar(&opts.hidden, "hidden", false, "also search hidden directories")
	flags.StringVar(&opts.profile, "profile", "", "saved connection profile")
	flags.StringVar(&opts.local, "local", "", "search a local directory tree instead of a server")
	flags.BoolVar(&opts.tui, "tui", false, "show live progress when attached to a terminal")
	flags.BoolVar(&opts.noHistory, "no-history", false, "don't record this search")

	return cmd
}

func runFind(cmd *cobra.Command, a *app, opts *findOptions, filename string) error {
	log := logger.Named("cli")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db := a.historyDB()

	cfg, err := resolveConfig(a.cfg, db, opts.profile)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	opts.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("invalid configuration: %w", err)}
	}

	req, err := buildRequest(&cfg, filename, opts.hidden)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	target := cfg.Host
	var workers []remote.Lister
	switch {
	case opts.local != "":
		target = opts.local
		l, err := remote.NewLocal(opts.local)
		if err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
		workers = []remote.Lister{l}
	case cfg.Workers > 1:
		creds := cfg.Credentials()
		creds.ListHidden = opts.hidden
		pool, err := remote.DialPool(ctx, creds, cfg.Workers)
		if err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
		defer closeLogged(log, pool)
		workers = pool.Listers()
	default:
		creds := cfg.Credentials()
		creds.ListHidden = opts.hidden
		session, err := remote.Dial(ctx, creds)
		if err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
		defer closeLogged(log, session)
		workers = []remote.Lister{session}
	}

	limiter := remote.NewLimiter(cfg.Rate)
	for i := range workers {
		workers[i] = remote.Throttle(workers[i], limiter)
	}
	primary := workers[0]

	log.WithField("exclude", req.Exclude.String()).Infof("Searching %s for %s (max depth %d, %d session(s))", target, filename, req.MaxDepth, len(workers))

	run := func(ctx context.Context, observe search.Observer) (search.Result, error) {
		engine := search.New(primary, search.WithPool(workers...), search.WithObserver(observe))
		return engine.Search(ctx, req)
	}

	var res search.Result
	if opts.tui && isTerminal(cmd.OutOrStdout()) {
		if cfg.LogFile == "" {
			// Log lines would tear the live view.
			_ = logger.Configure(cfg.LogLevel, io.Discard)
		}
		res, err = ui.Run(ctx, target, filename, run)
	} else {
		res, err = run(ctx, nil)
	}
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	if db != nil && !opts.noHistory {
		recordSearch(db, target, filename, res)
	}

	printResult(cmd.OutOrStdout(), filename, res)
	if res.Outcome != search.Found {
		return &ExitError{Code: ExitNotFound}
	}
	return nil
}

// apply overrides cfg with the flags given on the command line.
func (o *findOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = o.host
	}
	if flags.Changed("port") {
		cfg.Port = o.port
	}
	if flags.Changed("user") {
		cfg.User = o.user
	}
	if flags.Changed("password") {
		cfg.Password = o.password
	}
	if flags.Changed("tls") {
		cfg.TLS = o.tls
	}
	if flags.Changed("insecure") {
		cfg.InsecureSkipVerify = o.insecure
	}
	if flags.Changed("start") {
		cfg.Start = o.start
	}
	if flags.Changed("ignore") {
		cfg.IgnoredDirs = append(cfg.IgnoredDirs, o.ignore...)
	}
	if flags.Changed("ignore-file") {
		cfg.IgnoreFile = o.ignoreFile
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = o.maxDepth
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("rate") {
		cfg.Rate = o.rate
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
}

// historyDB opens the store. History is best effort: without a database the
// search still runs, unless a profile has to be read from it.
func (a *app) historyDB() *sql.DB {
	db, err := a.openStore()
	if err != nil {
		logger.Named("cli").WithError(err).Warn("History database unavailable")
		return nil
	}
	return db
}

// resolveConfig layers a profile over base. Precedence, lowest first: config
// file, default profile, FTPSEEK_* environment, --profile, then the other
// flags (applied by the caller).
func resolveConfig(base *config.Config, db *sql.DB, profile string) (config.Config, error) {
	cfg := *base
	if err := applyProfile(&cfg, db, profile); err != nil {
		return cfg, err
	}
	if profile == "" {
		cfg.ApplyEnv()
	}
	return cfg, nil
}

// applyProfile copies a saved profile into cfg. An empty name falls back to
// the default profile, if one is set.
func applyProfile(cfg *config.Config, db *sql.DB, name string) error {
	if db == nil {
		if name != "" {
			return fmt.Errorf("profile %q: history database unavailable", name)
		}
		return nil
	}
	if name == "" {
		def, err := store.GetSetting(db, store.SettingDefaultProfile)
		if err != nil || def == "" {
			return err
		}
		name = def
	}
	p, err := store.GetProfile(db, name)
	if err != nil {
		return err
	}
	cfg.Host = p.Host
	if p.Port != 0 {
		cfg.Port = p.Port
	}
	if p.User != "" {
		cfg.User = p.User
	}
	cfg.TLS = p.TLS
	return nil
}

func buildRequest(cfg *config.Config, filename string, hidden bool) (search.Request, error) {
	exclude, err := search.NewMatcher(cfg.IgnoredDirs...)
	if err != nil {
		return search.Request{}, err
	}
	if cfg.IgnoreFile != "" {
		if exclude, err = exclude.WithIgnoreFile(cfg.IgnoreFile); err != nil {
			return search.Request{}, err
		}
	}
	req := search.Request{
		Filename:       filename,
		StartDirectory: cfg.Start,
		Exclude:        exclude,
		MaxDepth:       cfg.MaxDepth,
		IncludeHidden:  hidden,
	}
	// Fail before any connection is made.
	if err := req.Validate(); err != nil {
		return search.Request{}, err
	}
	return req, nil
}

func recordSearch(db *sql.DB, host, filename string, res search.Result) {
	log := logger.Named("cli")
	_, err := store.RecordSearch(db, store.SearchRecord{
		Host:     host,
		Filename: filename,
		Outcome:  res.Outcome.String(),
		Path:     res.Path,
		Listings: res.Listings,
	})
	if err != nil {
		log.WithError(err).Warn("Could not record search")
		return
	}
	if res.Outcome == search.Found {
		if err := store.UpdateFrecency(db, host, filename, res.Path); err != nil {
			log.WithError(err).Warn("Could not record location")
		}
	}
}

func closeLogged(log *logger.LogEntry, c io.Closer) {
	if err := c.Close(); err != nil {
		log.WithError(err).Debug("Closing session")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
