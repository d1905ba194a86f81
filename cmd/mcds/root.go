package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/t-brown/mcds"
	"github.com/t-brown/mcds/carddav"
	"github.com/t-brown/mcds/config"
	"github.com/t-brown/mcds/search"
)

type app struct {
	configPath   string
	query        search.Field
	search       search.Field
	prompt       bool
	store        bool
	skipIdentity bool
	strict       bool
	limit        int
	verbose      bool

	logger *zap.Logger
}

// askPass reads passwords from the terminal.
var askPass = config.AskPass

func newRootCmd() *cobra.Command {
	a := &app{query: search.Name, search: search.Email}

	cmd := &cobra.Command{
		Use:   "mcds [flags] TERM",
		Short: "Search a CardDAV address book",
		Long: `mcds queries a CardDAV address book for contacts whose query field
contains TERM and prints "value<TAB>identity" for every search field of the
matching contacts, after a blank line. This is the output format of mutt's
query_command.`,
		Version:      version,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = newLogger(cmd.ErrOrStderr(), a.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, args[0])
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "configuration file (default "+config.DefaultPath+")")
	pf.StringP("url", "u", "", "address book URL")
	pf.StringP("username", "U", "", "username")
	pf.BoolVarP(&a.prompt, "prompt", "p", false, "prompt for the password")
	pf.BoolVarP(&a.store, "store", "S", false, "store the prompted password in the keyring")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose diagnostics on stderr")

	f := cmd.Flags()
	f.VarP(&a.query, "query", "q", "field to match TERM against: name, email, address or telephone")
	f.VarP(&a.search, "search", "s", "field to print: name, email, address or telephone")
	f.BoolVar(&a.skipIdentity, "skip-identity", false, "omit the line matching TERM when query and search are the same field")
	f.BoolVar(&a.strict, "strict", false, "reject malformed vCards")
	f.IntVarP(&a.limit, "limit", "l", 0, "ask the server for at most this many contacts (0 for no limit)")
	f.BoolP("version", "V", false, "print version")

	cmd.AddCommand(newBooksCmd(a), newForgetCmd(a))
	return cmd
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zap.WarnLevel
	if verbose {
		level = zap.DebugLevel
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

// session is an authenticated connection to the server.
type session struct {
	cfg    *config.Config
	client *carddav.Client
	// discovered is set when the URL was found through DNS.
	discovered bool
}

func (a *app) loadConfig(ctx context.Context, cmd *cobra.Command) (*config.Config, bool, error) {
	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return nil, false, err
	}
	if cfg.URL != "" {
		return cfg, false, nil
	}
	if cfg.Domain == "" {
		return nil, false, errors.New("no address book URL configured")
	}

	u, err := carddav.Discover(ctx, cfg.Domain)
	if err != nil {
		return nil, false, fmt.Errorf("discovering CardDAV server for %v: %w", cfg.Domain, err)
	}
	a.logger.Debug("discovered CardDAV server", zap.String("domain", cfg.Domain), zap.String("url", u))
	cfg.URL = u
	return cfg, true, nil
}

func (a *app) connect(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, discovered, err := a.loadConfig(ctx, cmd)
	if err != nil {
		return nil, err
	}

	resolver := &config.Resolver{
		Prompt:  a.prompt,
		Store:   a.store,
		AskPass: askPass,
		Logger:  a.logger,
	}
	creds, err := resolver.Resolve(cfg)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.Verify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	var hc mcds.HTTPClient = &http.Client{Transport: transport, Timeout: cfg.Timeout}
	if creds.Password != "" {
		hc = mcds.HTTPClientWithBasicAuth(hc, creds.Username, creds.Password)
	}
	hc = mcds.HTTPClientWithLogger(hc, a.logger)

	client, err := carddav.NewClient(hc, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", cfg.URL, err)
	}
	return &session{cfg: cfg, client: client, discovered: discovered}, nil
}

// addressBooks lists the address books of the current user.
func (s *session) addressBooks(ctx context.Context) ([]carddav.AddressBook, error) {
	principal, err := s.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding current user principal: %w", err)
	}
	homeSet, err := s.client.FindAddressBookHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("finding address book home set: %w", err)
	}
	books, err := s.client.FindAddressBooks(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("listing address books: %w", err)
	}
	return books, nil
}

// addressBookPath returns the path of the address book to search: the path
// of the configured URL, or the first address book of the user when the
// URL was discovered.
func (s *session) addressBookPath(ctx context.Context, logger *zap.Logger) (string, error) {
	if !s.discovered {
		u, err := url.Parse(s.cfg.URL)
		if err != nil {
			return "", err
		}
		if u.Path == "" {
			return "/", nil
		}
		return u.Path, nil
	}

	books, err := s.addressBooks(ctx)
	if err != nil {
		return "", err
	}
	if len(books) == 0 {
		return "", errors.New("no address book found")
	}
	logger.Debug("using address book", zap.String("path", books[0].Path), zap.String("name", books[0].Name))
	return books[0].Path, nil
}

// newAddressBookQuery asks the server for at most limit cards whose query
// field contains term, with just the properties needed to build the rows.
func newAddressBookQuery(spec search.Spec, limit int) *carddav.AddressBookQuery {
	props := []string{search.Name.Token()}
	for _, f := range []search.Field{spec.Query, spec.Search} {
		if tok := f.Token(); !contains(props, tok) {
			props = append(props, tok)
		}
	}
	return &carddav.AddressBookQuery{
		Props:      props,
		FilterTest: carddav.FilterAnyOf,
		PropFilters: []carddav.PropFilter{{
			Name: spec.Query.Token(),
			TextMatches: []carddav.TextMatch{{
				Text:      spec.Term,
				MatchType: carddav.MatchContains,
				Collation: carddav.UnicodeCasemap,
			}},
		}},
		Limit: limit,
	}
}

func contains(l []string, s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

func (a *app) runSearch(cmd *cobra.Command, term string) error {
	spec := search.Spec{Query: a.query, Term: term, Search: a.search}
	m, err := search.NewMatcher(spec, &search.Options{
		Logger:       a.logger,
		SkipIdentity: a.skipIdentity,
		Strict:       a.strict,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := a.connect(ctx, cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	path, err := s.addressBookPath(ctx, a.logger)
	if err != nil {
		return err
	}

	objs, err := s.client.QueryAddressBook(ctx, path, newAddressBookQuery(spec, a.limit))
	if err != nil {
		return fmt.Errorf("querying %v: %w", path, err)
	}

	records := make([]search.Record, len(objs))
	for i, obj := range objs {
		records[i] = search.Record{Name: obj.Path, Data: obj.Data}
	}

	out := cmd.OutOrStdout()
	// mutt skips the first line of query_command output.
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	w := search.Walker{Matcher: m, Output: out, Logger: a.logger}
	n, err := w.Walk(records)
	a.logger.Debug("search complete", zap.Int("records", len(records)), zap.Int("rows", n))
	return err
}

func newBooksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List the address books of the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.connect(ctx, cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
			defer cancel()

			if ok, err := s.client.SupportsAddressBook(ctx, ""); err != nil {
				a.logger.Warn("OPTIONS request failed", zap.Error(err))
			} else if !ok {
				a.logger.Warn("server doesn't advertise CardDAV support", zap.String("url", s.cfg.URL))
			}

			books, err := s.addressBooks(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ab := range books {
				if _, err := fmt.Fprintf(out, "%v\t%v\t%v\n", ab.Path, ab.Name, ab.Description); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newForgetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Remove the password stored in the keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.loadConfig(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			if err := config.ClearPassword(cfg.Username, cfg.URL); err != nil {
				return err
			}
			a.logger.Debug("removed keyring password", zap.String("username", cfg.Username), zap.String("url", cfg.URL))
			return nil
		},
	}
}
