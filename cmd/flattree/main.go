package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/vanderheijden86/flattree/pkg/config"
	"github.com/vanderheijden86/flattree/pkg/export"
	"github.com/vanderheijden86/flattree/pkg/loader"
	"github.com/vanderheijden86/flattree/pkg/model"
	"github.com/vanderheijden86/flattree/pkg/store"
	"github.com/vanderheijden86/flattree/pkg/ui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const logFileName = "flattree.log"

type options struct {
	configPath  string
	search      string
	sort        string
	expandDepth int
	jsonOut     bool
	exportMD    string
	exportSVG   string
	db          string
	saveName    string
	loadName    string
	list        bool
	deleteName  string
	tui         bool
	noTUI       bool
	watch       bool
	showVersion bool
	help        bool

	expandDepthSet bool
	files          []string
}

func newFlagSet(o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("flattree", pflag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "config file (default .flattree/config.yaml in the project root)")
	fs.StringVar(&o.search, "search", "", "print search rows for query instead of the tree")
	fs.StringVar(&o.sort, "sort", "", "sort the top level before printing, e.g. priority:desc,natural")
	fs.IntVar(&o.expandDepth, "expand-depth", 0, "expand nodes shallower than this depth")
	fs.BoolVar(&o.jsonOut, "json", false, "print rows as JSON")
	fs.StringVar(&o.exportMD, "export-md", "", "write the outline to a Markdown file")
	fs.StringVar(&o.exportSVG, "export-svg", "", "write the outline to an SVG file")
	fs.StringVar(&o.db, "db", "", "outline database (default .flattree/outlines.db)")
	fs.StringVar(&o.saveName, "save", "", "save the outline to the database under this name")
	fs.StringVar(&o.loadName, "load", "", "open the outline saved under this name instead of files")
	fs.BoolVar(&o.list, "list", false, "list outlines saved in the database")
	fs.StringVar(&o.deleteName, "delete", "", "delete a saved outline from the database")
	fs.BoolVar(&o.tui, "tui", false, "force the interactive view")
	fs.BoolVar(&o.noTUI, "no-tui", false, "never start the interactive view")
	fs.BoolVar(&o.watch, "watch", false, "reload when the outline file changes (interactive view)")
	fs.BoolVar(&o.showVersion, "version", false, "show version")
	fs.BoolVarP(&o.help, "help", "h", false, "show help")
	return fs
}

func parseArgs(args []string) (*options, *pflag.FlagSet, error) {
	o := &options{}
	fs := newFlagSet(o)
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return o, fs, err
	}
	o.expandDepthSet = fs.Changed("expand-depth")
	o.files = fs.Args()
	if o.tui && o.noTUI {
		return o, fs, errors.New("--tui and --no-tui are mutually exclusive")
	}
	if o.expandDepthSet && o.expandDepth < 0 {
		return o, fs, fmt.Errorf("--expand-depth must not be negative, got %d", o.expandDepth)
	}
	if o.loadName != "" && len(o.files) > 0 {
		return o, fs, errors.New("--load cannot be combined with outline files")
	}
	return o, fs, nil
}

func main() {
	opts, fs, err := parseArgs(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) || opts.help {
		printHelp(os.Stdout, fs)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printHelp(os.Stderr, fs)
		os.Exit(2)
	}

	if opts.showVersion {
		fmt.Printf("flattree %s\n", version)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: flattree [options] [outline-file ...]")
	fmt.Fprintln(w, "\nBrowse and edit outlines in the terminal.")
	fmt.Fprintln(w, "\nWithout files, outlines listed in the config or found under the")
	fmt.Fprintln(w, "project root (*.outline.yaml, *.outline.jsonl, *.outline.txt) are opened.")
	fmt.Fprintln(w, "\nOptions:")
	fmt.Fprint(w, fs.FlagUsages())
}

// session is everything a command needs once the outline is loaded.
type session struct {
	cfg      *config.Config
	root     string
	stateDir string
	title    string
	paths    []string // Source files; empty when loaded from the database
	doc      *ui.Doc
}

func run(ctx context.Context, opts *options, stdout io.Writer) error {
	root := config.DetectProjectRoot(config.StateDirName)
	cfg, err := loadConfig(opts, root)
	if err != nil {
		return err
	}
	stateDir := cfg.StateDir(root)

	if opts.list || opts.deleteName != "" {
		return runStoreCommand(ctx, opts, stateDir, stdout)
	}

	s := &session{cfg: cfg, root: root, stateDir: stateDir}
	if err := s.load(ctx, opts); err != nil {
		return err
	}

	if opts.saveName != "" {
		if err := withStore(opts, stateDir, func(st *store.Store) error {
			return st.Save(ctx, opts.saveName, s.doc.Elements())
		}); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Saved %q (%d items)\n", opts.saveName, s.doc.Len()-1)
	}

	if useTUI(opts) {
		return s.runTUI()
	}

	if len(cfg.Tree.Sort) > 0 {
		if err := s.doc.SortChildren(ui.SortKeysFor(cfg.Tree.Sort)...); err != nil {
			return fmt.Errorf("sort outline: %w", err)
		}
	}

	exported := false
	if opts.exportMD != "" {
		if err := export.SaveMarkdownToFile(s.doc.GetVisibleRows(nil, ""), s.title, opts.exportMD); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Exported to %s\n", opts.exportMD)
		exported = true
	}
	if opts.exportSVG != "" {
		if err := export.SaveSVGToFile(s.doc.GetVisibleRows(nil, ""), s.title, opts.exportSVG); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Exported to %s\n", opts.exportSVG)
		exported = true
	}
	if (exported || opts.saveName != "") && opts.search == "" && !opts.jsonOut {
		return nil
	}

	rows := s.rows(opts.search)
	if opts.jsonOut {
		return writeJSONRows(stdout, s.doc, rows)
	}
	writePlainRows(stdout, s.doc, rows, opts.search != "")
	return nil
}

func loadConfig(opts *options, root string) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = filepath.Join(root, config.StateDirName, config.ConfigFileName)
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}

	if opts.expandDepthSet {
		cfg.Tree.ExpandDepth = opts.expandDepth
	}
	if opts.sort != "" {
		specs, err := config.ParseSortSpecs(opts.sort)
		if err != nil {
			return nil, fmt.Errorf("--sort: %w", err)
		}
		cfg.Tree.Sort = specs
	}
	if opts.watch {
		cfg.Watch.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// load reads the outline from the database or from files.
func (s *session) load(ctx context.Context, opts *options) error {
	var elems []loader.Element
	if opts.loadName != "" {
		if err := withStore(opts, s.stateDir, func(st *store.Store) error {
			var err error
			elems, err = st.Load(ctx, opts.loadName)
			return err
		}); err != nil {
			return err
		}
		s.title = opts.loadName
	} else {
		paths := opts.files
		if len(paths) == 0 {
			paths = config.DiscoverOutlines(*s.cfg, s.root)
		}
		if len(paths) == 0 {
			return fmt.Errorf("no outline files found under %s (pass a file or list files in the config)", s.root)
		}
		outlines, err := loader.LoadFiles(ctx, paths)
		if err != nil {
			return err
		}
		s.paths = paths
		s.title = outlines[0].Title
		if len(outlines) > 1 {
			s.title = filepath.Base(s.root)
		}
		elems = loader.Merge(s.title, outlines)
	}

	doc, err := loader.NewModel(elems)
	if err != nil {
		return err
	}
	s.doc = doc
	return nil
}

// rows returns the rows plain and JSON output print: the tree expanded to
// the configured depth, or search hits ordered as the interactive view
// orders them.
func (s *session) rows(query string) []ui.Row {
	tv := ui.NewTreeView(s.doc, ui.DefaultTheme(lipgloss.NewRenderer(io.Discard)))
	tv.SetExpandDepth(s.cfg.Tree.ExpandDepth)
	tv.SetSearchMode(s.cfg.Search.Mode)
	tv.SetQuery(query)
	return tv.Rows()
}

func useTUI(opts *options) bool {
	if opts.tui {
		return true
	}
	if opts.noTUI || opts.jsonOut || opts.search != "" || opts.exportMD != "" ||
		opts.exportSVG != "" || opts.saveName != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func (s *session) runTUI() error {
	if s.cfg.State.ShouldGitignore() {
		if err := loader.EnsureDirInGitignore(s.root, s.cfg.State.Dir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not update .gitignore: %v\n", err)
		}
	}

	// The terminal belongs to the view while it runs.
	if err := os.MkdirAll(s.stateDir, 0o755); err == nil {
		if f, err := os.OpenFile(filepath.Join(s.stateDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			log.SetOutput(f)
			defer func() {
				log.SetOutput(os.Stderr)
				f.Close()
			}()
		}
	}

	// Edits are written back only when a single file is open.
	var path string
	if len(s.paths) == 1 {
		path = s.paths[0]
	}

	var watcher *loader.Watcher
	if s.cfg.Watch.Enabled && path != "" {
		w, err := loader.NewWatcher([]string{path}, s.cfg.Watch.Debounce)
		if err != nil {
			log.Printf("warning: file watching disabled: %v", err)
		} else {
			w.Start()
			defer w.Stop()
			watcher = w
		}
	}

	outline := path
	if outline == "" {
		outline = s.title
	}
	m := ui.NewModel(s.doc, ui.Options{
		Title:    s.title,
		Path:     path,
		Config:   s.cfg,
		StateDir: s.stateDir,
		Outline:  outline,
		Watcher:  watcher,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running outline view: %w", err)
	}
	return nil
}

func withStore(opts *options, stateDir string, fn func(*store.Store) error) error {
	path := opts.db
	if path == "" {
		if err := os.MkdirAll(stateDir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
		path = filepath.Join(stateDir, store.DefaultFileName)
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func runStoreCommand(ctx context.Context, opts *options, stateDir string, stdout io.Writer) error {
	return withStore(opts, stateDir, func(st *store.Store) error {
		if opts.deleteName != "" {
			if err := st.Delete(ctx, opts.deleteName); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Deleted %q\n", opts.deleteName)
			return nil
		}

		outlines, err := st.List(ctx)
		if err != nil {
			return err
		}
		if opts.jsonOut {
			encoder := json.NewEncoder(stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(outlines)
		}
		if len(outlines) == 0 {
			fmt.Fprintln(stdout, "No saved outlines.")
			return nil
		}
		for _, o := range outlines {
			fmt.Fprintf(stdout, "%-20s %4d items  %s  %s\n", o.Name, o.Elements-1, o.Updated.Format("2006-01-02 15:04"), o.Title)
		}
		return nil
	})
}

// jsonRow is the machine-readable form of a row.
type jsonRow struct {
	ID          int        `json:"id"`
	Depth       int        `json:"depth"`
	Name        string     `json:"name"`
	HasChildren bool       `json:"has_children"`
	Expanded    bool       `json:"expanded"`
	Path        []string   `json:"path,omitempty"`
	Item        model.Item `json:"item"`
}

func writeJSONRows(w io.Writer, doc *ui.Doc, rows []ui.Row) error {
	out := make([]jsonRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, jsonRow{
			ID:          r.ID,
			Depth:       r.Depth,
			Name:        r.Name,
			HasChildren: r.HasChildren,
			Expanded:    r.Expanded,
			Path:        ancestorNames(doc, r.ID),
			Item:        r.Payload,
		})
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	return nil
}

// writePlainRows prints one row per line, indented two spaces per level.
// Search hits are followed by the names of their ancestors.
func writePlainRows(w io.Writer, doc *ui.Doc, rows []ui.Row, searching bool) {
	for _, r := range rows {
		if searching {
			line := r.Name
			if path := ancestorNames(doc, r.ID); len(path) > 0 {
				line += "  (in " + strings.Join(path, " / ") + ")"
			}
			fmt.Fprintln(w, line)
			continue
		}

		marker := "  "
		switch {
		case r.Collapsed():
			marker = "▸ "
		case r.HasChildren:
			marker = "▾ "
		}
		fmt.Fprintln(w, strings.Repeat("  ", r.Depth)+marker+r.Name)
	}
}

// ancestorNames lists the names above id, outermost first.
func ancestorNames(doc *ui.Doc, id int) []string {
	ids, err := doc.GetAncestorIDs(id)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if n, ok := doc.Find(ids[i]); ok {
			names = append(names, n.Name)
		}
	}
	return names
}
