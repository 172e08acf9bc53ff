// Command docsetq runs one criteria query against a configured model and
// prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docset"
	"github.com/kailas-cloud/docset/internal/app"
	"github.com/kailas-cloud/docset/internal/config"
	"github.com/kailas-cloud/docset/internal/domain/selector"
	logpkg "github.com/kailas-cloud/docset/internal/logger"
	queryuc "github.com/kailas-cloud/docset/internal/usecase/query"
	"github.com/kailas-cloud/docset/internal/version"
)

var errShowVersion = errors.New("version requested")

// options holds parsed command line flags.
type options struct {
	env        string
	configPath string
	indent     bool
	request    queryuc.Request
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	opts, err := parseFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printHelp(out)
		return 0
	}
	if errors.Is(err, errShowVersion) {
		fmt.Fprintln(out, version.String())
		return 0
	}
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 2
	}

	var cfg config.Config
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load(opts.env)
	}
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	logger, err := logpkg.NewLogger(opts.env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer a.Close()

	res, err := a.Query.Execute(ctx, opts.request)
	if err != nil {
		logger.Debug("query failed", zap.Error(err))
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if err := writeResult(out, res, opts.indent); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("docsetq", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	env := fs.String("env", config.GetEnv(), "Environment whose config/<env>.yaml is loaded")
	configPath := fs.StringP("config", "c", "", "Explicit config file (overrides --env)")
	model := fs.StringP("model", "m", "", "Model to query (required)")
	where := fs.StringP("where", "w", "", "Selector as a JSON document")
	scopes := fs.StringArrayP("scope", "s", nil, "Scope to apply as name[:arg,...]; repeatable")
	op := fs.StringP("op", "o", queryuc.DefaultOperation, "Operation to run on the criteria")
	field := fs.StringP("field", "f", "", "Field argument of aggregates such as sum or distinct")
	opArgs := fs.StringArray("arg", nil, "Extra operation argument, parsed as JSON when possible; repeatable")
	skip := fs.Int("skip", -1, "Documents to skip")
	limit := fs.IntP("limit", "n", -1, "Maximum documents to return")
	sorts := fs.StringArray("sort", nil, "Sort key as field[:asc|desc]; repeatable")
	only := fs.StringSlice("only", nil, "Fields to project")
	unscoped := fs.Bool("unscoped", false, "Skip the model's default scope")
	indent := fs.Bool("indent", false, "Indent JSON output")
	showVersion := fs.Bool("version", false, "Print build information and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if *showVersion {
		return options{}, errShowVersion
	}
	if *model == "" {
		return options{}, errors.New("--model is required")
	}

	req := queryuc.Request{
		Model:     *model,
		Operation: *op,
		Only:      *only,
		Unscoped:  *unscoped,
	}
	if *where != "" {
		var sel map[string]any
		if err := json.Unmarshal([]byte(*where), &sel); err != nil {
			return options{}, fmt.Errorf("--where: %w", err)
		}
		req.Where = docset.Selector(sel)
	}
	if *skip >= 0 {
		req.Skip = skip
	}
	if *limit >= 0 {
		req.Limit = limit
	}
	for _, s := range *scopes {
		name, rest, _ := strings.Cut(s, ":")
		if name == "" {
			return options{}, fmt.Errorf("--scope %q: name is required", s)
		}
		call := queryuc.ScopeCall{Name: name}
		if rest != "" {
			for _, a := range strings.Split(rest, ",") {
				call.Args = append(call.Args, parseArg(a))
			}
		}
		req.Scopes = append(req.Scopes, call)
	}
	for _, s := range *sorts {
		name, dir, _ := strings.Cut(s, ":")
		d, err := selector.ParseDirection(dir)
		if err != nil {
			return options{}, fmt.Errorf("--sort %q: %w", s, err)
		}
		req.Sort = append(req.Sort, docset.SortField{Field: name, Direction: d})
	}
	if *field != "" {
		req.Args = append(req.Args, *field)
	}
	for _, a := range *opArgs {
		req.Args = append(req.Args, parseArg(a))
	}

	return options{env: *env, configPath: *configPath, indent: *indent, request: req}, nil
}

// parseArg decodes a JSON literal, falling back to the raw string.
func parseArg(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func writeResult(out io.Writer, res *queryuc.Result, indent bool) error {
	value := res.Value
	if raw, ok := value.([]byte); ok {
		value = json.RawMessage(raw)
	}
	enc := json.NewEncoder(out)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(value)
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `Usage: docsetq --model NAME [flags]

Builds a criteria for NAME from the given selector, scopes and options,
runs one operation on it and prints the result as JSON.

Examples:
  docsetq -m users -s adults -o count
  docsetq -m users -w '{"status":"active"}' --sort age:desc -n 5
  docsetq -m users -o sum -f age
  docsetq -m users -s older_than:30 -o pluck -f name
`)
}
