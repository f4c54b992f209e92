package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/reoring/formbind"
	"github.com/reoring/formbind/i18n"
	"github.com/reoring/formbind/model"
	"github.com/reoring/formbind/openapi"
	"github.com/reoring/formbind/validators"
)

const (
	exitValid   = 0
	exitInvalid = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "formbind CLI\n\nUsage:\n  formbind validate -schema api.yaml [-entity Order] [-data value.json] [-lang en|ja] [-format text|json]\n  formbind empty -schema api.yaml [-entity Order]\n\nNotes:\n  - -data defaults to stdin.\n  - validate exits 1 when the value is invalid.")
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitUsage
	}
	switch args[0] {
	case "validate":
		return validateCmd(args[1:], stdin, stdout, stderr)
	case "empty":
		return emptyCmd(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return exitValid
	default:
		usage(stderr)
		return exitUsage
	}
}

// schemaFlags are shared by every subcommand.
type schemaFlags struct {
	schema    string
	entity    string
	strict    bool
	logLevel  string
	logFormat string
}

func (f *schemaFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.schema, "schema", "", "OpenAPI document (YAML or JSON)")
	fs.StringVar(&f.entity, "entity", "", "component schema to bind")
	fs.BoolVar(&f.strict, "strict", false, "fail on import warnings")
	fs.StringVar(&f.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "text", "log format (text, json)")
}

func (f *schemaFlags) load(log *slog.Logger) (*model.Shape, error) {
	data, err := os.ReadFile(f.schema)
	if err != nil {
		return nil, err
	}
	opts := openapi.Options{Entity: f.entity, Strict: f.strict}
	var (
		shape *model.Shape
		diag  openapi.Diag
	)
	if strings.EqualFold(filepath.Ext(f.schema), ".json") {
		shape, diag, err = openapi.ImportJSON(data, opts)
	} else {
		shape, diag, err = openapi.ImportYAML(data, opts)
	}
	if diag != nil {
		for _, w := range diag.Warnings() {
			log.Warn("schema import", "warning", w)
		}
	}
	return shape, err
}

func validateCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var sf schemaFlags
	var dataPath, lang, format string
	sf.register(fs)
	fs.StringVar(&dataPath, "data", "-", "JSON value to validate (- for stdin)")
	fs.StringVar(&lang, "lang", "en", "message language (en, ja)")
	fs.StringVar(&format, "format", "text", "output format (text, json)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if sf.schema == "" {
		fs.Usage()
		return exitUsage
	}
	log := newLogger(sf.logLevel, sf.logFormat, stderr)

	shape, err := sf.load(log)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	var data []byte
	if dataPath == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(dataPath)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: reading data: %v\n", err)
		return exitUsage
	}

	b := formbind.New(shape, formbind.Options{
		Logger:              log,
		Constraints:         validators.Factory(),
		Interpolate:         i18n.Interpolator(i18n.Language(lang)),
		RejectDuplicateKeys: true,
	})
	if err := b.ReadJSON(data); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	errs := b.Validate(context.Background())
	log.Debug("validated", "entity", sf.entity, "errors", len(errs))

	if format == "json" {
		out, err := b.ErrorsJSON()
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitUsage
		}
		fmt.Fprintln(stdout, string(out))
	} else {
		for _, e := range errs {
			fmt.Fprintln(stdout, e.Error())
		}
	}
	if len(errs) > 0 {
		return exitInvalid
	}
	return exitValid
}

func emptyCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("empty", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var sf schemaFlags
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if sf.schema == "" {
		fs.Usage()
		return exitUsage
	}
	log := newLogger(sf.logLevel, sf.logFormat, stderr)
	shape, err := sf.load(log)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	out, err := formbind.New(shape, formbind.Options{Logger: log}).ValueJSON()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	fmt.Fprintln(stdout, string(out))
	return exitValid
}

// newLogger builds an isolated logger; the default logger is left alone.
func newLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
