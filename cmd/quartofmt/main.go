package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/quartofmt"
	"pkt.systems/quartofmt/internal/confload"
	"pkt.systems/version"
)

func init() {
	version.SetDefaultModule("pkt.systems/quartofmt")
}

func main() {
	var (
		widthFlag   int
		wrapFlag    string
		endingFlag  string
		configPath  string
		writeInline bool
		check       bool
		showVersion bool
	)

	flags := pflag.NewFlagSet("quartofmt", pflag.ExitOnError)
	flags.IntVarP(&widthFlag, "width", "w", 0, "Wrap column (0 uses config, terminal width, or 80)")
	flags.StringVar(&wrapFlag, "wrap", "", "Wrap mode: off|soft|hard")
	flags.StringVar(&endingFlag, "line-ending", "", "Line endings: auto|lf|crlf")
	flags.StringVarP(&configPath, "config", "c", "", "Config file (skips discovery)")
	flags.BoolVarP(&writeInline, "write", "i", false, "Rewrite files in place instead of printing")
	flags.BoolVar(&check, "check", false, "Exit 1 if any input is not formatted; print nothing")
	flags.BoolVarP(&showVersion, "version", "V", false, "Print version and exit")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, version.Module(), version.Current())
		fmt.Fprintf(os.Stderr, "Usage: quartofmt [flags] [files...]\n")
		fmt.Fprintln(os.Stderr, "\nWith no files, a document is read from stdin and written to stdout.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if showVersion {
		fmt.Println(version.Module(), version.Current())
		return
	}

	args := flags.Args()
	if writeInline && len(args) == 0 {
		fmt.Fprintln(os.Stderr, "--write needs file arguments")
		os.Exit(2)
	}

	exit := 0
	if len(args) == 0 {
		if err := runStdin(configPath, widthFlag, wrapFlag, endingFlag, check, &exit); err != nil {
			fmt.Fprintf(os.Stderr, "quartofmt: %v\n", err)
			os.Exit(1)
		}
		os.Exit(exit)
	}

	for _, path := range args {
		if err := runFile(path, configPath, widthFlag, wrapFlag, endingFlag, writeInline, check, &exit); err != nil {
			fmt.Fprintf(os.Stderr, "quartofmt: %s: %v\n", path, err)
			exit = 1
		}
	}
	os.Exit(exit)
}

func runStdin(configPath string, width int, wrap, ending string, check bool, exit *int) error {
	cfg, err := resolveConfig(configPath, "", width, wrap, ending)
	if err != nil {
		return err
	}
	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	out, err := quartofmt.Format(string(src), cfg)
	if err != nil {
		return err
	}
	if check {
		if out != string(src) {
			*exit = 1
		}
		return nil
	}
	_, err = io.WriteString(os.Stdout, out)
	return err
}

func runFile(path, configPath string, width int, wrap, ending string, writeInline, check bool, exit *int) error {
	cfg, err := resolveConfig(configPath, path, width, wrap, ending)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(normalizePath(path))
	if err != nil {
		return err
	}
	out, err := quartofmt.Format(string(src), cfg)
	if err != nil {
		return err
	}
	switch {
	case check:
		if out != string(src) {
			fmt.Fprintln(os.Stderr, path)
			*exit = 1
		}
		return nil
	case writeInline:
		if out == string(src) {
			return nil
		}
		return renameio.WriteFile(normalizePath(path), []byte(out), 0o644)
	default:
		_, err = io.WriteString(os.Stdout, out)
		return err
	}
}

// resolveConfig layers flags over the discovered or named config file.
func resolveConfig(configPath, docPath string, width int, wrap, ending string) (quartofmt.Config, error) {
	var cfg quartofmt.Config
	var err error
	if configPath != "" {
		cfg, err = confload.Load(normalizePath(configPath))
	} else {
		cfg, err = confload.Discover(docPath)
	}
	if err != nil {
		return cfg, err
	}
	if width > 0 {
		cfg.LineWidth = width
	} else if cfg.LineWidth == 0 {
		cfg.LineWidth = terminalWidth(quartofmt.DefaultLineWidth)
	}
	if wrap != "" {
		cfg.Wrap, err = quartofmt.ParseWrapMode(wrap)
		if err != nil {
			return cfg, err
		}
	}
	if ending != "" {
		cfg.LineEnding, err = quartofmt.ParseLineEnding(ending)
		if err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}
