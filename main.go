package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"EDIDInspect/config"
	"EDIDInspect/ddc"
	"EDIDInspect/edid"
	"EDIDInspect/edidhelper"
	"EDIDInspect/luascripts"
	"EDIDInspect/report"
	"EDIDInspect/ui"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

const (
	exitOK = iota
	exitUsage
	exitFailure
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("edidinspect", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	screens := fs.Bool("screens", false, "render every display detected on this machine")
	bus := fs.String("ddc", "", "read the EDID over DDC from the given I2C bus")
	tui := fs.Bool("tui", false, "browse reports in an interactive terminal UI")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: edidinspect [flags] <path>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	switch {
	case *tui:
		app := ui.NewApp(ui.Options{
			Files:      fs.Args(),
			DDCBus:     *bus,
			ScriptsDir: cfg.ScriptsDir,
			Raw:        cfg.Raw,
			MaxSize:    cfg.MaxSize,
		})
		if err := app.Run(); err != nil {
			slog.Error("terminal ui failed", "error", err)
			return exitFailure
		}
		return exitOK

	case *screens:
		list, err := edidhelper.GetScreens()
		if err != nil && len(list) == 0 {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		if err != nil {
			slog.Warn("some displays could not be read", "error", err)
		}
		code := exitOK
		for _, s := range list {
			if err := inspect(stdout, s.Name, s.Raw, cfg); err != nil {
				fmt.Fprintf(stderr, "%s: %v\n", s.Name, err)
				code = exitFailure
			}
		}
		return code

	case *bus != "":
		driver, err := ddc.Open(*bus)
		if errors.Is(err, ddc.ErrNoDriver) {
			fmt.Fprintf(stderr, "ddc %s: %v (providers: %s)\n", *bus, err, strings.Join(ddc.Providers(), ", "))
			return exitFailure
		}
		if err != nil {
			fmt.Fprintf(stderr, "ddc %s: %v\n", *bus, err)
			return exitFailure
		}
		defer driver.Close()
		raw, err := ddc.ReadEDID(driver)
		if err != nil {
			fmt.Fprintf(stderr, "ddc %s: %v\n", *bus, err)
			return exitFailure
		}
		if err := inspect(stdout, "ddc:"+*bus, raw, cfg); err != nil {
			fmt.Fprintf(stderr, "ddc %s: %v\n", *bus, err)
			return exitFailure
		}
		return exitOK
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	path := fs.Arg(0)
	raw, err := edidhelper.LoadFileLimit(path, cfg.MaxSize)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	if err := inspect(stdout, path, raw, cfg); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", path, err)
		return exitFailure
	}
	return exitOK
}

// inspect 解析一份 EDID 並輸出「名稱:」與報表；設定了腳本時接著執行腳本並輸出結果。
func inspect(w io.Writer, name string, raw []byte, cfg *config.Config) error {
	rec, err := edid.Parse(raw)
	if err != nil {
		return err
	}
	slog.Info("parsed edid", "source", name, "size", humanize.Bytes(uint64(len(raw))), "cea", rec.Extension != nil)

	if _, err := fmt.Fprintf(w, "%s:\n", name); err != nil {
		return err
	}
	if err := report.Render(w, rec, cfg.Raw); err != nil {
		return err
	}
	if cfg.Script == "" {
		return nil
	}

	text, err := report.String(rec, cfg.Raw)
	if err != nil {
		return err
	}
	results, err := luascripts.RunWithRecord(cfg.Script, rec, text, luascripts.RuntimeOptions{
		Globals: map[string]interface{}{"source": name},
	})
	if err != nil {
		return fmt.Errorf("script %s: %w", cfg.Script, err)
	}
	if out := luascripts.FormatResults(results); out != "" {
		_, err = fmt.Fprintln(w, out)
	}
	return err
}
