package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/zshell31/ferrum-hls/netlist"
)

func main() {
	synthCmd := &cli.Command{
		Name:        "synth",
		Description: "build a demo design, run the passes and write verilog",
		Action:      synthAct,
		Args:        cli.Args{},
		Flags:       appendFlags(cli.NewFlag("out,o", "", "output file, <design>.v if empty")),
	}

	dumpCmd := &cli.Command{
		Name:        "dump",
		Description: "print a demo design's netlist before and after the passes",
		Action:      dumpAct,
		Args:        cli.Args{},
		Flags:       appendFlags(),
	}

	app := &cli.Command{
		Name:        "fhls",
		Description: "fhls is a tool for synthesizing demo hardware designs to verilog",
		Commands: []*cli.Command{
			synthCmd,
			dumpCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func appendFlags(flags ...*cli.Flag) []*cli.Flag {
	return append(flags,
		cli.NewFlag("inline", "auto", "module inlining: auto, all, none"),
		cli.NewFlag("max-inlines", -1, "inline budget, negative for no cap"),
		cli.NewFlag("no-const-dedup", false, "keep duplicate constants"),
	)
}

func synthAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := flagConfig(c)
	if err != nil {
		return err
	}

	if len(c.Args) == 0 {
		return errors.New("no design, have: %v", designNames())
	}

	for _, a := range c.Args {
		d, ok := findDesign(a)
		if !ok {
			return errors.New("unknown design %v, have: %v", a, designNames())
		}

		nl := d.build(cfg)

		err = nl.RunPasses(ctx)
		if err != nil {
			return errors.Wrap(err, "passes: %v", a)
		}

		out := c.String("out")
		if out == "" {
			out = a + ".v"
		}

		err = nl.SynthVerilogFile(ctx, out)
		if err != nil {
			return errors.Wrap(err, "synth %v", a)
		}

		tlog.Printw("design synthesized", "design", a, "file", out)
	}

	return nil
}

func dumpAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := flagConfig(c)
	if err != nil {
		return err
	}

	if len(c.Args) == 0 {
		return errors.New("no design, have: %v", designNames())
	}

	for _, a := range c.Args {
		d, ok := findDesign(a)
		if !ok {
			return errors.New("unknown design %v, have: %v", a, designNames())
		}

		nl := d.build(cfg)

		fmt.Printf("=== %v as constructed\n", a)

		err = nl.Dump(os.Stdout, false)
		if err != nil {
			return errors.Wrap(err, "dump %v", a)
		}

		err = nl.RunPasses(ctx)
		if err != nil {
			return errors.Wrap(err, "passes: %v", a)
		}

		fmt.Printf("=== %v after passes\n", a)

		err = nl.Dump(os.Stdout, true)
		if err != nil {
			return errors.Wrap(err, "dump %v", a)
		}
	}

	return nil
}

func flagConfig(c *cli.Command) (cfg netlist.Config, err error) {
	cfg = netlist.Config{
		MaxInlines:   c.Int("max-inlines"),
		NoConstDedup: c.Bool("no-const-dedup"),
	}

	switch p := c.String("inline"); p {
	case "auto":
		cfg.Inline = netlist.InlineAuto
	case "all":
		cfg.Inline = netlist.InlineAll
	case "none":
		cfg.Inline = netlist.InlineNone
	default:
		return cfg, errors.New("unknown inline policy: %v", p)
	}

	return cfg, nil
}
