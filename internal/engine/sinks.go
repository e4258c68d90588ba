package engine

import (
	"io"

	"pkgsweep/internal/config"
	"pkgsweep/internal/output"
)

func setupOutputManager(cfg *config.Config, stdout io.Writer) (*output.Manager, error) {
	outMgr := output.NewManager()

	fail := func(err error) (*output.Manager, error) {
		_ = outMgr.Close()
		return nil, err
	}

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus)); err != nil {
			return fail(err)
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(stdout, emit)
		if err != nil {
			return fail(err)
		}
		if err := outMgr.AddSink(es); err != nil {
			return fail(err)
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			return fail(err)
		}
		if err := outMgr.AddSink(fs); err != nil {
			return fail(err)
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			return fail(err)
		}
		if err := outMgr.AddSink(rs); err != nil {
			return fail(err)
		}
	}

	return outMgr, nil
}
