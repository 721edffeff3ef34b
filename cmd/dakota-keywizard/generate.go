package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cryft-labs/dakota/dakota/dist"
	"github.com/cryft-labs/dakota/dakota/keygen"
	"github.com/cryft-labs/dakota/dakota/transfer"
)

func runGenerate(cmd *cobra.Command, _ []string) error {
	w := &wizard{
		p:   newTerminalPrompter(),
		cfg: cfg,
		log: logger,
		out: cmd.OutOrStdout(),
	}
	return w.run(cmd.Context())
}

type sendFunc func(ctx context.Context, to dist.Target, b *transfer.Bundle) (*dist.Result, error)

// wizard drives one interactive (or non-interactive) generation run.
type wizard struct {
	p   *prompter
	cfg *Config
	log *zap.Logger
	out io.Writer

	// send defaults to a dist.Sender built from cfg.Transfer.
	send sendFunc

	// last is offered as the default receiver for the next key set.
	last dist.Target
}

func (w *wizard) run(ctx context.Context) error {
	plan, review, err := w.plan()
	if err != nil {
		return err
	}

	gen := &keygen.Generator{Logger: w.log, Iterations: w.cfg.Keystore.Iterations}
	report, err := gen.Run(ctx, plan)
	if err != nil {
		return err
	}
	printReport(w.out, report)

	if review && !w.cfg.NonInteractive {
		if err := w.reviewTransfers(ctx, report); err != nil {
			return err
		}
	}
	return nil
}

// plan builds the generation plan. Interactive runs ask for every setting,
// offering the configured value as the default.
func (w *wizard) plan() (keygen.Plan, bool, error) {
	c := w.cfg
	plan := keygen.Plan{
		OutDir:        c.Out,
		EOAPrefix:     c.EOA.Prefix,
		NodeKeyPrefix: c.Node.Prefix,
		TesseraPrefix: c.Tessera.Prefix,
		Workers:       c.Workers,
	}
	tessera := &keygen.TesseraRunner{
		Bin:      c.Tessera.Bin,
		Basename: c.Tessera.Basename,
		Unlocked: !c.Tessera.Locked,
		Stdout:   os.Stderr,
		Stderr:   os.Stderr,
	}

	if c.NonInteractive {
		if c.EOA.Enabled {
			plan.EOACount = c.EOA.Count
		}
		plan.Keystore = keygen.KeystoreOptions{Enabled: c.EOA.Keystore, Password: []byte(c.EOA.KeystorePass)}
		plan.NodeKeyCount = c.Node.Count
		plan.TesseraCount = c.Tessera.Count
		if plan.TesseraCount > 0 {
			plan.Tessera = tessera
		}
		return plan, c.Transfer.Enabled, nil
	}

	p := w.p
	var err error
	if plan.OutDir, err = p.NonEmpty("Base output directory", c.Out); err != nil {
		return plan, false, err
	}
	plan.OutDir = expandHome(plan.OutDir)

	eoa, err := p.YesNo("Generate EOA account keys?", c.EOA.Enabled)
	if err != nil {
		return plan, false, err
	}
	if eoa {
		if plan.EOACount, err = p.Int("How many EOAs?", max(c.EOA.Count, 1), 1, maxKeySets); err != nil {
			return plan, false, err
		}
		ks, err := p.YesNo("Also generate keystore JSON files?", c.EOA.Keystore)
		if err != nil {
			return plan, false, err
		}
		if ks {
			pw := []byte(c.EOA.KeystorePass)
			if c.EOA.KeystorePass == "" {
				if pw, err = p.NewPassword(); err != nil {
					return plan, false, err
				}
			}
			plan.Keystore = keygen.KeystoreOptions{Enabled: true, Password: pw}
		}
	}

	besu, err := p.YesNo("Generate Besu node keys?", c.Node.Count > 0)
	if err != nil {
		return plan, false, err
	}
	if besu {
		if plan.NodeKeyCount, err = p.Int("How many Besu node keys?", max(c.Node.Count, 1), 1, maxKeySets); err != nil {
			return plan, false, err
		}
	}

	tess, err := p.YesNo("Generate Tessera keys?", c.Tessera.Count > 0)
	if err != nil {
		return plan, false, err
	}
	if tess {
		if plan.TesseraCount, err = p.Int("How many Tessera keys?", max(c.Tessera.Count, 1), 1, maxKeySets); err != nil {
			return plan, false, err
		}
		if tessera.Basename, err = p.NonEmpty("Tessera key basename", c.Tessera.Basename); err != nil {
			return plan, false, err
		}
		if tessera.Unlocked, err = p.YesNo("Generate UNLOCKED Tessera keys?", !c.Tessera.Locked); err != nil {
			return plan, false, err
		}
		if tessera.Bin, err = p.NonEmpty("Tessera binary", c.Tessera.Bin); err != nil {
			return plan, false, err
		}
		plan.Tessera = tessera
	}

	review, err := p.YesNo("After generation, review each key set for optional transfer?", c.Transfer.Enabled)
	if err != nil {
		return plan, false, err
	}
	return plan, review, nil
}

func printReport(out io.Writer, r *keygen.Report) {
	fmt.Fprintf(out, "\nOutput root: %s\n", r.OutDir)
	for _, e := range r.EOAs {
		fmt.Fprintf(out, "  eoa      %-16s %s\n", e.Name, e.Address.Hex())
		if e.KeystorePath != "" {
			fmt.Fprintf(out, "           keystore %s\n", e.KeystorePath)
		}
	}
	for _, n := range r.NodeKeys {
		fmt.Fprintf(out, "  besu     %-16s %s\n", n.Name, n.Dir)
	}
	for _, t := range r.Tessera {
		fmt.Fprintf(out, "  tessera  %-16s %s\n", t.Name, t.Dir)
	}
}
