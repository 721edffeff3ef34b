package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cryft-labs/dakota/dakota/dist"
	"github.com/cryft-labs/dakota/dakota/keygen"
	"github.com/cryft-labs/dakota/dakota/transfer"
)

type keySetGroup struct {
	label string
	dirs  []namedDir
}

type namedDir struct{ name, dir string }

func reportGroups(r *keygen.Report) []keySetGroup {
	var groups []keySetGroup
	add := func(label string, dirs []namedDir) {
		if len(dirs) > 0 {
			groups = append(groups, keySetGroup{label: label, dirs: dirs})
		}
	}
	var eoa, node, tess []namedDir
	for _, e := range r.EOAs {
		eoa = append(eoa, namedDir{e.Name, e.Dir})
	}
	for _, n := range r.NodeKeys {
		node = append(node, namedDir{n.Name, n.Dir})
	}
	for _, t := range r.Tessera {
		tess = append(tess, namedDir{t.Name, t.Dir})
	}
	add("EOA", eoa)
	add("Besu node key", node)
	add("Tessera", tess)
	return groups
}

// reviewTransfers walks every generated key set, offering to send it to a
// receiver and then to delete the local copy.
func (w *wizard) reviewTransfers(ctx context.Context, r *keygen.Report) error {
	for _, g := range reportGroups(r) {
		ok, err := w.p.YesNo(fmt.Sprintf("Review %s key sets for transfer?", g.label), false)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		for _, d := range g.dirs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.offer(ctx, g.label, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *wizard) offer(ctx context.Context, label string, d namedDir) error {
	p := w.p
	ok, err := p.YesNo(fmt.Sprintf("Send %s %s (%s)?", label, d.name, d.dir), false)
	if err != nil || !ok {
		return err
	}
	if w.last.Addr, err = p.NonEmpty("Receiver address (host:port)", w.last.Addr); err != nil {
		return err
	}
	if w.last.Fingerprint, err = p.NonEmpty("Receiver fingerprint", w.last.Fingerprint); err != nil {
		return err
	}
	if w.last.Token, err = p.NonEmpty("Receiver token", w.last.Token); err != nil {
		return err
	}

	res, err := w.sendDir(ctx, w.last, d.dir)
	if err != nil {
		w.log.Error("transfer failed", zap.String("key_set", d.name), zap.Error(err))
		fmt.Fprintf(w.out, "Transfer of %s failed: %v\n", d.name, err)
		return nil
	}
	fmt.Fprintf(w.out, "Sent %s to %s:%s (root %s)\n", d.name, w.last.Addr, res.Path, res.Root)

	del, err := p.YesNo("Delete local original?", false)
	if err != nil || !del {
		return err
	}
	if failed := keygen.DeleteTree(d.dir); len(failed) > 0 {
		for _, f := range failed {
			fmt.Fprintf(w.out, "  could not remove %s\n", f)
		}
	} else {
		fmt.Fprintf(w.out, "Deleted %s\n", d.dir)
	}
	return nil
}

// sendDir packs dir and sends it, retrying transient failures.
func (w *wizard) sendDir(ctx context.Context, to dist.Target, dir string) (*dist.Result, error) {
	b, err := transfer.PackDir(dir)
	if err != nil {
		return nil, err
	}
	send := w.send
	if send == nil {
		s := &dist.Sender{Logger: w.log, ChunkSize: w.cfg.Transfer.ChunkSize}
		send = s.Send
	}

	var res *dist.Result
	attempt := 0
	err = dist.Retry(ctx, w.cfg.Transfer.Attempts, w.cfg.Transfer.RetryDelay, func(ctx context.Context) error {
		attempt++
		r, err := send(ctx, to, b)
		if err != nil {
			w.log.Warn("send attempt failed",
				zap.String("key_set", b.Name),
				zap.Int("attempt", attempt),
				zap.Int("attempts", w.cfg.Transfer.Attempts),
				zap.Error(err))
			return err
		}
		res = r
		return nil
	})
	return res, err
}
