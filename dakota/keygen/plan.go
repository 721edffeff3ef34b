package keygen

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
)

// Sub-directories of the output root, one per key type.
const (
	EOADir     = "eoa"
	NodeKeyDir = "besu"
	TesseraDir = "tessera"
)

var ErrNoOutputDir = errors.New("keygen: output directory is required")

// Plan describes one wizard run.
type Plan struct {
	OutDir string

	EOACount  int
	EOAPrefix string
	Keystore  KeystoreOptions

	NodeKeyCount  int
	NodeKeyPrefix string

	TesseraCount  int
	TesseraPrefix string
	Tessera       *TesseraRunner

	// Workers bounds concurrent key generation. Generator.Rand must be safe
	// for concurrent use when Workers > 1.
	Workers int
}

// DefaultPlan mirrors the wizard's defaults: one EOA, no node or Tessera keys.
func DefaultPlan(outDir string) Plan {
	return Plan{
		OutDir:        outDir,
		EOACount:      1,
		EOAPrefix:     "eoa-",
		NodeKeyPrefix: "besu-node-",
		TesseraPrefix: "tessera-",
		Workers:       runtime.NumCPU(),
	}
}

// Report lists everything a run produced, in name order.
type Report struct {
	OutDir   string
	EOAs     []EOAResult
	NodeKeys []NodeKeyResult
	Tessera  []TesseraResult
}

// KeySetName returns prefix followed by the 1-based index, zero-padded to two digits.
func KeySetName(prefix string, i int) string {
	return fmt.Sprintf("%s%02d", prefix, i)
}

// Run generates every key set in plan. EOAs and node keys are generated
// concurrently; Tessera keys run one at a time since each spawns a process.
func (g *Generator) Run(ctx context.Context, plan Plan) (*Report, error) {
	if plan.OutDir == "" {
		return nil, ErrNoOutputDir
	}
	if err := mkdirp(plan.OutDir, DirMode); err != nil {
		return nil, err
	}
	log := g.logger().With(zap.String("out", plan.OutDir))

	report := &Report{
		OutDir:   plan.OutDir,
		EOAs:     make([]EOAResult, plan.EOACount),
		NodeKeys: make([]NodeKeyResult, plan.NodeKeyCount),
	}

	pool := newWorkerPool(ctx, plan.Workers)
	pool.Start()

	if plan.EOACount > 0 {
		root := filepath.Join(plan.OutDir, EOADir)
		if err := mkdirp(root, DirMode); err != nil {
			_ = pool.Wait()
			return nil, err
		}
		log.Info("generating eoa accounts", zap.Int("count", plan.EOACount), zap.String("dir", root))
		for i := 0; i < plan.EOACount; i++ {
			i := i
			name := KeySetName(plan.EOAPrefix, i+1)
			err := pool.Submit(func(context.Context) error {
				res, err := g.GenerateEOA(root, name, plan.Keystore)
				if err != nil {
					return err
				}
				report.EOAs[i] = res
				return nil
			})
			if err != nil {
				break
			}
		}
	}

	if plan.NodeKeyCount > 0 {
		root := filepath.Join(plan.OutDir, NodeKeyDir)
		if err := mkdirp(root, DirMode); err != nil {
			_ = pool.Wait()
			return nil, err
		}
		log.Info("generating node keys", zap.Int("count", plan.NodeKeyCount), zap.String("dir", root))
		for i := 0; i < plan.NodeKeyCount; i++ {
			i := i
			name := KeySetName(plan.NodeKeyPrefix, i+1)
			err := pool.Submit(func(context.Context) error {
				res, err := g.GenerateNodeKey(root, name)
				if err != nil {
					return err
				}
				report.NodeKeys[i] = res
				return nil
			})
			if err != nil {
				break
			}
		}
	}

	if err := pool.Wait(); err != nil {
		return nil, err
	}

	if plan.TesseraCount > 0 {
		if plan.Tessera == nil {
			return nil, ErrTesseraNotConfigured
		}
		root := filepath.Join(plan.OutDir, TesseraDir)
		if err := mkdirp(root, DirMode); err != nil {
			return nil, err
		}
		log.Info("generating tessera keys",
			zap.Int("count", plan.TesseraCount),
			zap.String("bin", plan.Tessera.Bin),
			zap.Bool("unlocked", plan.Tessera.Unlocked))
		for i := 0; i < plan.TesseraCount; i++ {
			res, err := plan.Tessera.Generate(ctx, root, KeySetName(plan.TesseraPrefix, i+1))
			if err != nil {
				return nil, err
			}
			report.Tessera = append(report.Tessera, res)
		}
	}

	return report, nil
}
