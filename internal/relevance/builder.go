// Package relevance builds relevance networks: every reason of a pros and
// cons list is related to its central claim and to a sample of the other
// reasons, each relation weighted by a judgment oracle.
package relevance

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/ppiankov/argscope/internal/argmap"
	"github.com/ppiankov/argscope/internal/ctxlog"
	"github.com/ppiankov/argscope/internal/llm"
	"github.com/ppiankov/argscope/internal/worker"
)

// DefaultMaxRelations bounds the reasons each reason is related to
const DefaultMaxRelations = 20

// Options tune a Builder
type Options struct {
	MaxRelations     int           // sampled source reasons per target reason
	KeepListValences bool          // derive reason-reason valences from the list instead of the oracle
	Seed             int64         // sampling seed
	Workers          int           // concurrent judgments
	JudgmentTimeout  time.Duration // 0 disables
}

// Builder turns pros and cons lists into relevance networks
type Builder struct {
	oracle  llm.Oracle
	limiter *worker.Limiter
	opts    Options
}

// NewBuilder creates a builder. limiter may be nil.
func NewBuilder(oracle llm.Oracle, limiter *worker.Limiter, opts Options) *Builder {
	if opts.MaxRelations <= 0 {
		opts.MaxRelations = DefaultMaxRelations
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Builder{oracle: oracle, limiter: limiter, opts: opts}
}

// relation is a pending edge; valence is empty when the oracle decides it
type relation struct {
	source, target int
	valence        argmap.Valence
}

// Stats summarizes a build
type Stats struct {
	Relations int
	TimedOut  int
	Sampled   int
}

// Build relates every reason to its central claim with the list's valence,
// and to up to MaxRelations other reasons. All judgments run concurrently;
// the network is assembled once they are all in.
func (b *Builder) Build(ctx context.Context, list argmap.ProsConsList) (argmap.Graph, Stats, error) {
	logger := ctxlog.FromContext(ctx)
	list = list.Dedup()

	var g argmap.Graph
	var rels []relation
	parent := make(map[int]relation)

	addNode := func(c argmap.Claim, t argmap.NodeType) int {
		id := len(g.Nodes)
		g.Nodes = append(g.Nodes, argmap.Node{ID: "n" + strconv.Itoa(id), Label: c.Label, Text: c.Text, Type: t})
		return id
	}

	for _, root := range list.Roots {
		target := addNode(argmap.Claim{Label: root.Label, Text: root.Text}, argmap.CentralClaim)
		for _, pro := range root.Pros {
			r := relation{source: addNode(pro, argmap.Reason), target: target, valence: argmap.Support}
			parent[r.source] = r
			rels = append(rels, r)
		}
		for _, con := range root.Cons {
			r := relation{source: addNode(con, argmap.Reason), target: target, valence: argmap.Attack}
			parent[r.source] = r
			rels = append(rels, r)
		}
	}

	var stats Stats
	rng := rand.New(rand.NewPCG(uint64(b.opts.Seed), uint64(b.opts.Seed)))
	for target, n := range g.Nodes {
		if n.Type != argmap.Reason {
			continue
		}
		var sources []int
		for i, m := range g.Nodes {
			if i != target && m.Type == argmap.Reason {
				sources = append(sources, i)
			}
		}
		if len(sources) > b.opts.MaxRelations {
			picked := rng.Perm(len(sources))[:b.opts.MaxRelations]
			slices.Sort(picked)
			sampled := make([]int, len(picked))
			for i, p := range picked {
				sampled[i] = sources[p]
			}
			sources = sampled
			stats.Sampled++
		}
		for _, source := range sources {
			r := relation{source: source, target: target}
			if b.opts.KeepListValences {
				r.valence = argmap.Attack
				if equivalent(parent, source, target) {
					r.valence = argmap.Support
				}
			}
			rels = append(rels, r)
		}
	}

	logger.Info("Weighing relations.", "nodes", len(g.Nodes), "relations", len(rels))

	dists, timedOut, err := b.judgeAll(ctx, g, rels)
	if err != nil {
		return argmap.Graph{}, stats, err
	}
	stats.Relations = len(rels)
	stats.TimedOut = timedOut

	labels := []string{llm.LabelSupport, llm.LabelAttack, llm.LabelNeutral}
	for i, r := range rels {
		probs := dists[i].Normalize(labels)
		valence := r.valence
		if valence == "" {
			valence = argmap.Attack
			if probs[llm.LabelSupport] > probs[llm.LabelAttack] {
				valence = argmap.Support
			}
		}
		g.Edges = append(g.Edges, argmap.Edge{
			Source:  g.Nodes[r.source].ID,
			Target:  g.Nodes[r.target].ID,
			Weight:  probs[string(valence)],
			Valence: valence,
		})
	}

	if err := g.Validate(); err != nil {
		return argmap.Graph{}, stats, fmt.Errorf("built network is invalid: %w", err)
	}
	return g, stats, nil
}

// equivalent reports whether two reasons stand dialectically together
// relative to the central claims, which are taken to be mutually
// exclusive. Reasons under the same claim are equivalent when they have
// the same valence; reasons under different claims when their valences
// differ.
func equivalent(parent map[int]relation, a, b int) bool {
	pa, okA := parent[a]
	pb, okB := parent[b]
	if !okA || !okB {
		return !okA && !okB
	}
	if pa.target == pb.target {
		return pa.valence == pb.valence
	}
	return pa.valence != pb.valence
}

type judgment struct {
	index    int
	dist     llm.Distribution
	timedOut bool
	err      error
}

func (j *judgment) GetError() error { return j.err }

// judgeAll runs one judgment per relation on a worker pool and returns the
// distributions in relation order. A judgment that exceeds the timeout
// counts as neutral.
func (b *Builder) judgeAll(ctx context.Context, g argmap.Graph, rels []relation) ([]llm.Distribution, int, error) {
	logger := ctxlog.FromContext(ctx)
	dists := make([]llm.Distribution, len(rels))
	if len(rels) == 0 {
		return dists, 0, nil
	}

	pool := worker.NewPool(ctx, b.opts.Workers)
	pool.Start()

	for i, r := range rels {
		req := llm.DialecticRelation(g.Nodes[r.target].Text, g.Nodes[r.source].Text)
		idx := i
		job := worker.JobFunc(func(ctx context.Context) worker.Result {
			return b.judge(ctx, idx, req)
		})
		if err := pool.Submit(job); err != nil {
			pool.Shutdown()
			return nil, 0, err
		}
	}

	done := make([]bool, len(rels))
	timedOut := 0
	var firstErr *judgment
	for _, res := range pool.Wait() {
		j := res.(*judgment)
		if j.err != nil {
			if firstErr == nil || j.index < firstErr.index {
				firstErr = j
			}
			continue
		}
		if j.timedOut {
			timedOut++
		}
		dists[j.index] = j.dist
		done[j.index] = true
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if firstErr != nil {
		r := rels[firstErr.index]
		return nil, 0, fmt.Errorf("judge %s -> %s: %w", g.Nodes[r.source].ID, g.Nodes[r.target].ID, firstErr.err)
	}
	for i, ok := range done {
		if !ok {
			return nil, 0, fmt.Errorf("judgment %d did not complete", i)
		}
	}

	if timedOut > 0 {
		logger.Warn("Judgments timed out and were treated as neutral.", "count", timedOut, "of", len(rels))
	}
	return dists, timedOut, nil
}

func (b *Builder) judge(ctx context.Context, index int, req llm.JudgmentRequest) *judgment {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx, b.oracle.Name()); err != nil {
			return &judgment{index: index, err: err}
		}
	}

	jctx := ctx
	if b.opts.JudgmentTimeout > 0 {
		var cancel context.CancelFunc
		jctx, cancel = context.WithTimeout(ctx, b.opts.JudgmentTimeout)
		defer cancel()
	}

	dist, err := b.oracle.Judge(jctx, req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(jctx.Err(), context.DeadlineExceeded) {
			return &judgment{index: index, dist: llm.NeutralRelation(), timedOut: true}
		}
		return &judgment{index: index, err: err}
	}
	return &judgment{index: index, dist: dist}
}
