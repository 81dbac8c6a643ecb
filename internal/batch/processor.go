// Package batch solves lists of teleport targets offline against zone data
// on disk, with a worker pool, snapshots and a manifest.
package batch

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/obstacle"
	"worlds-collide/internal/snapshot"
	"worlds-collide/internal/teleport"
	"worlds-collide/internal/zonedata"
)

// Source serves collision streams by zone name.
type Source interface {
	CollisionBytes(ctx context.Context, zone string) ([]byte, error)
}

// Config holds all shared resources for a batch run.
type Config struct {
	Source       Source
	OutputDir    string
	Format       snapshot.Format
	SnapshotSize int
	Workers      int
	Options      teleport.Options
	Logger       *log.Logger
	Progress     time.Duration // interval of progress lines; zero disables them
}

// Result holds the outcome of one job.
type Result struct {
	Name     string        `json:"name"`
	Zone     string        `json:"zone"`
	Target   mathutil.Vec3 `json:"target"`
	Point    mathutil.Vec3 `json:"point"`
	Direct   bool          `json:"direct"`
	Islands  int           `json:"islands,omitempty"`
	Skipped  int           `json:"skipped_objects,omitempty"`
	Image    string        `json:"image,omitempty"` // relative to the output directory
	Success  bool          `json:"success"`
	Kind     string        `json:"kind"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// solverActor names the acting body of offline solves.
const solverActor = "offline-solver"

// Run solves all jobs using a worker pool. Results keep the order of jobs.
// A canceled ctx fails the jobs not yet started.
func Run(ctx context.Context, cfg Config, jobs []Job) []Result {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	if cfg.Progress > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Progress)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						cfg.Logger.Printf("[%d/%d] %.1f solves/sec", p, total, rate)
					}
				}
			}
		}()
	}

	// Worker pool
	jobChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(ctx, cfg, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func processJob(ctx context.Context, cfg Config, job Job) Result {
	began := time.Now()
	res := Result{Name: job.Name, Zone: job.Zone, Target: job.Position}
	finish := func(err error) Result {
		res.Duration = time.Since(began)
		if err != nil {
			res.Kind = teleport.KindOf(err).String()
			res.Error = err.Error()
			return res
		}
		res.Success = true
		res.Kind = teleport.FailureNone.String()
		return res
	}

	if err := ctx.Err(); err != nil {
		return finish(fmt.Errorf("%w: %w", teleport.ErrCanceled, err))
	}

	plan, err := teleport.Evaluate(ctx, &offlineSession{src: cfg.Source, job: job}, solverActor,
		teleport.Target{Position: job.Position}, cfg.Options)
	if err != nil {
		return finish(err)
	}
	sol := plan.Solution
	res.Point = sol.Point
	res.Direct = sol.Direct
	res.Islands = sol.Islands
	res.Skipped = plan.Projection.Skipped

	if cfg.Format != "" && cfg.Format != snapshot.FormatNone {
		img, err := snapshot.Render(sol, job.Position, cfg.SnapshotSize)
		if err != nil {
			return finish(err)
		}
		rel := filepath.Join(zonedata.FileStem(job.Zone), fileName(job.Name)+cfg.Format.Ext())
		if err := snapshot.Save(filepath.Join(cfg.OutputDir, rel), img, cfg.Format); err != nil {
			return finish(err)
		}
		res.Image = filepath.ToSlash(rel)
	}
	return finish(nil)
}

// fileName keeps letters, digits, dash, underscore and dot.
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
}

// offlineSession stands in for a live game: the acting body stands on the
// target, the job's actors are the only others, and nothing moves.
type offlineSession struct {
	src Source
	job Job
}

func (s *offlineSession) CollisionBytes(ctx context.Context, zone string) ([]byte, error) {
	return s.src.CollisionBytes(ctx, zone)
}

func (s *offlineSession) ActorState(ctx context.Context, actor string) (teleport.ActorState, error) {
	return teleport.ActorState{
		Position: s.job.Position,
		Zone:     s.job.Zone,
		Height:   2 * s.job.BodyRadius,
		Scale:    1,
	}, nil
}

func (s *offlineSession) OtherActors(ctx context.Context) ([]obstacle.Actor, error) {
	return s.job.Actors, nil
}

func (s *offlineSession) MoveActor(ctx context.Context, actor string, pos mathutil.Vec3) error {
	return fmt.Errorf("batch: offline session cannot move %q", actor)
}
