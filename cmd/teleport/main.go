package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"

	"worlds-collide/internal/bridge"
	"worlds-collide/internal/config"
	"worlds-collide/internal/journal"
	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/teleport"
)

func main() {
	configFile := flag.String("config", "", "Path to config.yaml file")
	url := flag.String("url", "", "Session bridge URL (default: ws://127.0.0.1:8765/session)")
	journalPath := flag.String("journal", "", "Attempt journal (default: <output>/journal.db)")
	actor := flag.String("actor", "Player Object", "Actor to teleport")
	x := flag.Float64("x", 0, "Target X")
	y := flag.Float64("y", 0, "Target Y")
	z := flag.Float64("z", 0, "Target Z")
	yawDeg := flag.Float64("yaw", math.NaN(), "Facing after arrival in degrees (default: unchanged)")
	to := flag.String("to", "", "Teleport onto this actor instead of -x/-y/-z")
	fallback := flag.Bool("fallback", false, "Ask the session to navigate when the teleport fails")
	plan := flag.Bool("plan", false, "Evaluate the target and print the solution without moving")
	history := flag.Int("history", 0, "Print the last N journal entries and exit")

	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{BridgeURL: *url, JournalPath: *journalPath})

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer j.Close()

	if *history > 0 {
		printHistory(j, *actor, *history)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := bridge.Dial(ctx, bridge.ClientConfig{
		URL:    cfg.BridgeURL,
		Logger: log.New(os.Stderr, "[bridge] ", log.LstdFlags),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	target := teleport.Target{Position: mathutil.Vec3{*x, *y, *z}}
	if !math.IsNaN(*yawDeg) {
		yaw := mathutil.Deg2Rad(*yawDeg)
		target.Yaw = &yaw
	}
	if *to != "" {
		actors, err := client.OtherActors(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		found := false
		for _, a := range actors {
			if a.Name == *to {
				target.Position = a.Position
				found = true
				break
			}
		}
		if !found {
			fmt.Fprintf(os.Stderr, "Error: %v: %q\n", teleport.ErrActorNotFound, *to)
			os.Exit(1)
		}
	}

	opts := cfg.TeleportOptions()
	opts.Logger = log.New(os.Stderr, "[teleport] ", log.LstdFlags)

	if *plan {
		p, err := teleport.Evaluate(ctx, client, *actor, target, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", teleport.KindOf(err), err)
			os.Exit(1)
		}
		sol := p.Solution
		fmt.Printf("Zone: %s (%d objects, %d obstacles, %d actors)\n",
			p.Start.Zone, len(p.World.Objects), len(p.Projection.Static), len(p.Dynamic))
		fmt.Printf("Target: (%.1f, %.1f, %.1f)\n", target.Position[0], target.Position[1], target.Position[2])
		fmt.Printf("Solution: (%.1f, %.1f, %.1f) direct=%v player_radius=%.1f\n",
			sol.Point[0], sol.Point[1], sol.Point[2], sol.Direct, sol.PlayerRadius)
		return
	}

	rec := j.Begin(*actor, target.Position)
	opts.Observer = rec.Observe

	var res teleport.Result
	if *fallback {
		res, err = teleport.WithFallback(ctx, client, client, *actor, target, opts, cfg.FallbackOptions())
	} else {
		res, err = teleport.Attempt(ctx, client, *actor, target, opts)
	}
	id, jerr := rec.Finish(res, err)
	if jerr != nil {
		fmt.Fprintf(os.Stderr, "Warning: journal: %v\n", jerr)
	}

	fmt.Printf("Attempt #%d: %s", id, res.State)
	if res.Kind != teleport.FailureNone {
		fmt.Printf(" (%s)", res.Kind)
	}
	fmt.Println()
	fmt.Printf("  Intended: (%.1f, %.1f, %.1f) direct=%v fallback=%v\n",
		res.Intended[0], res.Intended[1], res.Intended[2], res.Direct, res.Fallback)
	if res.Moved {
		fmt.Printf("  Actual:   (%.1f, %.1f, %.1f) error=%.2f zone %s -> %s\n",
			res.Actual[0], res.Actual[1], res.Actual[2], res.Error2D, res.ZoneBefore, res.ZoneAfter)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHistory(j *journal.Journal, actor string, n int) {
	entries, err := j.Recent(actor, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("No attempts recorded.")
		return
	}
	for _, e := range entries {
		fmt.Printf("#%d %s %s %s", e.ID, e.StartedAt.Local().Format("2006-01-02 15:04:05"), e.Actor, e.State)
		if e.Kind != teleport.FailureNone.String() {
			fmt.Printf(" (%s)", e.Kind)
		}
		fmt.Printf(" target=(%.1f, %.1f, %.1f) zone=%s\n", e.Target[0], e.Target[1], e.Target[2], e.ZoneBefore)
		fmt.Printf("    %v\n", e.States)
		if e.Error != "" {
			fmt.Printf("    %s\n", e.Error)
		}
	}
}
