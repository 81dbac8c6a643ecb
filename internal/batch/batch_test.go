package batch

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"worlds-collide/internal/bcd"
	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/obstacle"
	"worlds-collide/internal/snapshot"
	"worlds-collide/internal/teleport"
	"worlds-collide/internal/zonedata"
)

func hubWorld() *bcd.World {
	identity := mathutil.Mat3Identity()
	return &bcd.World{Objects: []bcd.Object{
		{
			Kind:     bcd.KindMesh,
			Category: bcd.FlagWalkable,
			Collide:  bcd.FlagWalkable,
			Name:     "floor",
			Rotation: identity,
			Scale:    1,
			Params:   bcd.MeshParams{},
			Mesh: &bcd.Mesh{
				Vertices: []mathutil.Vec3{{-1000, -1000, 0}, {1000, -1000, 0}, {1000, 1000, 0}, {-1000, 1000, 0}},
				Faces:    [][3]int32{{0, 1, 2}, {0, 2, 3}},
				Normals:  []mathutil.Vec3{{0, 0, 1}, {0, 0, 1}},
			},
		},
		{
			Kind:     bcd.KindBox,
			Category: bcd.FlagObject,
			Collide:  bcd.FlagObject,
			Name:     "crate",
			Rotation: identity,
			Scale:    1,
			Params:   bcd.BoxParams{Length: 200, Width: 200, Depth: 200},
		},
	}}
}

func writeZone(t *testing.T, root, zone string, w *bcd.World) {
	t.Helper()
	data, err := w.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, zonedata.FileStem(zone)+".bcd"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRun(t *testing.T) {
	data := t.TempDir()
	out := t.TempDir()
	writeZone(t, data, "WizardCity/WC_Hub", hubWorld())

	jobs := []Job{
		{Name: "crate", Zone: "WizardCity/WC_Hub", BodyRadius: 50},
		{Name: "open floor", Zone: "WizardCity/WC_Hub", Position: mathutil.Vec3{500, 500, 0}, BodyRadius: 50},
		{Name: "crowded", Zone: "WizardCity/WC_Hub", Position: mathutil.Vec3{-500, 0, 0}, BodyRadius: 50,
			Actors: []obstacle.Actor{{Name: "Gamma", Position: mathutil.Vec3{-500, 0, 0}, Height: 120, Scale: 1, BodyType: obstacle.CharacterBody}}},
		{Name: "nowhere", Zone: "Nowhere/Zone", BodyRadius: 50},
	}
	results := Run(context.Background(), Config{
		Source:       zonedata.NewDir(data),
		OutputDir:    out,
		Format:       snapshot.FormatPNG,
		SnapshotSize: 128,
		Workers:      3,
	}, jobs)
	if len(results) != len(jobs) {
		t.Fatalf("got %d results", len(results))
	}

	crate := results[0]
	if !crate.Success || crate.Direct {
		t.Fatalf("crate job %+v", crate)
	}
	if p := crate.Point; math.Abs(p[0]) <= 100 && math.Abs(p[1]) <= 100 {
		t.Fatalf("solved point %v inside the crate", p)
	}
	if crate.Image != "WizardCity-WC_Hub/crate.png" {
		t.Fatalf("image path %q", crate.Image)
	}
	if _, err := os.Stat(filepath.Join(out, crate.Image)); err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}

	open := results[1]
	if !open.Success || !open.Direct || open.Point != (mathutil.Vec3{500, 500, 0}) {
		t.Fatalf("open floor job %+v", open)
	}
	if open.Image != "WizardCity-WC_Hub/open_floor.png" {
		t.Fatalf("image name not sanitized: %q", open.Image)
	}

	crowded := results[2]
	if !crowded.Success || crowded.Direct || mathutil.Dist2D(crowded.Point, jobs[2].Position) < 60+25-1e-6 {
		t.Fatalf("crowded job must step off the actor: %+v", crowded)
	}

	missing := results[3]
	if missing.Success || missing.Kind != teleport.FailureZoneDataUnavailable.String() || missing.Image != "" {
		t.Fatalf("missing zone job %+v", missing)
	}

	path := filepath.Join(out, "manifest.json")
	if err := WriteManifest(path, results); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("manifest json: %v", err)
	}
	if m.Solved != 3 || m.Failed != 1 || len(m.Results) != 4 {
		t.Fatalf("manifest counts %d/%d", m.Solved, m.Failed)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := Run(ctx, Config{Source: zonedata.NewDir(t.TempDir()), Format: snapshot.FormatNone},
		[]Job{{Name: "a", Zone: "Any/Zone"}})
	if results[0].Success || results[0].Kind != teleport.FailureCanceled.String() {
		t.Fatalf("canceled run %+v", results[0])
	}
}

func TestLoadTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.yaml")
	src := `
body_radius: 40
actors:
  - name: Gamma
    position: [10, 20, 0]
    height: 120
    scale: 1
    body_type: CharacterBody
targets:
  - name: fountain
    zone: WizardCity/WC_Hub
    position: [0, 0, 5]
  - zone: WizardCity/WC_Hub
    position: [100, 0, 0]
    body_radius: 60
    actors: []
`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	jobs, err := LoadTargets(path)
	if err != nil {
		t.Fatalf("LoadTargets: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs", len(jobs))
	}
	if jobs[0].Name != "fountain" || jobs[0].BodyRadius != 40 || jobs[0].Position[2] != 5 {
		t.Fatalf("job 0 %+v", jobs[0])
	}
	if len(jobs[0].Actors) != 1 || jobs[0].Actors[0].BodyType != obstacle.CharacterBody || jobs[0].Actors[0].Position[1] != 20 {
		t.Fatalf("inherited actors %+v", jobs[0].Actors)
	}
	if jobs[1].Name != "target-1" || jobs[1].BodyRadius != 60 || len(jobs[1].Actors) != 0 {
		t.Fatalf("job 1 %+v", jobs[1])
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("targets:\n  - name: x\n"), 0644)
	if _, err := LoadTargets(bad); err == nil {
		t.Fatalf("target without zone accepted")
	}
}
