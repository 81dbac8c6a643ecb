package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"worlds-collide/internal/bcd"
	"worlds-collide/internal/project"
	"worlds-collide/internal/shape"
	"worlds-collide/internal/zonedata"
)

func main() {
	xmlOut := flag.String("xml", "", "Write an XML export of the world to this path")
	limit := flag.Int("n", 20, "Print at most this many objects (0 = all)")
	sliceZ := flag.Float64("z", 0, "Report the projection at this height")
	slice := flag.Bool("slice", false, "Project the world at -z and print shape counts")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: inspectbcd [flags] <collision.bcd | zone.wad>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	path := flag.Arg(0)
	raw, err := zonedata.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	w, err := bcd.Decode(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d objects, %d bytes\n", filepath.Base(path), len(w.Objects), len(raw))
	counts := w.Count()
	var parts []string
	for k := bcd.KindBox; k <= bcd.KindMesh; k++ {
		if counts[k] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
		}
	}
	fmt.Printf("  Kinds: %s\n", strings.Join(parts, " "))
	if min, max, ok := w.Bounds(); ok {
		fmt.Printf("  BBox: X[%.1f, %.1f] Y[%.1f, %.1f] Z[%.1f, %.1f]\n", min[0], max[0], min[1], max[1], min[2], max[2])
	}

	for i := range w.Objects {
		if *limit > 0 && i >= *limit {
			fmt.Printf("  ... %d more\n", len(w.Objects)-i)
			break
		}
		o := &w.Objects[i]
		fmt.Printf("  [%d] %-8s %-24q cat=%s collide=%s at (%.1f, %.1f, %.1f) scale=%.2f",
			i, o.Kind, o.Name, o.Category, o.Collide, o.Location[0], o.Location[1], o.Location[2], o.Scale)
		if o.Mesh != nil {
			fmt.Printf(" verts=%d faces=%d", len(o.Mesh.Vertices), len(o.Mesh.Faces))
		} else {
			fmt.Printf(" %+v", o.Params)
		}
		fmt.Println()
	}

	if *slice {
		res := project.Project(w, *sliceZ, project.Options{})
		fmt.Printf("Slice z=%.1f: %d obstacles, %d walkable, %d filtered, %d skipped\n",
			*sliceZ, len(res.Static), len(res.Walkable), res.Filtered, res.Skipped)
		b := shape.BoundsOf(res.Walkable, res.Static)
		if !b.Empty() {
			fmt.Printf("  Area: X[%.1f, %.1f] Y[%.1f, %.1f]\n", b.Min[0], b.Max[0], b.Min[1], b.Max[1])
		}
	}

	if *xmlOut != "" {
		if err := w.SaveXML(*xmlOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("XML: %s\n", *xmlOut)
	}
}
