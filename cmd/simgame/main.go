package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"worlds-collide/internal/bridge"
	"worlds-collide/internal/config"
	"worlds-collide/internal/simgame"
	"worlds-collide/internal/zonedata"
)

func main() {
	configFile := flag.String("config", "", "Path to config.yaml file")
	dataDir := flag.String("data", "", "Zone data directory (default: auto-detect Data/GameData)")
	scenePath := flag.String("scene", "scene.yaml", "Scene file: zone, player and actors")
	addr := flag.String("addr", "127.0.0.1:8765", "Listen address")
	path := flag.String("path", "/session", "Websocket endpoint path")

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
	cfg.Resolve(config.Flags{DataDir: *dataDir})
	if cfg.DataDir == "" {
		fmt.Fprintln(os.Stderr, "Error: cannot find zone data. Use -data flag or config.yaml.")
		os.Exit(1)
	}

	scene, err := simgame.LoadScene(*scenePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dir := zonedata.NewDir(cfg.DataDir)
	logger := log.New(os.Stderr, "[simgame] ", log.LstdFlags)
	game := simgame.New(dir, scene, logger)
	srv := bridge.NewServer(game, log.New(os.Stderr, "[bridge] ", log.LstdFlags))

	mux := http.NewServeMux()
	mux.HandleFunc(*path, srv.Handler())

	logger.Printf("zones: %d indexed in %s", dir.Zones(), cfg.DataDir)
	logger.Printf("serving %s on ws://%s%s", scene.Zone, *addr, *path)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Fatalf("listen: %v", err)
	}
}
