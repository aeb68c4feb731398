// Command admin inspects and restores archived save snapshots.
//
//	admin list -data ./data -user miner_joe
//	admin show -path ./data/archives/miner_joe/save_x.json.zst
//	admin restore -db ./data/ironvale.db -path <archive> [-user-id 7]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"ironvale.gg/internal/persistence/archive"
	"ironvale.gg/internal/persistence/gamedb"
	"ironvale.gg/internal/sim/catalogs"
	"ironvale.gg/internal/sim/tuning"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "show":
			showCmd(os.Args[2:])
			return
		case "restore":
			restoreCmd(os.Args[2:])
			return
		case "list":
			listCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin list", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	user := fs.String("user", "", "account username (empty lists accounts)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "archives")
	if *user == "" {
		entries, err := os.ReadDir(base)
		if err != nil {
			fatal("read:", err)
		}
		for _, e := range entries {
			fmt.Println(e.Name())
		}
		return
	}
	paths, err := archive.List(base, *user)
	if err != nil {
		fatal("list:", err)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}

func showCmd(args []string) {
	fs := flag.NewFlagSet("admin show", flag.ExitOnError)
	path := fs.String("path", "", "archive path")
	_ = fs.Parse(args)
	if *path == "" {
		fatal("show:", fmt.Errorf("-path required"))
	}

	e, err := archive.Read(*path)
	if err != nil {
		fatal("read:", err)
	}
	out, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		fatal("encode:", err)
	}
	fmt.Println(string(out))
}

func restoreCmd(args []string) {
	fs := flag.NewFlagSet("admin restore", flag.ExitOnError)
	dbPath := fs.String("db", "./data/ironvale.db", "sqlite database path")
	configDir := fs.String("configs", "./configs", "config directory")
	path := fs.String("path", "", "archive path")
	userID := fs.Int64("user-id", 0, "target account id (default: the archive's account)")
	_ = fs.Parse(args)
	if *path == "" {
		fatal("restore:", fmt.Errorf("-path required"))
	}

	e, err := archive.Read(*path)
	if err != nil {
		fatal("read:", err)
	}
	target := e.Meta.UserID
	if *userID != 0 {
		target = *userID
	}

	tune, err := tuning.Load(filepath.Join(*configDir, "tuning.yaml"))
	if err != nil && !os.IsNotExist(err) {
		fatal("tuning:", err)
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fatal("catalogs:", err)
	}

	logger := log.New(os.Stdout, "[admin] ", log.LstdFlags)
	db, err := gamedb.Open(*dbPath, tune, cats, logger)
	if err != nil {
		fatal("open db:", err)
	}
	defer db.Close()

	if err := db.SaveProgress(context.Background(), target, e.Snapshot); err != nil {
		fatal("restore:", err)
	}
	fmt.Printf("restored %s (saved %s) into account %d\n", *path, e.Meta.SavedAt, target)
}

func fatal(prefix string, err error) {
	fmt.Fprintln(os.Stderr, prefix, err)
	os.Exit(1)
}
