package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/hawkly/errwatch/internal/core/config"
	"github.com/hawkly/errwatch/internal/infra/spill"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()

	var store spill.Store
	switch cfg.Spill.Mode {
	case config.SpillModeRedis:
		rs, err := spill.NewRedisStore(cfg.Spill.Redis)
		if err != nil {
			panic(err)
		}
		defer rs.Close()
		store = rs
	case config.SpillModeFile:
		store = spill.NewFileStore(cfg.Spill.Path)
	default:
		fmt.Println("No spill store configured, nothing to purge")
		return
	}

	reports, err := store.Load(ctx)
	if err != nil {
		panic(err)
	}
	if err := store.Clear(ctx); err != nil {
		panic(err)
	}

	fmt.Printf("Purged %d spilled reports from %s store\n", len(reports), cfg.Spill.Mode)
}
