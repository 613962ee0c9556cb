package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/noah-isme/edu-center-api/pkg/client"
)

type target struct {
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target   target
	First    int
	Second   int
	Match    bool
	Error    error
	Duration time.Duration
}

func main() {
	var (
		base        string
		token       string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&token, "token", os.Getenv("LISTCHECK_TOKEN"), "Bearer access token")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "listcheck", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "Per-request timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	api := client.New(base, client.WithBearer(token))
	var (
		comparisons []comparison
		breaking    int
		optional    int
	)
	for _, t := range targets {
		comp := reloadTwice(api, t, timeout)
		if comp.Error != nil || !comp.Match {
			if t.Critical {
				breaking++
			} else {
				optional++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

// reloadTwice fetches the same list back to back. Without intervening
// mutations both loads must decode to the same rows in the same order.
func reloadTwice(api *client.Client, tgt target, timeout time.Duration) comparison {
	comp := comparison{Target: tgt}
	start := time.Now()

	first, err := load(api, tgt.Path, timeout)
	if err != nil {
		comp.Error = fmt.Errorf("first load: %w", err)
		return comp
	}
	second, err := load(api, tgt.Path, timeout)
	if err != nil {
		comp.Error = fmt.Errorf("second load: %w", err)
		return comp
	}

	comp.Duration = time.Since(start)
	comp.First = len(first)
	comp.Second = len(second)
	comp.Match = reflect.DeepEqual(first, second)
	return comp
}

func load(api *client.Client, path string, timeout time.Duration) ([]map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	var rows []map[string]interface{}
	if err := api.List(ctx, path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func printReport(results []comparison) {
	fmt.Println("List Reload Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.Match {
			status = "DIFF"
		}
		fmt.Printf("[%s] GET %s\n", status, res.Target.Path)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			if client.IsKind(res.Error, client.KindTransport) {
				fmt.Println("  Hint: check the base URL and that the token has not expired")
			}
			continue
		}
		fmt.Printf("  Rows: %d then %d (%s) | Critical: %t\n", res.First, res.Second, res.Duration, res.Target.Critical)
	}
}
