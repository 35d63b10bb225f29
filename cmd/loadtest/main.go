// Command loadtest drives concurrent toggleLike and follow traffic against a
// running server and checks that like parity and follow uniqueness hold.
//
// Run the target server with APP_ENV=stress so request limits do not apply.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	scenarioPath := flag.String("scenario", "cmd/loadtest/scenario.yaml", "path to the YAML scenario")
	target := flag.String("target", "", "override the scenario target base URL")
	flag.Parse()

	sc, err := LoadScenario(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load scenario: %v\n", err)
		os.Exit(2)
	}
	if *target != "" {
		sc.Target = *target
	}

	runner, err := NewRunner(sc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := runner.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load test aborted: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("toggleLike: %d requests, %d errors\n", rep.Requests, rep.Errors)
	fmt.Printf("latency p50=%s p95=%s p99=%s max=%s\n", rep.P50, rep.P95, rep.P99, rep.Max)
	fmt.Printf("final likeCount=%d\n", rep.LikeCount)
	fmt.Printf("follow race: %d succeeded, %d conflicts\n", rep.Followed, rep.Conflicts)

	if len(rep.Violations) > 0 {
		fmt.Fprintln(os.Stderr, "invariant violations:")
		for _, v := range rep.Violations {
			fmt.Fprintf(os.Stderr, "- %s\n", v)
		}
		os.Exit(1)
	}
	fmt.Println("all invariants held")
}
