// Command bankctl validates question bank files and loads them into the
// database the gateway reads its pool from.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mind-engage/studyhub/internal/config"
	"github.com/mind-engage/studyhub/internal/db"
	"github.com/mind-engage/studyhub/internal/events"
	"github.com/mind-engage/studyhub/internal/exam"
	"github.com/mind-engage/studyhub/internal/questionbank"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: bankctl <validate|import> -file bank.(yaml|json|xlsx)")
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	cmd, rest := args[0], args[1:]
	if cmd != "validate" && cmd != "import" {
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		usage(stderr)
		return exitUsage
	}

	flags := flag.NewFlagSet(cmd, flag.ContinueOnError)
	flags.SetOutput(stderr)
	file := flags.String("file", "", "question bank file")
	if err := flags.Parse(rest); err != nil {
		return exitUsage
	}
	if *file == "" {
		fmt.Fprintln(stderr, "-file is required")
		return exitUsage
	}

	qs, err := questionbank.LoadFile(*file)
	if err != nil {
		fmt.Fprintf(stderr, "load: %v\n", err)
		return exitError
	}
	pool, err := exam.NewPool(qs)
	if err != nil {
		fmt.Fprintf(stderr, "invalid bank: %v\n", err)
		return exitError
	}
	if cmd == "validate" {
		fmt.Fprintf(stdout, "%s: %d questions across %d topics\n", *file, pool.Len(), len(pool.Topics()))
		return exitOK
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	conn, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		fmt.Fprintf(stderr, "db open: %v\n", err)
		return exitError
	}
	defer conn.Close()

	if err := questionbank.NewSQLSource(conn).Upsert(ctx, pool.All()); err != nil {
		fmt.Fprintf(stderr, "import: %v\n", err)
		return exitError
	}
	ev := events.Event{
		Type:      events.TypeQuestionsImported,
		Key:       *file,
		Payload:   map[string]any{"count": pool.Len(), "topics": pool.Topics()},
		CreatedAt: time.Now(),
	}
	if err := events.NewEventLog(conn, string(cfg.Mode)).Publish(ctx, ev); err != nil {
		fmt.Fprintf(stderr, "event log: %v\n", err)
	}
	fmt.Fprintf(stdout, "imported %d questions from %s\n", pool.Len(), *file)
	return exitOK
}
