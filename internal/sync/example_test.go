package sync_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/tasklist-cli/tasklist/internal/board"
	"github.com/tasklist-cli/tasklist/internal/db"
	"github.com/tasklist-cli/tasklist/internal/probe"
	"github.com/tasklist-cli/tasklist/internal/sync"
)

// This example queues a task while the board is down and uploads it once
// the board is back.
func ExampleNew() {
	dir, err := os.MkdirTemp("", "tasklist-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	database, err := db.Open(filepath.Join(dir, "tasks.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()
	if err := database.InitSchema(); err != nil {
		log.Fatal(err)
	}

	remote := board.NewFake("board", &board.List{ID: "todo", Name: "To Do"})
	syncer := sync.New(database, remote, probe.New(remote, time.Second), sync.Options{
		DefaultListID: "todo",
		BoardID:       "board",
		Logger:        log.New(io.Discard, "", 0),
	})
	ctx := context.Background()

	remote.SetOffline(true)
	res, err := syncer.Add(ctx, sync.AddRequest{Description: "Buy milk", Priority: 2})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Origin, res.Fallback)

	remote.SetOffline(false)
	drain, err := syncer.Upload(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(drain.Succeeded), "uploaded,", len(drain.Remaining), "remaining")

	// Output:
	// local board unreachable
	// 1 uploaded, 0 remaining
}
