// Package sync reconciles the local pending store with the remote board.
//
// # Overview
//
// Tasks are created on the board when it is reachable and queued in the
// local SQLite store when it is not. The syncer owns that decision (smart
// add), drains the queue into the board (upload) and searches both stores.
//
//	       Add
//	        │
//	probe ──┤ online ──► Board.CreateCard ──► card
//	        │                  │ unavailable
//	        └ offline ─────────┴──────────► db.InsertTask (pending)
//
//	Upload: pending/failed rows ──► Board.CreateCard ──► row deleted
//
// Usage
//
//	database, err := db.Open(filepath.Join(dataDir, "tasks.db"))
//	if err != nil {
//	    return err
//	}
//	defer database.Close()
//	if err := database.InitSchema(); err != nil {
//	    return err
//	}
//
//	remote := board.NewRetrying(board.NewTrello(cfg), board.RetryConfig{MaxRetries: 3})
//	syncer := sync.New(database, remote, probe.New(remote, 5*time.Second), sync.Options{
//	    DefaultListID: "5f...",
//	    BoardID:       "5e...",
//	})
//
//	res, err := syncer.Add(ctx, sync.AddRequest{Description: "Buy milk"})
//
// # Upload lifecycle
//
// Each row moves pending → uploading → uploaded → deleted. The uploading mark
// is durable before the card is created and the card description carries the
// row's sync key. If the process dies between creating the card and deleting
// the row, the next drain finds the card by its key and finishes the delete
// instead of creating a second card.
//
// A drain stops at the first ErrRemoteUnavailable and leaves the rest of the
// queue for later. A rejected task is marked failed and the drain moves on.
//
// # Concurrency
//
// A Syncer is not safe for concurrent drains. The watch daemon serializes
// them through a single goroutine.
package sync
