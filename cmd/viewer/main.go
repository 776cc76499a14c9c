package main

import (
	"fmt"
	"log"
	"time"

	"baatchit/internal"
	"baatchit/repositories"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening if the main process holds the lock
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// 3. Start Debug Server Only
	// Empty stats provider since the orchestrator isn't running here
	emptyStats := func() map[string]any {
		return map[string]any{
			"Status": "Viewer Mode (Read-Only)",
			"Time":   time.Now().Format(time.RFC822),
		}
	}

	fmt.Printf("Viewer started at http://localhost:%d/inspect\n", config.DebugPort)

	internal.StartDebugServer(db, config.DebugPort, "/inspect", MessageMapper, emptyStats)
	internal.Wait("msg:")
}

// MessageMapper decodes a stored document into an inspector row. Kept
// local so the viewer stays independent from the main binary.
func MessageMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	message, err := repositories.DecodeDocument(val)
	if err != nil {
		return row
	}

	row.Kind = "TEXT"
	detail := message.Text
	if len(message.Attachments) > 0 {
		row.Kind = "IMAGE"
		detail = message.Attachments[0].Filename
	}
	if message.IsDeleted {
		row.Kind = "DELETED"
	}
	row.Detail = fmt.Sprintf("%s -> %s: %s", message.SenderName, message.RecipientID, detail)
	return row
}
