package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"time"

	"baatchit/imaging"
	"baatchit/projection"
	"baatchit/repositories"
	"baatchit/runtime"
	"baatchit/runtime/workers"
	"baatchit/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

// Seeds a local store with demo accounts and conversations, so the
// viewer and the inspector have something to show.
func main() {
	_ = godotenv.Load()
	dbPath := flag.String("db", "./badger", "Path to badger DB")
	flag.Parse()

	logger := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	messages := repositories.NewMessageRepository(db, logger)
	users := repositories.NewUserRepository(db)
	directory := services.NewDirectory(users, nil, logger)

	registry := runtime.NewRegistry()
	supervisor := workers.NewSupervisor(logger, time.Second)
	orchestrator := runtime.NewOrchestrator(logger, supervisor, registry, 64, time.Second, time.Minute)
	hub := projection.NewContactHub(messages, directory, nil, logger)
	orchestrator.Add(hub)

	codec := imaging.NewCodec(imaging.DefaultMaxWidth, imaging.DefaultMaxHeight, imaging.DefaultQuality, logger)
	chat := services.NewChatService(messages, directory, codec, orchestrator, hub, logger)
	auth := services.NewAuthService(users, directory, time.Hour)

	fmt.Println("Seeding demo accounts...")
	accounts := []struct{ email, name string }{
		{"alice@demo.test", "Alice"},
		{"bob@demo.test", "Bob"},
		{"clara@demo.test", "Clara"},
	}
	for _, account := range accounts {
		if _, err := auth.Register(account.email, "demo-pass", account.name); err != nil {
			fmt.Printf("  %s skipped: %v\n", account.email, err)
		}
	}
	if err := directory.Refresh(); err != nil {
		log.Fatalf("Directory load failed: %v", err)
	}

	byEmail := map[string]services.SendCommand{}
	for _, user := range directory.Users() {
		byEmail[user.Email] = services.SendCommand{
			SenderID:          user.UID,
			SenderEmail:       user.Email,
			SenderDisplayName: user.DisplayName,
		}
	}

	send := func(fromEmail, toEmail, text string, images []services.Upload) {
		cmd := byEmail[fromEmail]
		to, _ := directory.Resolve("", toEmail)
		cmd.RecipientID = to.UID
		cmd.RecipientEmail = to.Email
		cmd.Text = text
		cmd.Images = images
		if _, err := chat.Send(context.Background(), cmd); err != nil {
			fmt.Printf("  send failed: %v\n", err)
		}
	}

	fmt.Println("Seeding conversations...")
	send("alice@demo.test", "bob@demo.test", "Hey Bob, how was the trip?", nil)
	send("bob@demo.test", "alice@demo.test", "Great! Sending pics", nil)
	send("bob@demo.test", "alice@demo.test", "", []services.Upload{
		{Data: demoPNG(640, 480), Filename: "beach.png"},
		{Data: demoPNG(1920, 1080), Filename: "sunset.png"},
	})
	send("clara@demo.test", "alice@demo.test", "Lunch tomorrow?", nil)

	fmt.Println("Done.")
}

// demoPNG renders a striped placeholder picture.
func demoPNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 255), G: uint8(y % 255), B: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
