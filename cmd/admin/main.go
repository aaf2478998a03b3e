package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Basit2121/OneSuite/internal/config"
	"github.com/Basit2121/OneSuite/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	var dialector gorm.Dialector
	if cfg.DatabaseURL != "" {
		dialector = postgres.Open(cfg.DatabaseURL)
	} else {
		dialector = sqlite.Open(cfg.SQLitePath)
	}
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "purge":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin purge <room_id>")
			os.Exit(1)
		}
		roomID := os.Args[2]
		removed, err := storageSvc.PurgeExpiredSignals(roomID, cfg.SignalTTL)
		if err != nil {
			log.Fatalf("Error purging signals: %v", err)
		}
		fmt.Printf("Removed %d expired signals from room %s.\n", removed, roomID)
	case "purge-all":
		removed, err := storageSvc.PurgeAllExpiredSignals(cfg.SignalTTL)
		if err != nil {
			log.Fatalf("Error purging signals: %v", err)
		}
		fmt.Printf("Removed %d expired signals.\n", removed)
	case "end":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin end <room_id>")
			os.Exit(1)
		}
		roomID := os.Args[2]
		room, err := storageSvc.EndRoom(roomID)
		if err != nil {
			log.Fatalf("Error ending room: %v", err)
		}
		fmt.Printf("Room %s ended at %s.\n", room.ID, room.EndedAt.Format(time.RFC3339))
	case "rooms":
		rooms, err := storageSvc.ListRooms("")
		if err != nil {
			log.Fatalf("Error listing rooms: %v", err)
		}
		for _, room := range rooms {
			status := "active"
			if room.Ended() {
				status = "ended"
			}
			fmt.Printf("%s  %s  current=%d peak=%d total=%d\n",
				room.ID, status, room.CurrentParticipants, room.PeakParticipants, room.TotalJoined)
		}
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}
