package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"wecount/internal/services"
)

func main() {
	token := flag.String("token", "", "Expo push token (ExponentPushToken[...])")
	title := flag.String("title", "Test notification", "Notification title")
	msg := flag.String("msg", "Test message from ExpoService", "Message body")
	flag.Parse()

	if *token == "" {
		log.Fatal("Please provide a push token using -token flag")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found")
	}

	service := services.NewExpoService()

	log.Printf("Sending push to %s: %s", *token, *msg)

	if err := service.SendPush(*token, *title, *msg, nil); err != nil {
		log.Fatalf("Failed to send push: %v", err)
	}

	log.Println("Push sent successfully!")
}
