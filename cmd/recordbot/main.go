package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/dreamcatcher-tech/recorder/pkg/recordbot"
)

func getEnvOrFail(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("%s not set", key)
	}
	return val
}

func getEnvOrDefault(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func main() {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded | error: %v", err)
	}

	// Get env variables
	serverURL := getEnvOrFail("SERVER_URL")
	name := getEnvOrFail("BOT_NAME")
	sessionLabel := getEnvOrFail("SESSION_LABEL")
	inputFormat := getEnvOrDefault("CAPTURE_FORMAT", "pulse")
	inputDevice := getEnvOrDefault("CAPTURE_DEVICE", "default")

	// Create capturer. Checks that ffmpeg is installed
	capturer, err := recordbot.NewFFmpegCapturer(inputFormat, inputDevice)
	if err != nil {
		log.Fatal(err)
	}

	// Create bot
	bot, err := recordbot.NewBot(recordbot.Config{
		ServerURL:    serverURL,
		Name:         name,
		SessionLabel: sessionLabel,
		Capturer:     capturer,
		Hooks: &recordbot.Hooks{
			OnParticipants: func(participants map[string]string) {
				log.Infof("roster updated | participants: %v", participants)
			},
			OnFilesUpdated: func() {
				log.Infof("catalog updated")
			},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	// Listen until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Infof("joining room | server: %s, name: %s, session: %s", serverURL, name, sessionLabel)
	if err := bot.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
