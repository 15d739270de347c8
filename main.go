package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/dreamcatcher-tech/recorder/pkg/fanout"
	"github.com/dreamcatcher-tech/recorder/pkg/http/rest"
	"github.com/dreamcatcher-tech/recorder/pkg/participant"
	"github.com/dreamcatcher-tech/recorder/pkg/relay"
	"github.com/dreamcatcher-tech/recorder/pkg/room"
	"github.com/dreamcatcher-tech/recorder/pkg/storage"
)

func getEnvOrFail(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("%s not set", key)
	}
	return val
}

func main() {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded | error: %v", err)
	}

	// Get env variables
	port := getEnvOrFail("APP_PORT")
	s3Bucket := getEnvOrFail("S3_BUCKET")
	s3Region := getEnvOrFail("S3_REGION")
	logLevel := os.Getenv("LOG_LEVEL")

	// Get log verbosity
	var verbosity log.Lvl
	switch strings.ToLower(logLevel) {
	case "debug":
		verbosity = log.DEBUG
	case "info":
		verbosity = log.INFO
	case "warn":
		verbosity = log.WARN
	case "error":
		fallthrough
	default:
		verbosity = log.ERROR
	}
	log.SetLevel(verbosity)
	log.SetHeader("(${short_file}:${line}) ${time_rfc3339} ${level}: ")

	// Create blob store. The bucket holds every uploaded recording
	store, err := storage.NewS3Store(storage.S3Config{
		Region:          s3Region,
		Bucket:          s3Bucket,
		Directory:       os.Getenv("S3_DIRECTORY"),
		Endpoint:        os.Getenv("S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
	})
	if err != nil {
		log.Fatal(err)
	}

	// Create Redis relay only if an address is configured; otherwise
	// the process-local relay serves a single-process deployment
	var bus relay.Relay
	redisAddress := os.Getenv("REDIS_ADDRESS")
	if redisAddress != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddress,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err = client.Ping(context.Background()).Err(); err != nil {
			log.Fatal(err)
		}
		bus = relay.NewRedis(client, os.Getenv("REDIS_CHANNEL"))
	} else {
		bus = relay.NewLocal()
	}

	// Initialise room service and start the relay consumer
	service := room.NewService(participant.NewRegistry(), bus, fanout.New())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := service.Run(ctx); err != nil {
			log.Errorf("relay consumer stopped | error: %v", err)
		}
	}()

	// Initialise controllers
	roomController := rest.NewRoomController(service)
	catalogController := rest.NewCatalogController(store, service)

	// Initialise server
	e := echo.New()

	// Attach middlewares
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "(${host}) ${time_rfc3339} ${level}: ${method} ${uri} ${status} ${error}\n",
	}))

	// Attach handlers
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Welcome to the session recorder")
	})
	e.GET("/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Attach room handlers
	e.GET("/events", roomController.StreamEvents)
	e.POST("/name-change", roomController.ChangeName)
	e.POST("/broadcast-record", roomController.BroadcastRecord)

	// Attach catalog handlers. The download route is a catch-all and
	// loses to every static route above it
	e.GET("/files", catalogController.ListFiles)
	e.POST("/upload", catalogController.Upload)
	e.GET("/:key", catalogController.Download)

	// Start server
	e.Logger.Fatal(e.Start(":" + port))
}
