package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/api"
	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/filestore"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/ratelimit"
	"github.com/rpupo63/portfolio-backend/services"
)

func main() {
	// go run . hash-password <password>
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		hashPassword(os.Args[2:])
		return
	}

	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	setupLogger(c)

	ctx := context.Background()
	if err := config.LoadSSM(ctx, c); err != nil {
		fmt.Printf("Error loading parameters from SSM: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("DB_TYPE: %s\n", config.GetString(c, "DB_TYPE", ""))
	db, err := database.Open(c)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	// If generating models, run generation and exit
	if config.GetBool(c, "GENERATE_MODELS", false) {
		fmt.Println("Generating models and query helpers...")
		models.GenerateModels(db)
		return
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
		fmt.Println("Generating column mismatch report...")
		models.GenerateColumnMismatchReportStandalone(db)
		return
	}

	if config.GetBool(c, "AUTO_MIGRATE", false) {
		if err := database.Migrate(db); err != nil {
			fmt.Printf("Error migrating database: %v\n", err)
			os.Exit(1)
		}
	}

	currentDB := database.New(db)

	opts, err := serverOptions(ctx, c)
	if err != nil {
		fmt.Printf("Error initializing server: %v\n", err)
		os.Exit(1)
	}

	// one slot per sender so neither blocks after the first error is read
	errChannel := make(chan error, 2)

	server, err := api.NewServer(currentDB, c, opts...)
	if err != nil {
		fmt.Printf("Error initializing server: %v\n", err)
		os.Exit(1)
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// serverOptions builds the optional collaborators. Each one that is not
// configured only disables the routes depending on it.
func serverOptions(ctx context.Context, c map[string]string) ([]api.Option, error) {
	var opts []api.Option

	authenticator, err := auth.NewFromConfig(c)
	if err != nil {
		log.Warn().Err(err).Msg("Admin login disabled")
	} else {
		opts = append(opts, api.WithAuthenticator(authenticator))
	}

	rdb, err := ratelimit.NewRedisClient(c)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	if rdb != nil {
		window := time.Duration(config.GetInt(c, "CONTACT_RATE_WINDOW_SECONDS", 3600)) * time.Second
		contact := ratelimit.New(rdb, "contact", config.GetInt(c, "CONTACT_RATE_LIMIT", 5), window)
		login := ratelimit.New(rdb, "login", config.GetInt(c, "LOGIN_RATE_LIMIT", 10), 15*time.Minute)
		opts = append(opts, api.WithRateLimiters(contact, login))
	} else {
		log.Warn().Msg("REDIS_URL not set, rate limiting disabled")
	}

	store, err := filestore.NewFromConfig(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	if store == nil {
		log.Warn().Msg("S3_BUCKET not set, presigned uploads disabled")
	}
	opts = append(opts, api.WithFileStore(store))
	opts = append(opts, api.WithNotifier(services.NewNotifierFromConfig(c)))

	return opts, nil
}

func setupLogger(c map[string]string) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString(c, "LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.GetBool(c, "LOG_PRETTY", false) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func hashPassword(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: hash-password <password>")
		os.Exit(2)
	}
	hash, err := auth.HashPassword(args[0])
	if err != nil {
		fmt.Printf("Error hashing password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
