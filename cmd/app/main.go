package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"fueltrack/cmd"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	configs := getConfigs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	gormDB, err := gorm.Open(postgresdriver.Open(dsn(configs)), &gorm.Config{})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	app, err := cmd.NewCompositionRoot(configs, gormDB, logger)
	if err != nil {
		log.Fatalf("Error composing application: %v", err)
	}
	defer app.Shutdown()

	if err := app.JobManager().StartAll(); err != nil {
		log.Fatalf("Error starting background jobs: %v", err)
	}

	startWebServer(app, configs.HTTPPort)
}

func getConfigs() cmd.Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Fatalf("Error loading .env file")
	}

	return cmd.Config{
		HTTPPort:   os.Getenv("HTTP_PORT"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSslMode:  os.Getenv("DB_SSLMODE"),

		AmqpURL:              os.Getenv("AMQP_URL"),
		NotificationExchange: os.Getenv("NOTIFICATION_EXCHANGE"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		StaleAfter:            envSeconds("STALE_AFTER_SECONDS", 90),
		OfferWindow:           envSeconds("OFFER_WINDOW_SECONDS", 30),
		MaxOfferRounds:        envInt("MAX_OFFER_ROUNDS", 3),
		SearchRadiusKm:        envFloat("SEARCH_RADIUS_KM", 0),
		HeartbeatTimeout:      envSeconds("HEARTBEAT_TIMEOUT_SECONDS", 45),
		DispatchRetryInterval: envSeconds("DISPATCH_RETRY_SECONDS", 5),

		ServiceAreaMinLatitude:  envFloat("SERVICE_AREA_MIN_LAT", 0),
		ServiceAreaMaxLatitude:  envFloat("SERVICE_AREA_MAX_LAT", 0),
		ServiceAreaMinLongitude: envFloat("SERVICE_AREA_MIN_LON", 0),
		ServiceAreaMaxLongitude: envFloat("SERVICE_AREA_MAX_LON", 0),
	}
}

func envSeconds(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Second
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("Error parsing %s: %v", key, err)
	}
	return value
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Fatalf("Error parsing %s: %v", key, err)
	}
	return value
}

func dsn(configs cmd.Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser,
		configs.DBPassword, configs.DBName, configs.DBSslMode)
}

func startWebServer(app *cmd.CompositionRoot, port string) {
	e := echo.New()
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/ws", app.Gateway().Handle)
	app.HTTPServer().RegisterRoutes(e)

	e.Logger.Fatal(e.Start(fmt.Sprintf("0.0.0.0:%s", port)))
}
