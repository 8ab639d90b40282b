package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chairlift/bookings-service/config"
	"github.com/chairlift/bookings-service/internal/bootstrap"
	"github.com/chairlift/bookings-service/internal/cache"
	"github.com/chairlift/bookings-service/internal/clients"
	"github.com/chairlift/bookings-service/internal/kafka"
	"github.com/chairlift/bookings-service/internal/repository"
	"github.com/chairlift/bookings-service/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logrus.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	codeCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.CodeCacheTTLMinutes)*time.Minute)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	flightsClient := clients.NewFlightsClient(cfg.Flights)
	customersClient := clients.NewCustomersClient(cfg.Customers)

	bookingService := booking.NewBookingService(
		bookingRepo,
		flightsClient,
		customersClient,
		codeCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
	)

	if err := bootstrap.Run(ctx, cfg, bookingService); err != nil {
		logrus.Fatalf("server error: %v", err)
	}
}
