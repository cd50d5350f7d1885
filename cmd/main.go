package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Semzy1/Log-In-page-main/internal/app"
	"github.com/Semzy1/Log-In-page-main/internal/config"
	"github.com/Semzy1/Log-In-page-main/internal/gateway"
	"github.com/Semzy1/Log-In-page-main/internal/handler"
	"github.com/Semzy1/Log-In-page-main/internal/notifier"
	"github.com/Semzy1/Log-In-page-main/internal/postgres"
	"github.com/Semzy1/Log-In-page-main/internal/repo"
	"github.com/Semzy1/Log-In-page-main/internal/service"
	"github.com/Semzy1/Log-In-page-main/pkg/trm"

	"github.com/joho/godotenv"
)

// @title           Storefront Order & Payment API
// @version         1.0
// @description     Order lifecycle, payment reconciliation and gateway webhooks
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	store := repo.NewPostgresRepo(db)
	txManager := trm.NewManager(db)

	gateways := gateway.NewRegistry(
		gateway.NewPaystackAdapter(conf.Gateways.Paystack, conf.Gateways.Timeout),
		gateway.NewFlutterwaveAdapter(conf.Gateways.Flutterwave, conf.Gateways.Timeout),
		gateway.NewStripeAdapter(conf.Gateways.Stripe, conf.Gateways.Timeout),
		gateway.NewBankTransferAdapter(conf.Gateways),
	)

	orderNotifier := notifier.NewKafkaNotifier(logger, conf.Notify)

	orderService := service.NewOrderService(logger, txManager, store, store, store, orderNotifier, conf.Pricing)
	paymentService := service.NewPaymentService(logger, txManager, store, store, gateways)

	httpHandler := handler.NewHTTPHandler(logger, orderService, paymentService, conf.Auth.JWTSecret)

	app := app.New(logger, conf)
	app.SetHTTPHandlers(httpHandler)
	app.SetClosers(orderNotifier)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app.Start()
	<-ctx.Done()
	app.Stop()
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
