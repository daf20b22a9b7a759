package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pos/internal/config"
	"pos/internal/handler"
	"pos/internal/infra/db"
	"pos/internal/infra/queue"
	infraRepo "pos/internal/infra/repository"
	"pos/internal/logging"
	"pos/internal/server"
	"pos/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", os.Getenv("POS_CONFIG_FILE"), "path to YAML config (optional)")
	flag.Parse()

	//.envは無くてもよい
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logging.Init("pos-api", cfg.App.LogFile, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	//DB接続
	gormDB, err := db.Connect(ctx, cfg.Database, logging.New("db"))
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//イベント送信（URL未設定なら何もしない）
	var events usecase.OrderEventPublisher = usecase.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		pub, err := queue.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn("failed to close rabbitmq publisher", "error", err)
			}
		}()
		events = pub
		log.Info("order events enabled", "exchange", cfg.RabbitMQ.Exchange)
	}

	//Usecase生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	loc := cfg.Location()

	orderUC := usecase.NewOrderUsecase(txm, usecase.OrderOptions{
		Location:                loc,
		AllowNegativeSettlement: cfg.Orders.AllowNegativeSettlement,
		Events:                  events,
		Logger:                  logging.New("orders"),
	})
	promoUC := usecase.NewPromotionUsecase(txm, nil, loc)
	invUC := usecase.NewInventoryUsecase(txm, nil, cfg.Inventory.LowStockThreshold, logging.New("inventory"))

	//Handler生成
	e := server.New(log, server.Handlers{
		Orders:     handler.NewOrderHandler(orderUC),
		Promotions: handler.NewPromotionHandler(promoUC),
		Inventory:  handler.NewInventoryHandler(invUC),
	})

	return server.Start(ctx, e, cfg.Addr(), log)
}
