package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/Nest-Microservices-Christian/orders-ms/configs"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/adapter/cache"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/adapter/http"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/adapter/http/middleware"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/adapter/kafka"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/adapter/queue"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/adapter/repo"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/logging"
	"github.com/Nest-Microservices-Christian/orders-ms/internal/usecase"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	log := logging.Init(cfg.App.Name, cfg.App.LogFile)
	log.Info("orders-ms: starting up")

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.PingContext(ctx)
	cancel()
	if err != nil {
		return nil, nil, err
	}

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// init rabbitmq
	conn, err := amqp.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}

	// infra
	store := repo.NewMySQLOrderStore(db)
	statusCache := cache.NewRedisCache(rdb, cfg.Cache.TTL)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	rpc := queue.NewRPCClient(ch, cfg.Rabbit.RPCTimeout)
	validator := queue.NewBusProductValidator(rpc)
	payments := queue.NewBusPaymentInitiator(rpc)
	producer, err := queue.NewOrderEventsProducer(ch)
	if err != nil {
		return nil, nil, err
	}

	uc := usecase.NewOrders(store, validator, payments,
		usecase.WithCache(statusCache),
		usecase.WithEvents(producer),
		usecase.WithCurrency(cfg.Payments.Currency),
	)

	// register bus command handlers
	if err := setupQueue(ch, cfg, uc, idem); err != nil {
		return nil, nil, err
	}

	// register kafka payment listener
	stopKafka, err := setupKafkaListener(cfg, uc)
	if err != nil {
		return nil, nil, err
	}

	// init handlers + router + middleware
	h := http.NewOrderHandler(uc)
	th := http.NewTokenHandler(cfg)
	authz := middleware.NewAuthz(cfg)
	router := http.NewRouter(h, th, authz)

	cleanup := func() {
		stopKafka()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func setupQueue(ch *amqp.Channel, cfg configs.Config, uc *usecase.Orders, idem usecase.IdempotencyStore) error {
	h := queue.NewOrderCommands(uc, idem)

	router := queue.NewRouter(ch, queue.WithPrefetch(cfg.Rabbit.Prefetch))
	router.Register(queue.CreateOrderQueue, queue.RPCHandler[usecase.CreateOrderCmd]{Ch: ch, HandleFunc: h.HandleCreate})
	router.Register(queue.FindAllQueue, queue.RPCHandler[usecase.FindAllQuery]{Ch: ch, HandleFunc: h.HandleFindAll})
	router.Register(queue.FindOneQueue, queue.RPCHandler[usecase.FindOneQuery]{Ch: ch, HandleFunc: h.HandleFindOne})
	router.Register(queue.ChangeStatusQueue, queue.RPCHandler[usecase.ChangeStatusCmd]{Ch: ch, HandleFunc: h.HandleChangeStatus})

	return router.Start()
}

func setupKafkaListener(cfg configs.Config, uc *usecase.Orders) (func(), error) {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return nil, err
	}

	h := kafka.NewPaymentSucceededHandler(uc)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.PaymentsTopic}, h.Handle)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logging.New("kafka").Error("consumer stopped", "error", err)
		}
	}()

	return func() {
		cancel()
		_ = grp.Close()
	}, nil
}
