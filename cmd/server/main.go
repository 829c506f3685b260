package main

import (
	"log"
	"os"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"marketdata_backend/internal/app/di"
	"marketdata_backend/internal/app/router"
	"marketdata_backend/internal/feature/marketdata/adapters"
	"marketdata_backend/internal/feature/marketdata/transport/handler"
	"marketdata_backend/internal/feature/marketdata/usecase"
	"marketdata_backend/internal/platform/cache"
	"marketdata_backend/internal/platform/db"
	platformredis "marketdata_backend/internal/platform/redis"
)

func main() {
	gdb, err := db.Open(db.LoadConfig())
	if err != nil {
		log.Fatal("failed to open database:", err)
	}

	engine := adapters.NewEngine(gdb)
	defer func() {
		if err := engine.Close(); err != nil {
			log.Println("[ERROR] Failed to close storage engine:", err)
		}
	}()

	if os.Getenv("RUN_MIGRATIONS") == "true" {
		if err := engine.Migrate(); err != nil {
			log.Fatal("migration failed:", err)
		}
	}

	var rdb *redisv9.Client
	if tmp, err := platformredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	cachedBars := cache.NewCachingBarRepository(rdb, 5*time.Minute, engine, "bars")

	barsUC := usecase.NewBarsUsecase(cachedBars)
	analysisUC := usecase.NewAnalysisUsecase(engine)
	symbolsUC := usecase.NewSymbolsUsecase(engine, di.NewProvider())

	barsH := handler.NewBarsHandler(barsUC)
	analysisH := handler.NewAnalysisHandler(analysisUC)
	symbolsH := handler.NewSymbolsHandler(symbolsUC)

	r := router.NewRouter(barsH, analysisH, symbolsH)

	if err := r.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}
