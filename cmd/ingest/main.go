package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"marketdata_backend/internal/app/di"
	"marketdata_backend/internal/feature/marketdata/adapters"
	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/usecase"
	"marketdata_backend/internal/platform/db"
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

	if err := engine.Migrate(); err != nil {
		log.Fatal("migration failed:", err)
	}

	prov := di.NewProvider()
	rl := di.NewProviderRateLimiter(prov)
	ingestor := usecase.NewIngestor(prov, engine, rl, adapters.DefaultBatchSize)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	symbols, err := engine.ListSymbols(ctx, "", "", true)
	if err != nil {
		log.Fatal("failed to load symbols:", err)
	}
	if len(symbols) == 0 {
		log.Println("no active symbols registered, nothing to do")
		return
	}

	workers := 4
	if raw := os.Getenv("INGEST_WORKERS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			workers = n
		}
	}

	timeframes := []entity.Timeframe{entity.Timeframe1D, entity.Timeframe1W, entity.Timeframe1Mo}
	if err := ingestor.IngestAll(ctx, symbols, timeframes, workers); err != nil {
		log.Fatal(err)
	}
	log.Println("ingest ok")
}
