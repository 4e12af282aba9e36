package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rl1809/itemstore/internal/adapter/storage"
	"github.com/rl1809/itemstore/internal/config"
	"github.com/rl1809/itemstore/internal/core/domain"
	"github.com/rl1809/itemstore/internal/core/service"
	"github.com/rl1809/itemstore/internal/port"
)

func main() {
	totalRequests := flag.Int("n", 200, "number of concurrent creates")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	stores, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer stores.Close()

	itemService := service.NewItemService(stores.Items, stores.Sequence)

	// Counters
	var failCount atomic.Int32
	ids := make(chan int64, *totalRequests)

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			item, err := itemService.Create(ctx, fmt.Sprintf("stress-%d", n), "stress test item")
			if err != nil {
				failCount.Add(1)
				return
			}
			ids <- item.ItemID
		}(i)
	}

	wg.Wait()
	close(ids)
	elapsed := time.Since(start)

	// Results
	seen := make(map[int64]bool)
	duplicates := 0
	var minID, maxID int64
	for id := range ids {
		if seen[id] {
			duplicates++
		}
		seen[id] = true
		if minID == 0 || id < minID {
			minID = id
		}
		if id > maxID {
			maxID = id
		}
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Item Store:       %s\n", cfg.ItemStore)
	fmt.Printf("Sequence Store:   %s\n", cfg.SequenceStore)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Created:          %d\n", len(seen))
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Id Range:         %d..%d\n", minID, maxID)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if duplicates == 0 && minID > 0 && failCount.Load() == 0 && len(seen) == *totalRequests {
		fmt.Printf("PASS: %d distinct positive item ids\n", len(seen))
	} else {
		fmt.Printf("FAIL: %d duplicate ids, %d failed creates, smallest id %d\n", duplicates, failCount.Load(), minID)
	}

	if reader, ok := stores.Sequence.(port.CounterReader); ok {
		counter, err := reader.Counter(ctx, domain.ItemSequence)
		if err != nil {
			fmt.Printf("FAIL: read counter: %v\n", err)
			return
		}
		fmt.Printf("Final Counter:    %d\n", counter.Value)
		if counter.Value >= maxID {
			fmt.Println("PASS: counter is at or beyond every allocated id")
		} else {
			fmt.Printf("FAIL: counter %d behind allocated id %d\n", counter.Value, maxID)
		}
	}
}
