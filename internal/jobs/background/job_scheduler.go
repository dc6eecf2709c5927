package background

import (
	"context"
	"log"
	"sync"
	"time"

	"ddqhub/internal/caching"
	"ddqhub/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages periodic housekeeping jobs.
type JobScheduler struct {
	scheduler  gocron.Scheduler
	tenantRepo repositories.TenantRepository
	cacheSvc   caching.CacheService
	jobs       map[string]gocron.Job
	mu         sync.RWMutex
}

func NewJobScheduler(tenantRepo repositories.TenantRepository, cacheSvc caching.CacheService) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:  scheduler,
		tenantRepo: tenantRepo,
		cacheSvc:   cacheSvc,
		jobs:       make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Tenant contract expiry sweep - hourly
	contractJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.sweepExpiredContracts),
		gocron.WithName("tenant-contract-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create contract sweep job: %v", err)
	} else {
		js.jobs["contract-sweep"] = contractJob
	}

	// Cache cleanup - daily; Redis TTLs do the real work, this is a sanity log
	cacheJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.cacheHealthPass),
		gocron.WithName("cache-health"),
	)
	if err != nil {
		log.Printf("Failed to create cache health job: %v", err)
	} else {
		js.jobs["cache-health"] = cacheJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// sweepExpiredContracts marks tenants whose contract window has closed so
// their users stop authenticating against an expired org.
func (js *JobScheduler) sweepExpiredContracts() {
	ctx := context.Background()
	expired, err := js.tenantRepo.ExpireContracts(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Contract expiry sweep failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("Contract expiry sweep marked %d tenants expired", expired)
	}
}

func (js *JobScheduler) cacheHealthPass() {
	if err := js.cacheSvc.Ping(context.Background()); err != nil {
		log.Printf("Cache health pass: redis unreachable: %v", err)
		return
	}
	log.Printf("Cache health pass completed")
}

// JobStatus reports the registered jobs, for the health endpoints.
func (js *JobScheduler) JobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       names,
	}
}
