package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebook/clinic-booking/internal/booking"
	"github.com/carebook/clinic-booking/internal/config"
	"github.com/carebook/clinic-booking/internal/db"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	Contenders    int
	BookingRatio  float64
	ReadRatio     float64
	ProviderLimit int
	PostgresDSN   string
}

type providerInfo struct {
	ID    uuid.UUID
	Open  booking.ClockMinute
	Close booking.ClockMinute
}

type DataPool struct {
	Providers    []providerInfo
	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment() (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	idx := rand.Intn(len(dp.appointments))
	return dp.appointments[idx], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Contention OperationMetrics
	Booking    OperationMetrics
	ReadByID   OperationMetrics
	DaySlots   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d contenders=%d booking=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.Contenders, cfg.BookingRatio, cfg.ReadRatio)

	// Load providers from Postgres
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d providers", len(dataPool.Providers))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	// Phase 1: hammer a single slot, expect exactly one winner
	sim.RunContention()

	// Phase 2: mixed load over random slots
	sim.Run()

	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		Contenders:    getInt("SIM_CONTENDERS", 50),
		BookingRatio:  getFloat("SIM_BOOKING_RATIO", 0.6),
		ReadRatio:     getFloat("SIM_READ_RATIO", 0.4),
		ProviderLimit: getInt("SIM_PROVIDER_LIMIT", 100),
		PostgresDSN:   baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Contenders <= 1 {
		return fmt.Errorf("SIM_CONTENDERS must be > 1")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT id, open_minute, close_minute FROM providers LIMIT $1
	`, cfg.ProviderLimit)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p providerInfo
		if err := rows.Scan(&p.ID, &p.Open, &p.Close); err != nil {
			return nil, err
		}
		dataPool.Providers = append(dataPool.Providers, p)
	}

	if len(dataPool.Providers) == 0 {
		return nil, fmt.Errorf("no providers loaded, run the seed binary first")
	}

	return dataPool, nil
}

// RunContention fires all contenders at one provider/date/slot at once.
// The no-double-booking guarantee holds when exactly one request wins
// and the rest come back as conflicts.
func (s *Simulator) RunContention() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	prov := s.pool.Providers[rand.Intn(len(s.pool.Providers))]
	date := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	start := prov.Open.String()

	log.Printf("contention phase: %d contenders on provider=%s date=%s start=%s",
		s.config.Contenders, prov.ID, date, start)

	var wg sync.WaitGroup
	gate := make(chan struct{})
	for i := 0; i < s.config.Contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-gate
			s.doBookSlot(ctx, &s.metrics.Contention, prov.ID, date, start, n)
		}(i)
	}
	close(gate)
	wg.Wait()

	success := atomic.LoadInt64(&s.metrics.Contention.Success)
	conflict := atomic.LoadInt64(&s.metrics.Contention.Conflict)
	if success == 1 {
		log.Printf("contention result OK: 1 winner, %d conflicts", conflict)
	} else {
		log.Printf("contention result UNEXPECTED: %d winners, %d conflicts", success, conflict)
	}
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting mixed load for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("mixed load complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			if r < s.config.BookingRatio {
				s.doRandomBooking(ctx, rng)
			} else if rng.Intn(2) == 0 {
				s.doReadByID(ctx, rng)
			} else {
				s.doDaySlots(ctx, rng)
			}
		}
	}
}

func (s *Simulator) doRandomBooking(ctx context.Context, rng *rand.Rand) {
	prov := s.pool.Providers[rng.Intn(len(s.pool.Providers))]
	slots := int((prov.Close - prov.Open) / booking.SlotLength)
	if slots <= 0 {
		return
	}

	start := prov.Open + booking.ClockMinute(rng.Intn(slots))*booking.SlotLength
	date := time.Now().UTC().AddDate(0, 0, 1+rng.Intn(14)).Format("2006-01-02")

	s.doBookSlot(ctx, &s.metrics.Booking, prov.ID, date, start.String(), rng.Int())
}

func (s *Simulator) doBookSlot(ctx context.Context, om *OperationMetrics, providerID uuid.UUID, date, startTime string, n int) {
	actorID := uuid.New()

	reqBody := map[string]any{
		"provider_id":    providerID.String(),
		"date":           date,
		"start_time":     startTime,
		"patient_name":   fmt.Sprintf("Sim Patient %d", n),
		"patient_age":    20 + n%60,
		"patient_mobile": "9000000000",
		"disease":        "Fever",
	}
	body, _ := json.Marshal(reqBody)

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", actorID.String())
	req.Header.Set("X-Actor-Email", fmt.Sprintf("sim-%s@example.com", actorID))
	req.Header.Set("X-Actor-Role", "patient")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			success = true
			var apptResp struct {
				ID uuid.UUID `json:"id"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if len(bodyBytes) > 0 {
				json.Unmarshal(bodyBytes, &apptResp)
				if apptResp.ID != uuid.Nil {
					s.pool.AddAppointment(apptResp.ID)
				}
			}
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	om.Record(latency, success, conflict)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment()
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/appointments/%s", s.config.APIBaseURL, apptID.String()), nil)
	req.Header.Set("X-Actor-ID", uuid.New().String())
	req.Header.Set("X-Actor-Role", "admin")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ReadByID.Record(latency, success, false)
}

func (s *Simulator) doDaySlots(ctx context.Context, rng *rand.Rand) {
	prov := s.pool.Providers[rng.Intn(len(s.pool.Providers))]
	date := time.Now().UTC().AddDate(0, 0, 1+rng.Intn(14)).Format("2006-01-02")

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/providers/%s/slots?date=%s", s.config.APIBaseURL, prov.ID, date), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.DaySlots.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Contention (single slot)", &s.metrics.Contention)
	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("Day Slots", &s.metrics.DaySlots)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}
