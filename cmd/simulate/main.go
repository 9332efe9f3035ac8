package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	Date          string
	Origin        string // online or offline
	PriorityRatio float64
	ReadRatio     float64
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Rejected  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, rejected bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if rejected {
		atomic.AddInt64(&om.Rejected, 1)
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
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]

	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	General  OperationMetrics
	Priority OperationMetrics
	ListDay  OperationMetrics
}

type Simulator struct {
	config  SimConfig
	client  *http.Client
	staffID uuid.UUID
	metrics Metrics
}

type bookingRequest struct {
	PatientName   string  `json:"patient_name"`
	Age           int     `json:"age"`
	Phone         string  `json:"phone"`
	City          string  `json:"city"`
	Date          string  `json:"date"`
	Category      string  `json:"category"`
	PreferredTime *string `json:"preferred_time,omitempty"`
	PaymentMethod string  `json:"payment_method"`
}

type dayResponse struct {
	Appointments []struct {
		Category     string `json:"category"`
		SerialNumber *int   `json:"serial_number"`
	} `json:"appointments"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d date=%s origin=%s priority=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.Date, cfg.Origin, cfg.PriorityRatio, cfg.ReadRatio)

	sim := &Simulator{
		config:  cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		staffID: uuid.New(),
	}

	sim.Run()
	sim.PrintReport()

	if err := sim.VerifySerials(); err != nil {
		log.Fatalf("serial verification failed: %v", err)
	}
	log.Println("serial verification passed")
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 20),
		Date:          getEnv("SIM_DATE", time.Now().AddDate(0, 0, 1).Format(time.DateOnly)),
		Origin:        getEnv("SIM_ORIGIN", "offline"),
		PriorityRatio: getFloat("SIM_PRIORITY_RATIO", 0.1),
		ReadRatio:     getFloat("SIM_READ_RATIO", 0.1),
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Origin != "online" && cfg.Origin != "offline" {
		return fmt.Errorf("SIM_ORIGIN must be online or offline")
	}
	if cfg.PriorityRatio+cfg.ReadRatio > 1 {
		return fmt.Errorf("SIM_PRIORITY_RATIO + SIM_READ_RATIO must be <= 1")
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.ReadRatio:
				s.doListDay(ctx)
			case r < s.config.ReadRatio+s.config.PriorityRatio:
				s.doBooking(ctx, "priority", &s.metrics.Priority)
			default:
				s.doBooking(ctx, "general", &s.metrics.General)
			}
		}
	}
}

func (s *Simulator) bookingPath() string {
	if s.config.Origin == "offline" {
		return "/appointments/offline"
	}
	return "/appointments"
}

func (s *Simulator) setIdentity(req *http.Request) {
	req.Header.Set("X-User-ID", s.staffID.String())
	if s.config.Origin == "offline" {
		req.Header.Set("X-User-Role", "receptionist")
	} else {
		req.Header.Set("X-User-Role", "patient")
	}
}

func (s *Simulator) doBooking(ctx context.Context, category string, om *OperationMetrics) {
	body := bookingRequest{
		PatientName:   gofakeit.Name(),
		Age:           gofakeit.Number(1, 90),
		Phone:         gofakeit.Phone(),
		City:          gofakeit.City(),
		Date:          s.config.Date,
		Category:      category,
		PaymentMethod: gofakeit.RandomString([]string{"cash", "bkash", "nagad", "card"}),
	}
	if category == "priority" {
		pref := gofakeit.RandomString([]string{"11:00", "13:00", "15:00"})
		body.PreferredTime = &pref
	}
	data, _ := json.Marshal(body)

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+s.bookingPath(), bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	s.setIdentity(req)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	rejected := false

	if err == nil {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusCreated:
			success = true
		case http.StatusForbidden, http.StatusConflict, http.StatusServiceUnavailable:
			rejected = true
		}
	} else if ctx.Err() != nil {
		return
	}

	om.Record(latency, success, rejected)
}

func (s *Simulator) doListDay(ctx context.Context) {
	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/appointments?date=%s", s.config.APIBaseURL, s.config.Date), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	} else if ctx.Err() != nil {
		return
	}

	s.metrics.ListDay.Record(latency, success, false)
}

// VerifySerials checks that the general serials for the day are exactly 1..N.
func (s *Simulator) VerifySerials() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/appointments?date=%s", s.config.APIBaseURL, s.config.Date), nil)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("list day: status %d", resp.StatusCode)
	}

	var day dayResponse
	if err := json.NewDecoder(resp.Body).Decode(&day); err != nil {
		return fmt.Errorf("decode day: %w", err)
	}

	var serials []int
	for _, a := range day.Appointments {
		if a.Category != "general" {
			continue
		}
		if a.SerialNumber == nil {
			return fmt.Errorf("general appointment without serial")
		}
		serials = append(serials, *a.SerialNumber)
	}
	sort.Ints(serials)

	for i, serial := range serials {
		if serial != i+1 {
			return fmt.Errorf("expected serial %d at position %d, got %d", i+1, i, serial)
		}
	}
	log.Printf("verified %d general serials for %s", len(serials), s.config.Date)
	return nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Date: %s (%s)\n", s.config.Date, s.config.Origin)
	fmt.Println()

	printOperationReport("General booking", &s.metrics.General)
	printOperationReport("Priority booking", &s.metrics.Priority)
	printOperationReport("List day", &s.metrics.ListDay)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	rejected := atomic.LoadInt64(&om.Rejected)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if rejected > 0 {
		fmt.Printf("  Rejected: %d (%.1f%%)\n", rejected, float64(rejected)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
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
