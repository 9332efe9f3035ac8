package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/hackgods/clinic-serial-booking/internal/appointment"
	"github.com/hackgods/clinic-serial-booking/internal/availability"
	"github.com/hackgods/clinic-serial-booking/internal/config"
	"github.com/hackgods/clinic-serial-booking/internal/db"
	redisclient "github.com/hackgods/clinic-serial-booking/internal/redis"
	"github.com/hackgods/clinic-serial-booking/internal/schedule"
)

var (
	cities   = []string{"Dhaka", "Chattogram", "Khulna", "Rajshahi", "Sylhet", "Barishal", "Rangpur", "Mymensingh"}
	payments = []string{"cash", "bkash", "nagad", "card"}
	reasons  = []string{"fever", "follow-up", "chest pain", "checkup", "report review", "headache"}
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	date := flag.String("date", "", "booking date (YYYY-MM-DD), defaults to tomorrow")
	count := flag.Int("count", 120, "number of bookings to create")
	priorityEvery := flag.Int("priority-every", 10, "every Nth booking is priority (0 disables)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PoolOptions())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := redisclient.NewRedisClient(ctx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer rdb.Close()

	policy := schedule.NewPolicy(cfg.Location)
	gate := availability.NewGate(availability.NewPgRepository(pool, policy), nil, policy)
	svc := appointment.NewService(
		appointment.NewPgRepository(pool, policy),
		gate,
		redisclient.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait),
		policy,
		cfg,
	)

	day := policy.Today().AddDate(0, 0, 1)
	if *date != "" {
		day, err = policy.ParseDate(*date)
		if err != nil {
			log.Fatalf("invalid -date: %v", err)
		}
	}

	if err := seedBookings(ctx, svc, schedule.DateKey(day), *count, *priorityEvery); err != nil {
		log.Fatalf("seed bookings: %v", err)
	}

	log.Println("seed complete")
}

// seedBookings goes through the staff path so seeding works at any time of
// day while still honouring availability.
func seedBookings(ctx context.Context, svc *appointment.Service, date string, count, priorityEvery int) error {
	log.Printf("seeding %d bookings for %s", count, date)

	for i := 1; i <= count; i++ {
		req := fakeRequest(date)
		if priorityEvery > 0 && i%priorityEvery == 0 {
			req.Category = appointment.CategoryPriority
			pref := gofakeit.RandomString([]string{"11:00", "12:30", "14:00", "15:30"})
			req.PreferredTime = &pref
		}

		appt, err := svc.CreateAppointment(ctx, req, appointment.OriginOffline)
		if err != nil {
			return err
		}

		if i%50 == 0 || i == count {
			slot := "-"
			if appt.ArrivalSlot != nil {
				slot = *appt.ArrivalSlot
			}
			log.Printf("bookings seeded: %d/%d last_slot=%s", i, count, slot)
		}
	}

	return nil
}

func fakeRequest(date string) appointment.CreateRequest {
	reason := gofakeit.RandomString(reasons)
	return appointment.CreateRequest{
		Patient: appointment.Patient{
			Name:  gofakeit.Name(),
			Age:   gofakeit.Number(1, 90),
			Phone: gofakeit.Phone(),
			City:  gofakeit.RandomString(cities),
		},
		Date:          date,
		Category:      appointment.CategoryGeneral,
		PaymentMethod: gofakeit.RandomString(payments),
		Reason:        &reason,
	}
}
