package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/yesglobal/registration/api/internal/config"
	mongodoc "github.com/yesglobal/registration/api/internal/infrastructure/mongo"
	"github.com/yesglobal/registration/api/internal/logger"
	"github.com/yesglobal/registration/api/internal/registration/application"
	"github.com/yesglobal/registration/api/internal/registration/domain"
)

type seedOptions struct {
	count           int
	dropCollections bool
	randomSeed      int64
}

var (
	firstNames = []string{"Ama", "Kwame", "Wanjiru", "Chidi", "Fatou", "Lerato", "Youssef", "Maria", "Arjun", "Sofia"}
	surnames   = []string{"Owusu", "Mensah", "Kamau", "Okafor", "Diallo", "Nkosi", "Benali", "Silva", "Patel", "Rossi"}
	countries  = []string{"Ghana", "Kenya", "Nigeria", "Senegal", "South Africa", "Morocco", "Brazil", "India", "Italy", "Canada"}
	previous   = []string{"BSc. Computer Science", "BA Economics", "BEng Civil Engineering", "BSc. Nursing", "HND Accounting"}
	intended   = []string{"MSc. Mathematics", "MBA", "MSc. Data Science", "MPH Public Health", "LLM International Law"}
)

func main() {
	opts := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		zl.Fatal("connect mongodb", zap.Error(err))
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(cfg.MongoDatabase)

	if opts.dropCollections {
		for _, name := range []string{cfg.ApplicationCollection, cfg.FailedNotificationCollection} {
			if err := db.Collection(name).Drop(ctx); err != nil {
				zl.Warn("drop collection", zap.String("collection", name), zap.Error(err))
			}
		}
	}

	if err := mongodoc.EnsureIndexes(ctx, db, cfg.ApplicationCollection, cfg.FailedNotificationCollection); err != nil {
		zl.Fatal("ensure indexes", zap.Error(err))
	}

	repo := mongodoc.NewApplicationRepository(db, cfg.ApplicationCollection, cfg.WriteTimeout)
	submissions := application.NewSubmissionService(repo, cfg.FeeSchedule(), zl)

	rng := rand.New(rand.NewSource(opts.randomSeed))
	discounted := 0
	for i := 0; i < opts.count; i++ {
		record, err := submissions.Submit(ctx, randomDraft(rng), nil)
		if err != nil {
			zl.Fatal("seed application", zap.Int("index", i), zap.Error(err))
		}
		if record.IsDiscounted {
			discounted++
		}
	}

	zl.Info("seed complete",
		zap.Int("applications", opts.count),
		zap.Int("discounted", discounted),
		zap.String("database", cfg.MongoDatabase),
		zap.Int64("seed", opts.randomSeed),
	)
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.IntVar(&opts.count, "count", 25, "number of applications to insert")
	flag.BoolVar(&opts.dropCollections, "drop", false, "drop existing collections first")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "random seed for reproducible data")
	flag.Parse()

	if opts.count <= 0 {
		log.Fatal("count must be at least 1")
	}
	return opts
}

func randomDraft(rng *rand.Rand) domain.Draft {
	option := domain.PaymentAdmission
	if rng.Intn(2) == 1 {
		option = domain.PaymentBoth
	}
	first := pick(rng, firstNames)
	last := pick(rng, surnames)
	return domain.Draft{
		FirstName:       first,
		Surname:         last,
		Phone:           fmt.Sprintf("+%d%09d", 200+rng.Intn(60), rng.Intn(1_000_000_000)),
		Country:         pick(rng, countries),
		PreviousProgram: pick(rng, previous),
		IntendedProgram: pick(rng, intended),
		PaymentOption:   option,
		Agreed:          true,
	}
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
