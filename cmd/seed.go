package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Soniya561/LAVAPUNK/internal/catalog"
	"github.com/Soniya561/LAVAPUNK/internal/db"
	"github.com/Soniya561/LAVAPUNK/internal/logger"
	"github.com/Soniya561/LAVAPUNK/internal/opportunity"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load an opportunity catalog snapshot into the database",
	Run: func(cmd *cobra.Command, _ []string) {
		seed(cmd)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringP("file", "f", "", "json file with opportunity records to load")
	seedCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before inserting")
	seedCmd.MarkFlagRequired("file")
}

// seedRecord mirrors the catalog snapshot format: the same shape the publish
// endpoint accepts, with the deadline as an RFC3339 timestamp.
type seedRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Deadline    string `json:"deadline"`
	Eligibility string `json:"eligibility"`
	Link        string `json:"link"`
	Source      string `json:"source"`
	Degree      string `json:"degree"`
	Field       string `json:"fieldOfInterest"`
}

func seed(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config.Database.URL == "" {
		logger.Fatal("database url is required",
			zap.String("hint", "set DATABASE_URL or the database.url key in the configuration file"),
		)
	}

	path := cmd.Flag("file").Value.String()
	records, err := loadSeedFile(path)
	if err != nil {
		logger.Fatal("loading seed file", zap.Error(err))
	}

	opportunities, skipped := parseSeedRecords(logger, records)
	if len(opportunities) == 0 {
		logger.Info("exiting", zap.String("reason", "no valid opportunities in seed file"))
		return
	}

	logger.Info("parsed seed file",
		zap.String("file", path),
		zap.Int("valid", len(opportunities)),
		zap.Int("skipped", skipped),
	)

	if cmd.Flag("auto-approve").Value.String() == "false" {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Insert %d opportunities into the catalog?", len(opportunities)),
			Items: []string{PromptYes, PromptNo},
		}
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	pool, err := db.NewPostgresPool(ctx, config.Database.URL)
	if err != nil {
		logger.Fatal("connecting postgres", zap.Error(err))
	}
	defer pool.Close()

	store := catalog.NewStore(pool)
	if err := store.Init(ctx); err != nil {
		logger.Fatal("initializing catalog schema", zap.Error(err))
	}

	var inserted, duplicates int
	for _, o := range opportunities {
		switch err := store.Insert(ctx, o); {
		case errors.Is(err, catalog.ErrDuplicate):
			duplicates++
		case err != nil:
			logger.Fatal("inserting opportunity", zap.String("opportunity_id", o.ID), zap.Error(err))
		default:
			inserted++
		}
	}

	logger.Info("seeding completed",
		zap.Int("inserted", inserted),
		zap.Int("duplicates", duplicates),
		zap.Int("skipped", skipped),
	)
}

func loadSeedFile(path string) ([]seedRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []seedRecord
	if err := json.NewDecoder(file).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return records, nil
}

// parseSeedRecords normalizes raw records, logging and skipping the ones that
// do not parse. Untrusted sources are kept: the eligibility filter handles
// them at read time.
func parseSeedRecords(logger *zap.Logger, records []seedRecord) ([]*opportunity.Opportunity, int) {
	opportunities := make([]*opportunity.Opportunity, 0, len(records))
	skipped := 0

	for _, rec := range records {
		o := &opportunity.Opportunity{
			ID:          rec.ID,
			Title:       rec.Title,
			Eligibility: rec.Eligibility,
			Link:        rec.Link,
			Source:      rec.Source,
		}

		var err error
		if o.Type, err = opportunity.ParseType(rec.Type); err == nil {
			if o.Deadline, err = time.Parse(time.RFC3339, rec.Deadline); err != nil {
				err = fmt.Errorf("deadline: %w", err)
			}
		}
		if err == nil {
			if o.Degree, err = opportunity.ParseDegree(rec.Degree); err == nil {
				o.Field, err = opportunity.ParseField(rec.Field)
			}
		}

		if err != nil || o.ID == "" {
			logger.Warn("skipping seed record",
				zap.String("opportunity_id", rec.ID),
				zap.Error(err),
			)
			skipped++
			continue
		}
		opportunities = append(opportunities, o)
	}
	return opportunities, skipped
}
