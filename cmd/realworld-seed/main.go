package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/realworld-e2e/internal/common"
	"github.com/ternarybob/realworld-e2e/internal/datagen"
	"github.com/ternarybob/realworld-e2e/internal/models"
	"github.com/ternarybob/realworld-e2e/internal/services/realworld"
)

// seedTitlePrefix marks articles created by this tool so --cleanup can find them
const seedTitlePrefix = "Seed Article"

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	articleCount = flag.Int("articles", 5, "Number of articles to create")
	tagCount     = flag.Int("tags", 3, "Tags per article")
	comments     = flag.Bool("comments", true, "Add one comment to every seeded article")
	cleanup      = flag.Bool("cleanup", false, "Delete previously seeded articles instead of creating new ones")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

// Seeder creates the test user and a set of tagged articles through the API
type Seeder struct {
	client *realworld.Client
	config *common.Config
	logger arbor.ILogger
}

func NewSeeder(config *common.Config, logger arbor.ILogger) *Seeder {
	return &Seeder{
		client: realworld.NewClient(config.App.APIBaseURL,
			realworld.WithLogger(logger),
			realworld.WithRateLimit(config.API.RateLimit),
			realworld.WithUsername(config.User.Username),
		),
		config: config,
		logger: logger,
	}
}

// Authenticate logs in as the configured user, registering it on first use
func (s *Seeder) Authenticate(ctx context.Context) error {
	user, err := s.client.AuthenticateAs(ctx, models.Credentials{
		Email:    s.config.User.Email,
		Username: s.config.User.Username,
		Password: s.config.User.Password,
	})
	if err != nil {
		return fmt.Errorf("failed to authenticate test user: %w", err)
	}
	s.logger.Info().Str("username", user.Username).Msg("✓ Authenticated test user")
	return nil
}

// SeedArticles creates count articles with tagsPer random tags each
func (s *Seeder) SeedArticles(ctx context.Context, count, tagsPer int, withComments bool) error {
	s.logger.Info().Int("articles", count).Int("tags_per_article", tagsPer).Msg("Seeding articles...")

	for i := 0; i < count; i++ {
		tags, err := datagen.RandomTags(tagsPer)
		if err != nil {
			return err
		}

		article, err := s.client.CreateArticle(ctx, models.ArticleInput{
			Title:       datagen.UniqueTitle(seedTitlePrefix),
			Description: datagen.RandomDescription(),
			Body:        datagen.RandomBody(),
			TagList:     tags,
		})
		if err != nil {
			return fmt.Errorf("failed to create article %d of %d: %w", i+1, count, err)
		}

		s.logger.Info().
			Str("slug", article.Slug).
			Strs("tags", article.TagList).
			Msg("✓ Created article")

		if withComments {
			if _, err := s.client.CreateComment(ctx, article.Slug, datagen.RandomComment()); err != nil {
				return fmt.Errorf("failed to comment on %s: %w", article.Slug, err)
			}
		}
	}

	tags, err := s.client.GetTags(ctx)
	if err != nil {
		return err
	}
	s.logger.Info().Int("tags", tags.Len()).Msg("✅ Seeding complete")
	return nil
}

// Cleanup deletes the user's articles created by SeedArticles
func (s *Seeder) Cleanup(ctx context.Context) error {
	s.logger.Info().Msg("Cleaning up seeded articles...")

	const pageSize = 50
	deleted := 0
	for {
		list, err := s.client.ListArticles(ctx, models.ArticleFilter{
			Author: s.config.User.Username,
			Limit:  pageSize,
		})
		if err != nil {
			return err
		}

		removed := 0
		for _, article := range list.Articles {
			if !strings.HasPrefix(article.Title, seedTitlePrefix) {
				continue
			}
			if _, err := s.client.DeleteArticle(ctx, article.Slug); err != nil && !realworld.IsNotFound(err) {
				return fmt.Errorf("failed to delete %s: %w", article.Slug, err)
			}
			s.logger.Info().Str("slug", article.Slug).Msg("  ✓ Deleted article")
			removed++
		}
		deleted += removed

		// Only seeded articles shift the listing; stop once a page yields none
		if removed == 0 || len(list.Articles) < pageSize {
			break
		}
	}

	s.logger.Info().Int("deleted", deleted).Msg("✅ Cleanup complete!")
	return nil
}

func main() {
	defer common.RecoverWithCrashFile()
	flag.Parse()

	if len(configFiles) == 0 {
		if _, err := os.Stat("test/config/setup.toml"); err == nil {
			configFiles = append(configFiles, "test/config/setup.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.SetupLogger(config, "")
	common.PrintBanner("REALWORLD SEED", config, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	seeder := NewSeeder(config, logger)
	if err := seeder.Authenticate(ctx); err != nil {
		logger.Fatal().Err(err).Str("api_url", config.App.APIBaseURL).Msg("❌ Authentication failed - is the RealWorld API running?")
		os.Exit(1)
	}

	if *cleanup {
		err = seeder.Cleanup(ctx)
	} else {
		err = seeder.SeedArticles(ctx, *articleCount, *tagCount, *comments)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Seeding failed")
		os.Exit(1)
	}
}
