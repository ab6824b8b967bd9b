// Package seed は開発・デモ用の初期データ投入を提供する。
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/newsdeck/internal/model"
	"github.com/hitoshi/newsdeck/internal/repository"
)

// defaultCategories は初期投入するカテゴリ名。
var defaultCategories = []string{
	"Sports",
	"Education",
	"World",
	"Technology",
	"Health",
	"Business",
}

// sampleArticle は初期投入する記事の定義。
type sampleArticle struct {
	title      string
	content    string
	imageURL   string
	category   string
	authorName string
	isBreaking bool
}

var sampleArticles = []sampleArticle{
	{
		title:      "Global Markets Rally as Tech Stocks Surge",
		content:    "<p>Stock markets around the world posted strong gains today, led by a surge in technology shares. Analysts point to better-than-expected earnings and renewed investor confidence.</p><p>The rally extended across Asian and European exchanges before carrying into the US session.</p>",
		imageURL:   "https://picsum.photos/seed/markets/800/400",
		category:   "Business",
		authorName: "Aiko Tanaka",
		isBreaking: true,
	},
	{
		title:      "Breakthrough in Battery Technology Promises Longer EV Range",
		content:    "<p>Researchers have unveiled a new solid-state battery design that could extend electric vehicle range by up to 40 percent.</p><p>The team expects pilot production to begin within two years.</p>",
		imageURL:   "https://picsum.photos/seed/battery/800/400",
		category:   "Technology",
		authorName: "Kenji Mori",
		isBreaking: true,
	},
	{
		title:      "National Team Clinches Dramatic Victory in Final Minutes",
		content:    "<p>A stoppage-time goal sealed a dramatic comeback victory for the national team last night, sending fans into celebration across the country.</p>",
		imageURL:   "https://picsum.photos/seed/football/800/400",
		category:   "Sports",
		authorName: "Yuki Sato",
		isBreaking: false,
	},
	{
		title:      "Universities Expand Online Degree Programs",
		content:    "<p>Leading universities announced a major expansion of accredited online degree programs, aiming to reach students in remote regions.</p>",
		imageURL:   "https://picsum.photos/seed/education/800/400",
		category:   "Education",
		authorName: "Mana Kobayashi",
		isBreaking: false,
	},
	{
		title:      "New Dietary Guidelines Emphasize Whole Foods",
		content:    "<p>Health authorities published updated dietary guidelines today, placing a stronger emphasis on whole foods and reduced sugar intake.</p>",
		imageURL:   "https://picsum.photos/seed/health/800/400",
		category:   "Health",
		authorName: "Dr. Haruto Nakamura",
		isBreaking: false,
	},
	{
		title:      "Summit Concludes with Joint Climate Declaration",
		content:    "<p>Delegates from over 40 countries concluded the summit with a joint declaration on climate cooperation, setting new emission targets for the next decade.</p>",
		imageURL:   "https://picsum.photos/seed/summit/800/400",
		category:   "World",
		authorName: "Elena Petrova",
		isBreaking: false,
	},
}

// Seeder は初期データの投入を行う。
// 既にデータが存在する場合は何もしない（冪等）。
type Seeder struct {
	articleRepo  repository.ArticleRepository
	categoryRepo repository.CategoryRepository
}

// NewSeeder はSeederを生成する。
func NewSeeder(articleRepo repository.ArticleRepository, categoryRepo repository.CategoryRepository) *Seeder {
	return &Seeder{
		articleRepo:  articleRepo,
		categoryRepo: categoryRepo,
	}
}

// Run はカテゴリと記事の初期データを投入する。
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.seedCategories(ctx); err != nil {
		return err
	}
	return s.seedArticles(ctx)
}

// seedCategories はカテゴリが1件も存在しない場合にデフォルトカテゴリを投入する。
func (s *Seeder) seedCategories(ctx context.Context) error {
	existing, err := s.categoryRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("categories already exist, skipping seed",
			slog.Int("count", len(existing)),
		)
		return nil
	}

	now := time.Now()
	for _, name := range defaultCategories {
		category := &model.Category{
			ID:        uuid.New().String(),
			Name:      name,
			CreatedAt: now,
		}
		if err := s.categoryRepo.Create(ctx, category); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", name, err)
		}
	}

	slog.Info("seeded default categories",
		slog.Int("count", len(defaultCategories)),
	)
	return nil
}

// seedArticles は記事が1件も存在しない場合にサンプル記事を投入する。
func (s *Seeder) seedArticles(ctx context.Context) error {
	existing, err := s.articleRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list articles: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("articles already exist, skipping seed",
			slog.Int("count", len(existing)),
		)
		return nil
	}

	now := time.Now()
	for i, sample := range sampleArticles {
		article := &model.Article{
			ID:         uuid.New().String(),
			Title:      sample.title,
			Content:    sample.content,
			ImageURL:   sample.imageURL,
			Category:   sample.category,
			AuthorName: sample.authorName,
			IsBreaking: sample.isBreaking,
			// 一覧がcreated_at降順で安定するよう、定義順に時刻をずらす
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
			UpdatedAt: now.Add(-time.Duration(i) * time.Minute),
		}
		if err := s.articleRepo.Create(ctx, article); err != nil {
			return fmt.Errorf("failed to seed article %q: %w", sample.title, err)
		}
	}

	slog.Info("seeded sample articles",
		slog.Int("count", len(sampleArticles)),
	)
	return nil
}
