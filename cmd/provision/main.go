// Command provision backfills product images: every product without an
// image_url gets the first Unsplash search hit for its name or category.
// Offline tooling only; it is the one place the privileged database role and
// the image-search API key are used.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repository"
)

// Unsplash allows 50 requests/hour on demo keys; pace well under that.
const requestGap = 1200 * time.Millisecond

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.UnsplashAccessKey == "" {
		log.Fatal().Msg("UNSPLASH_ACCESS_KEY is required")
	}

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	products := repository.NewProductRepository(pool)

	missing, err := products.ListMissingImages(ctx, 1000)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list products missing images")
	}
	if len(missing) == 0 {
		log.Info().Msg("nothing to update")
		return
	}

	searcher := &unsplashClient{
		accessKey: cfg.UnsplashAccessKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}

	updated := 0
	for _, p := range missing {
		img, err := findImage(ctx, searcher, p)
		if err != nil {
			log.Warn().Err(err).Str("product", p.DisplayName()).Msg("image search failed")
			time.Sleep(requestGap)
			continue
		}
		if img == "" {
			log.Info().Str("product", p.DisplayName()).Msg("no image found")
			time.Sleep(requestGap)
			continue
		}

		if err := products.SetImageURL(ctx, p.ID, img); err != nil {
			log.Warn().Err(err).Str("product", p.DisplayName()).Msg("failed to save image url")
		} else {
			updated++
			log.Info().Str("product", p.DisplayName()).Str("image", img).Msg("updated")
		}
		time.Sleep(requestGap)
	}

	log.Info().Int("updated", updated).Int("candidates", len(missing)).Msg("done")
}

// findImage tries name+category, then name, then category.
func findImage(ctx context.Context, c *unsplashClient, p models.Product) (string, error) {
	queries := make([]string, 0, 3)
	if p.Name != "" && p.Category != "" {
		queries = append(queries, p.Name+" "+p.Category)
	}
	if p.Name != "" {
		queries = append(queries, p.Name)
	}
	if p.Category != "" {
		queries = append(queries, p.Category)
	}

	for i, q := range queries {
		img, err := c.search(ctx, q)
		if err != nil {
			return "", err
		}
		if img != "" {
			return img, nil
		}
		if i < len(queries)-1 {
			time.Sleep(requestGap)
		}
	}
	return "", nil
}

type unsplashClient struct {
	accessKey string
	client    *http.Client
}

type unsplashSearch struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
	} `json:"results"`
}

func (c *unsplashClient) search(ctx context.Context, query string) (string, error) {
	endpoint := url.URL{
		Scheme: "https",
		Host:   "api.unsplash.com",
		Path:   "/search/photos",
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", "squarish")
	params.Set("content_filter", "high")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unsplash %s", resp.Status)
	}

	var payload unsplashSearch
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if len(payload.Results) == 0 {
		return "", nil
	}

	src := payload.Results[0].URLs.Regular
	if src == "" {
		src = payload.Results[0].URLs.Small
	}
	if src == "" {
		return "", nil
	}

	img, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	q := img.Query()
	q.Set("auto", "format")
	q.Set("q", "80")
	img.RawQuery = q.Encode()

	return img.String(), nil
}
