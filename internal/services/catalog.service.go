package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"encore/config"
	"encore/internal/database"
	"encore/internal/logger"
)

const (
	CATALOG_CACHE_PREFIX = "catalog_track"
	CATALOG_CACHE_EXPIRY = 7 * 24 * time.Hour
	catalogDefaultURL    = "https://itunes.apple.com"
)

// TrackMetadata is what the external song catalog knows about a track. The
// engine treats the catalog as a pure lookup and never writes back.
type TrackMetadata struct {
	CatalogRef string `json:"catalogRef"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	ArtworkURL string `json:"artworkUrl"`
	DurationMs int    `json:"durationMs"`
}

// CatalogService looks up track metadata by catalog reference (the iTunes
// track ID). Responses are cached since catalog entries are effectively
// immutable.
type CatalogService struct {
	client  *http.Client
	baseURL string
	cache   database.CacheClient
	log     logger.Logger
}

func NewCatalogService(config config.Config, cache database.CacheClient) *CatalogService {
	baseURL := config.CatalogBaseURL
	if baseURL == "" {
		baseURL = catalogDefaultURL
	}

	return &CatalogService{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		cache:   cache,
		log:     logger.New("CatalogService"),
	}
}

type catalogLookupResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		TrackID        int64  `json:"trackId"`
		ArtistName     string `json:"artistName"`
		TrackName      string `json:"trackName"`
		CollectionName string `json:"collectionName"`
		ArtworkURL100  string `json:"artworkUrl100"`
		TrackTimeMs    int    `json:"trackTimeMillis"`
	} `json:"results"`
}

// Lookup resolves a catalog reference to track metadata.
func (s *CatalogService) Lookup(ctx context.Context, catalogRef string) (*TrackMetadata, error) {
	log := s.log.Function("Lookup")

	if catalogRef == "" {
		return nil, log.Error("catalog reference is required")
	}

	var cached TrackMetadata
	found, err := database.NewCacheBuilder(s.cache, catalogRef).
		WithContext(ctx).
		WithHash(CATALOG_CACHE_PREFIX).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get track from cache", "catalogRef", catalogRef, "error", err)
	}
	if found {
		return &cached, nil
	}

	lookupURL := fmt.Sprintf("%s/lookup?%s", s.baseURL, url.Values{
		"id":     []string{catalogRef},
		"entity": []string{"song"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, log.Err("failed to build catalog request", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, log.Err("catalog lookup failed", err, "catalogRef", catalogRef)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, log.Error("catalog lookup returned non-OK status",
			"status", resp.StatusCode, "catalogRef", catalogRef)
	}

	var result catalogLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, log.Err("failed to decode catalog response", err)
	}

	if result.ResultCount == 0 || len(result.Results) == 0 {
		return nil, log.Error("track not found in catalog", "catalogRef", catalogRef)
	}

	item := result.Results[0]
	metadata := &TrackMetadata{
		CatalogRef: strconv.FormatInt(item.TrackID, 10),
		Title:      item.TrackName,
		Artist:     item.ArtistName,
		Album:      item.CollectionName,
		ArtworkURL: item.ArtworkURL100,
		DurationMs: item.TrackTimeMs,
	}

	err = database.NewCacheBuilder(s.cache, catalogRef).
		WithContext(ctx).
		WithHash(CATALOG_CACHE_PREFIX).
		WithStruct(metadata).
		WithTTL(CATALOG_CACHE_EXPIRY).
		Set()
	if err != nil {
		log.Warn("failed to cache track metadata", "catalogRef", catalogRef, "error", err)
	}

	return metadata, nil
}
