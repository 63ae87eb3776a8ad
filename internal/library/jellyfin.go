package library

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ticksPerSecond converts the server's 100ns runtime ticks into seconds.
const ticksPerSecond = 10_000_000

// HTTPDoer describes the HTTP client used by the Jellyfin index.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// JellyfinIndex implements Index against a Jellyfin-compatible server.
type JellyfinIndex struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewJellyfinIndex constructs an index client for the given server.
func NewJellyfinIndex(baseURL, apiKey string, client HTTPDoer) *JellyfinIndex {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &JellyfinIndex{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

type virtualFolder struct {
	Name   string `json:"Name"`
	ItemID string `json:"ItemId"`
}

type itemsResponse struct {
	Items []jellyfinItem `json:"Items"`
}

type jellyfinItem struct {
	ID               string `json:"Id"`
	Name             string `json:"Name"`
	Path             string `json:"Path"`
	Type             string `json:"Type"`
	LocationType     string `json:"LocationType"`
	SeriesName       string `json:"SeriesName"`
	SeasonID         string `json:"SeasonId"`
	ParentIndexNumber *int  `json:"ParentIndexNumber"`
	IndexNumber       *int  `json:"IndexNumber"`
	RunTimeTicks      *int64 `json:"RunTimeTicks"`
}

func (j *JellyfinIndex) Libraries(ctx context.Context) ([]Library, error) {
	var folders []virtualFolder
	if err := j.get(ctx, "/Library/VirtualFolders", nil, &folders); err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	libraries := make([]Library, 0, len(folders))
	for _, folder := range folders {
		libraries = append(libraries, Library{ID: folder.ItemID, Name: folder.Name})
	}
	return libraries, nil
}

func (j *JellyfinIndex) Items(ctx context.Context, libraryID string, kinds []Kind) ([]Item, error) {
	kindNames := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		kindNames = append(kindNames, string(kind))
	}
	query := url.Values{
		"ParentId":         {libraryID},
		"IncludeItemTypes": {strings.Join(kindNames, ",")},
		"Recursive":        {"true"},
		"Fields":           {"Path"},
		// Ordered so progress logging reads naturally; correctness does not
		// depend on it.
		"SortBy": {"SeriesSortName,ParentIndexNumber,IndexNumber"},
	}

	var resp itemsResponse
	if err := j.get(ctx, "/Items", query, &resp); err != nil {
		return nil, fmt.Errorf("query library %s: %w", libraryID, err)
	}

	items := make([]Item, 0, len(resp.Items))
	for _, raw := range resp.Items {
		item, ok := convertItem(raw)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (j *JellyfinIndex) ItemPath(ctx context.Context, itemID uuid.UUID) (string, error) {
	query := url.Values{
		"Ids":    {itemID.String()},
		"Fields": {"Path"},
	}
	var resp itemsResponse
	if err := j.get(ctx, "/Items", query, &resp); err != nil {
		return "", fmt.Errorf("resolve item %s: %w", itemID, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("item %s not found", itemID)
	}
	return resp.Items[0].Path, nil
}

func (j *JellyfinIndex) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := j.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Emby-Token", j.apiKey)

	resp, err := j.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func convertItem(raw jellyfinItem) (Item, bool) {
	id, err := uuid.Parse(raw.ID)
	if err != nil {
		return Item{}, false
	}
	kind := Kind(raw.Type)
	if kind != KindEpisode && kind != KindMovie {
		return Item{}, false
	}
	// Virtual items exist in the catalog but not on disk; there is nothing
	// to fingerprint.
	if strings.EqualFold(raw.LocationType, "Virtual") {
		return Item{}, false
	}

	item := Item{
		ID:         id,
		Name:       raw.Name,
		Path:       raw.Path,
		Kind:       kind,
		SeriesName: raw.SeriesName,
	}
	if raw.SeasonID != "" {
		if seasonID, err := uuid.Parse(raw.SeasonID); err == nil {
			item.SeasonID = seasonID
		}
	}
	if raw.ParentIndexNumber != nil {
		item.SeasonNumber = *raw.ParentIndexNumber
	}
	if raw.IndexNumber != nil {
		item.EpisodeNumber = *raw.IndexNumber
	}
	if raw.RunTimeTicks != nil {
		item.DurationSeconds = float64(*raw.RunTimeTicks) / ticksPerSecond
	}
	return item, true
}
