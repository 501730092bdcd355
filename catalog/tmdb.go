package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rushteam/flickrec/core"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

// TMDBService 是 TMDB（The Movie Database）的 CatalogService 实现。
//
// 使用 Bearer Token 鉴权（TMDB v4 auth）。
// 目录是旁路依赖：调用失败只影响关键词富化等软路径，
// 错误归一为 ENRICHMENT_FAILURE 由调用方决定记录或忽略。
type TMDBService struct {
	BaseURL  string
	APIToken string
	Language string
	Timeout  int

	httpClient *http.Client
}

// NewTMDBService 创建一个新的 TMDB 客户端实例。
func NewTMDBService(apiToken string, opts ...TMDBOption) *TMDBService {
	service := &TMDBService{
		BaseURL:  tmdbBaseURL,
		APIToken: apiToken,
		Language: "en-US",
		Timeout:  15,
	}

	for _, opt := range opts {
		opt(service)
	}

	service.httpClient = &http.Client{
		Timeout: time.Duration(service.Timeout) * time.Second,
	}

	return service
}

type TMDBOption func(*TMDBService)

func WithTMDBBaseURL(baseURL string) TMDBOption {
	return func(s *TMDBService) {
		s.BaseURL = baseURL
	}
}

func WithTMDBLanguage(language string) TMDBOption {
	return func(s *TMDBService) {
		s.Language = language
	}
}

func WithTMDBTimeout(timeout int) TMDBOption {
	return func(s *TMDBService) {
		s.Timeout = timeout
	}
}

// tmdbMovie 是 /movie/{id} 响应的子集
type tmdbMovie struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	OriginalLanguage string `json:"original_language"`
	ReleaseDate      string `json:"release_date"`
	Overview         string `json:"overview"`
	Genres           []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

// MovieDetails 获取单部影片的详情。
func (s *TMDBService) MovieDetails(ctx context.Context, movieID string) (*core.MovieDetail, error) {
	var movie tmdbMovie
	params := url.Values{"language": {s.Language}}
	if err := s.get(ctx, "/movie/"+movieID, params, &movie); err != nil {
		return nil, err
	}

	detail := &core.MovieDetail{
		ID:       movieID,
		Title:    movie.Title,
		Language: movie.OriginalLanguage,
		Extra: map[string]any{
			"overview": movie.Overview,
		},
	}
	for _, g := range movie.Genres {
		detail.Genres = append(detail.Genres, g.Name)
	}
	if len(movie.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(movie.ReleaseDate[:4]); err == nil {
			detail.Year = year
		}
	}
	return detail, nil
}

// MovieKeywords 获取单部影片的关键词列表。
func (s *TMDBService) MovieKeywords(ctx context.Context, movieID string) ([]string, error) {
	var resp struct {
		Keywords []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"keywords"`
	}
	if err := s.get(ctx, "/movie/"+movieID+"/keywords", nil, &resp); err != nil {
		return nil, err
	}

	keywords := make([]string, 0, len(resp.Keywords))
	for _, kw := range resp.Keywords {
		if kw.Name != "" {
			keywords = append(keywords, kw.Name)
		}
	}
	return keywords, nil
}

// DiscoverParams 是 /discover/movie 的查询参数。
type DiscoverParams struct {
	PrimaryReleaseYear int
	WithGenres         string
	Page               int
}

// Discover 按条件检索影片（离线建库/补库用）。
func (s *TMDBService) Discover(ctx context.Context, p DiscoverParams) ([]*core.MovieDetail, error) {
	params := url.Values{"language": {s.Language}}
	if p.PrimaryReleaseYear > 0 {
		params.Set("primary_release_year", strconv.Itoa(p.PrimaryReleaseYear))
	}
	if p.WithGenres != "" {
		params.Set("with_genres", p.WithGenres)
	}
	if p.Page > 0 {
		params.Set("page", strconv.Itoa(p.Page))
	}

	var resp struct {
		Results []struct {
			ID               int64  `json:"id"`
			Title            string `json:"title"`
			OriginalLanguage string `json:"original_language"`
			ReleaseDate      string `json:"release_date"`
		} `json:"results"`
	}
	if err := s.get(ctx, "/discover/movie", params, &resp); err != nil {
		return nil, err
	}

	details := make([]*core.MovieDetail, 0, len(resp.Results))
	for _, r := range resp.Results {
		detail := &core.MovieDetail{
			ID:       strconv.FormatInt(r.ID, 10),
			Title:    r.Title,
			Language: r.OriginalLanguage,
		}
		if len(r.ReleaseDate) >= 4 {
			if year, err := strconv.Atoi(r.ReleaseDate[:4]); err == nil {
				detail.Year = year
			}
		}
		details = append(details, detail)
	}
	return details, nil
}

func (s *TMDBService) Close() error {
	return nil
}

func (s *TMDBService) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := s.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build tmdb request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return enrichmentFailure(fmt.Sprintf("tmdb request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return enrichmentFailure(fmt.Sprintf("read tmdb response: %v", err))
	}
	if resp.StatusCode == http.StatusNotFound {
		return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, "catalog: movie not found")
	}
	if resp.StatusCode != http.StatusOK {
		return enrichmentFailure(fmt.Sprintf("tmdb returned status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return enrichmentFailure(fmt.Sprintf("decode tmdb response: %v", err))
	}
	return nil
}

// enrichmentFailure 把目录侧错误归一为 ENRICHMENT_FAILURE 领域错误（软错误）。
func enrichmentFailure(message string) error {
	return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeEnrichmentFailure, "catalog: "+message)
}

var _ core.CatalogService = (*TMDBService)(nil)
