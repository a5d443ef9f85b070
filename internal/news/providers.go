package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const requestTimeout = 10 * time.Second

// Query describes one provider fetch. Nil Categories means general news.
type Query struct {
	Categories []string
	Location   string
	Count      int
}

func (q Query) searchTerms() string {
	if len(q.Categories) == 0 {
		return "news"
	}
	return strings.Join(q.Categories, " OR ")
}

func (q Query) category() string {
	if len(q.Categories) == 0 {
		return ""
	}
	return q.Categories[0]
}

// SerpAPI is the primary news source (Google News engine)
type SerpAPI struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewSerpAPI(apiKey string) *SerpAPI {
	return &SerpAPI{
		APIKey:  apiKey,
		BaseURL: "https://serpapi.com/search",
		Client:  &http.Client{Timeout: requestTimeout},
	}
}

func (p *SerpAPI) Name() string { return "serpapi" }

func (p *SerpAPI) Fetch(ctx context.Context, q Query) ([]Article, error) {
	params := url.Values{}
	params.Set("engine", "google_news")
	params.Set("q", q.searchTerms())
	params.Set("num", strconv.Itoa(q.Count))
	params.Set("api_key", p.APIKey)
	if q.Location != "" {
		params.Set("gl", strings.ToLower(q.Location))
	}

	var raw struct {
		NewsResults []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
			Date    string `json:"date"`
			Source  struct {
				Name string `json:"name"`
			} `json:"source"`
			Thumbnail string `json:"thumbnail"`
		} `json:"news_results"`
	}
	if err := getJSON(ctx, p.Client, p.BaseURL, params, nil, &raw); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(raw.NewsResults))
	for _, item := range raw.NewsResults {
		if len(articles) >= q.Count {
			break
		}
		articles = append(articles, Article{
			Title:       item.Title,
			Description: item.Snippet,
			URL:         item.Link,
			Source:      orUnknown(item.Source.Name),
			Category:    q.category(),
			PublishedAt: item.Date,
			ImageURL:    item.Thumbnail,
		})
	}
	return articles, nil
}

// NewsAPI is the first fallback
type NewsAPI struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewNewsAPI(apiKey string) *NewsAPI {
	return &NewsAPI{
		APIKey:  apiKey,
		BaseURL: "https://newsapi.org/v2",
		Client:  &http.Client{Timeout: requestTimeout},
	}
}

func (p *NewsAPI) Name() string { return "newsapi" }

// newsAPICategories maps our category names onto NewsAPI's fixed set
var newsAPICategories = map[string]string{
	"technology":    "technology",
	"business":      "business",
	"entertainment": "entertainment",
	"health":        "health",
	"science":       "science",
	"sports":        "sports",
}

func (p *NewsAPI) Fetch(ctx context.Context, q Query) ([]Article, error) {
	params := url.Values{}
	params.Set("apiKey", p.APIKey)
	params.Set("pageSize", strconv.Itoa(q.Count))

	endpoint := p.BaseURL + "/top-headlines"
	if q.Location == "" {
		// Worldwide news has no top-headlines country filter
		endpoint = p.BaseURL + "/everything"
		params.Set("sortBy", "publishedAt")
		params.Set("language", "en")
		params.Set("q", q.searchTerms())
	} else {
		params.Set("country", strings.ToLower(q.Location))
		for _, cat := range q.Categories {
			if mapped, ok := newsAPICategories[strings.ToLower(cat)]; ok {
				params.Set("category", mapped)
				break
			}
		}
	}

	var raw struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			Author      string `json:"author"`
			PublishedAt string `json:"publishedAt"`
			URLToImage  string `json:"urlToImage"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := getJSON(ctx, p.Client, endpoint, params, nil, &raw); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(raw.Articles))
	for _, item := range raw.Articles {
		if len(articles) >= q.Count {
			break
		}
		articles = append(articles, Article{
			Title:       item.Title,
			Description: item.Description,
			URL:         item.URL,
			Source:      orUnknown(item.Source.Name),
			Author:      item.Author,
			Category:    q.category(),
			PublishedAt: item.PublishedAt,
			ImageURL:    item.URLToImage,
		})
	}
	return articles, nil
}

// WorldNewsAPI is the last fallback
type WorldNewsAPI struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewWorldNewsAPI(apiKey string) *WorldNewsAPI {
	return &WorldNewsAPI{
		APIKey:  apiKey,
		BaseURL: "https://api.worldnewsapi.com/search-news",
		Client:  &http.Client{Timeout: requestTimeout},
	}
}

func (p *WorldNewsAPI) Name() string { return "worldnews" }

func (p *WorldNewsAPI) Fetch(ctx context.Context, q Query) ([]Article, error) {
	params := url.Values{}
	params.Set("text", q.searchTerms())
	params.Set("number", strconv.Itoa(q.Count))
	params.Set("sort", "publish-time")
	params.Set("sort-direction", "DESC")
	if q.Location != "" {
		params.Set("source-countries", strings.ToLower(q.Location))
	}

	headers := map[string]string{"x-api-key": p.APIKey}

	var raw struct {
		News []struct {
			Title       string `json:"title"`
			Text        string `json:"text"`
			URL         string `json:"url"`
			Author      string `json:"author"`
			PublishDate string `json:"publish_date"`
			Image       string `json:"image"`
			Source      string `json:"source_country"`
		} `json:"news"`
	}
	if err := getJSON(ctx, p.Client, p.BaseURL, params, headers, &raw); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(raw.News))
	for _, item := range raw.News {
		if len(articles) >= q.Count {
			break
		}
		description := item.Text
		if len(description) > 200 {
			description = description[:200]
		}
		articles = append(articles, Article{
			Title:       item.Title,
			Description: description,
			URL:         item.URL,
			Source:      orUnknown(item.Source),
			Author:      item.Author,
			Category:    q.category(),
			PublishedAt: item.PublishDate,
			ImageURL:    item.Image,
		})
	}
	return articles, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("news request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("news request failed: status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func orUnknown(source string) string {
	if source == "" {
		return "Unknown"
	}
	return source
}
