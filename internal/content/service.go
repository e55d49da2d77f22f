// Package content serves the storefront's blog, portfolio, catalogue, team
// and services data. Reads go through the two-tier cache; on a miss the data
// comes from the upstream API or, in mock mode, from the built-in dataset.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"storefront/internal/apiclient"
	"storefront/internal/cache"
	"storefront/internal/models"
)

// Cache keys.
const (
	KeyPosts     = "blog_posts"
	KeyPortfolio = "portfolio_projects"
	KeyProducts  = "products"
	KeyTeam      = "team_members"
	KeyServices  = "services"
)

// Upstream endpoints.
const (
	EndpointPosts     = "/posts"
	EndpointPortfolio = "/portfolio"
	EndpointProducts  = "/products"
	EndpointTeam      = "/team"
	EndpointServices  = "/services"
	EndpointContact   = "/contact"
)

// DefaultTTL is how long fetched content stays cached.
const DefaultTTL = 10 * time.Minute

func postKey(id string) string    { return "blog_post_" + id }
func productKey(id string) string { return "product_" + id }

// Provider is the read and submit surface used by the HTTP handlers and CLI.
type Provider interface {
	Posts(ctx context.Context) ([]models.BlogPost, error)
	Post(ctx context.Context, id string) (*models.BlogPost, error)
	Categories(ctx context.Context) ([]string, error)
	Portfolio(ctx context.Context) ([]models.PortfolioProject, error)
	Products(ctx context.Context) ([]models.Product, error)
	Product(ctx context.Context, id string) (*models.Product, error)
	Team(ctx context.Context) ([]models.TeamMember, error)
	Services(ctx context.Context) ([]models.Service, error)
	SubmitContact(ctx context.Context, form *models.ContactForm) (*models.ContactResponse, error)
}

var _ Provider = (*Service)(nil)

// Service implements Provider.
type Service struct {
	cache   *cache.Manager
	api     *apiclient.Client
	logger  *slog.Logger
	mockAPI bool
	ttl     time.Duration
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMockAPI serves the built-in dataset instead of calling the API.
func WithMockAPI(enabled bool) Option {
	return func(s *Service) { s.mockAPI = enabled }
}

// WithTTL sets the cache lifetime of fetched content.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewService creates a content service. api may be nil in mock mode.
func NewService(c *cache.Manager, api *apiclient.Client, opts ...Option) *Service {
	s := &Service{
		cache:  c,
		api:    api,
		logger: slog.Default(),
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MockAPI reports whether the service serves the built-in dataset.
func (s *Service) MockAPI() bool {
	return s.mockAPI
}

// cached returns the value under key, calling fetch and storing the result
// in both tiers on a miss.
func cached[T any](ctx context.Context, s *Service, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := cache.GetAs[T](ctx, s.cache, key); ok {
		s.logger.Debug("Content served from cache", "key", key)
		return v, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := s.cache.Set(ctx, key, v, cache.WithTTL(s.ttl), cache.WithStorage(cache.StorageBoth)); err != nil {
		s.logger.Warn("Failed to cache content", "key", key, "error", err)
	}
	return v, nil
}

// fetchList GETs endpoint and decodes the body into a slice.
func fetchList[T any](s *Service, endpoint string) func(context.Context) ([]T, error) {
	return func(ctx context.Context) ([]T, error) {
		if s.api == nil {
			return nil, errors.New("api client is not configured")
		}
		resp, err := s.api.Get(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		var items []T
		if err := resp.Decode(&items); err != nil {
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	}
}

// fetchItem GETs endpoint/id under endpoint's limiter. An upstream 404
// becomes a NotFoundError.
func fetchItem[T any](s *Service, endpoint, kind, id string) func(context.Context) (*T, error) {
	return func(ctx context.Context) (*T, error) {
		if s.api == nil {
			return nil, errors.New("api client is not configured")
		}
		resp, err := s.api.Get(ctx, endpoint+"/"+url.PathEscape(id), apiclient.WithLimiterKey(endpoint))
		if err != nil {
			if apiErr, ok := apiclient.AsError(err); ok && apiErr.Status == http.StatusNotFound {
				return nil, &NotFoundError{Kind: kind, ID: id}
			}
			return nil, err
		}
		var item T
		if err := resp.Decode(&item); err != nil {
			return nil, err
		}
		return &item, nil
	}
}

func mockList[T any](items []T) func(context.Context) ([]T, error) {
	return func(context.Context) ([]T, error) {
		return clone(items), nil
	}
}

func mockItem[T any](items []T, match func(T) bool, kind, id string) func(context.Context) (*T, error) {
	return func(context.Context) (*T, error) {
		for _, item := range items {
			if match(item) {
				found := item
				return &found, nil
			}
		}
		return nil, &NotFoundError{Kind: kind, ID: id}
	}
}

func (s *Service) Posts(ctx context.Context) ([]models.BlogPost, error) {
	fetch := fetchList[models.BlogPost](s, EndpointPosts)
	if s.mockAPI {
		fetch = mockList(mockPosts)
	}
	return cached(ctx, s, KeyPosts, fetch)
}

func (s *Service) Post(ctx context.Context, id string) (*models.BlogPost, error) {
	fetch := fetchItem[models.BlogPost](s, EndpointPosts, "post", id)
	if s.mockAPI {
		fetch = mockItem(mockPosts, func(p models.BlogPost) bool { return p.ID == id }, "post", id)
	}
	return cached(ctx, s, postKey(id), fetch)
}

// Categories returns "All" followed by the distinct post categories in
// first-seen order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	posts, err := s.Posts(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	categories := []string{"All"}
	for _, p := range posts {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		categories = append(categories, p.Category)
	}
	return categories, nil
}

func (s *Service) Portfolio(ctx context.Context) ([]models.PortfolioProject, error) {
	fetch := fetchList[models.PortfolioProject](s, EndpointPortfolio)
	if s.mockAPI {
		fetch = mockList(mockPortfolio)
	}
	return cached(ctx, s, KeyPortfolio, fetch)
}

func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	fetch := fetchList[models.Product](s, EndpointProducts)
	if s.mockAPI {
		fetch = mockList(mockProducts)
	}
	return cached(ctx, s, KeyProducts, fetch)
}

func (s *Service) Product(ctx context.Context, id string) (*models.Product, error) {
	fetch := fetchItem[models.Product](s, EndpointProducts, "product", id)
	if s.mockAPI {
		fetch = mockItem(mockProducts, func(p models.Product) bool { return p.ID == id }, "product", id)
	}
	return cached(ctx, s, productKey(id), fetch)
}

func (s *Service) Team(ctx context.Context) ([]models.TeamMember, error) {
	fetch := fetchList[models.TeamMember](s, EndpointTeam)
	if s.mockAPI {
		fetch = mockList(mockTeam)
	}
	return cached(ctx, s, KeyTeam, fetch)
}

func (s *Service) Services(ctx context.Context) ([]models.Service, error) {
	fetch := fetchList[models.Service](s, EndpointServices)
	if s.mockAPI {
		fetch = mockList(mockServices)
	}
	return cached(ctx, s, KeyServices, fetch)
}

// SubmitContact sanitizes and validates form, then posts the cleaned form
// upstream. Submissions are never cached. A rejected form returns a
// *ValidationError matching ErrInvalidContact.
func (s *Service) SubmitContact(ctx context.Context, form *models.ContactForm) (*models.ContactResponse, error) {
	clean := form.Sanitized()
	if problems := clean.Validate(); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	if s.mockAPI {
		resp := &models.ContactResponse{
			Success: true,
			Message: "Message sent successfully!",
			ID:      uuid.NewString(),
		}
		s.logger.Info("Contact form submitted", "id", resp.ID, "mock", true)
		return resp, nil
	}

	if s.api == nil {
		return nil, errors.New("api client is not configured")
	}
	resp, err := s.api.Post(ctx, EndpointContact, &clean)
	if err != nil {
		s.logger.Error("Contact form submission failed", "error", err)
		return nil, err
	}

	var out models.ContactResponse
	if len(resp.Data) > 0 {
		if err := resp.Decode(&out); err != nil {
			return nil, fmt.Errorf("failed to decode contact response: %w", err)
		}
	} else {
		out.Success = true
	}
	s.logger.Info("Contact form submitted", "id", out.ID)
	return &out, nil
}
