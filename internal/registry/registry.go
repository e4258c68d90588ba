package registry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	gh "pkgsweep/internal/github"

	"github.com/google/go-github/v81/github"
)

// Registry lists and deletes the authenticated user's packages. The user's
// credentials live in the wrapped client; Registry holds no other state than
// the rate observer and is safe for concurrent use.
type Registry struct {
	client *gh.Client
	logger *slog.Logger
	rate   *RateObserver
}

type Option func(*Registry)

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithRateObserver(o *RateObserver) Option {
	return func(r *Registry) {
		r.rate = o
	}
}

func New(client *gh.Client, opts ...Option) (*Registry, error) {
	if client == nil || client.Client == nil {
		return nil, errors.New("registry: nil GitHub client")
	}
	r := &Registry{
		client: client,
		logger: slog.Default(),
		rate:   NewRateObserver(),
	}
	for _, apply := range opts {
		if apply != nil {
			apply(r)
		}
	}
	return r, nil
}

func (r *Registry) RateObserver() *RateObserver {
	return r.rate
}

// FetchPackages pages through GET /user/packages for key, starting at page 1,
// until a page decodes to an empty list. A non-200 response or transport
// error stops paging; it is logged and recorded on the result together with
// everything collected so far. It never retries.
func (r *Registry) FetchPackages(ctx context.Context, key FetchKey) FetchResult {
	res := FetchResult{Key: key}
	log := r.logger.With("package_type", key.PackageType, "visibility", key.Visibility)

	opts := &github.PackageListOptions{
		PackageType: github.Ptr(key.PackageType),
		Visibility:  github.Ptr(key.Visibility),
		ListOptions: github.ListOptions{Page: 1, PerPage: PageSize},
	}
	for {
		res.Pages++
		batch, resp, err := r.client.Client.Users.ListPackages(ctx, "", opts)
		r.observe(resp)
		if err != nil || resp == nil || resp.StatusCode != http.StatusOK {
			res.Err = newAPIError(resp, err)
			log.Error("list packages failed",
				"page", opts.Page,
				"status", res.Err.StatusCode,
				"body", res.Err.Body,
				"collected", len(res.Packages),
			)
			return res
		}
		if len(batch) == 0 {
			log.Debug("listed packages", "pages", res.Pages, "packages", len(res.Packages))
			return res
		}
		for _, p := range batch {
			res.Packages = append(res.Packages, packageFromGitHub(p))
		}
		opts.Page++
	}
}

// DeletePackage issues DELETE /user/packages/{type}/{name}. The name is
// path-escaped so container names holding "/" address a single segment. Only
// 200 and 204 count as success; any other outcome is logged and returned as
// FAILED.
func (r *Registry) DeletePackage(ctx context.Context, pkg Package) DeleteResult {
	res := DeleteResult{Package: pkg}
	log := r.logger.With("package_type", pkg.Type, "package", pkg.Name)

	resp, err := r.client.Client.Users.DeletePackage(ctx, "", pkg.Type, url.PathEscape(pkg.Name))
	r.observe(resp)
	if err == nil && resp != nil && (resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK) {
		res.Status = DeleteStatusDeleted
		res.StatusCode = resp.StatusCode
		log.Info("package deleted")
		return res
	}

	apiErr := newAPIError(resp, err)
	res.Status = DeleteStatusFailed
	res.StatusCode = apiErr.StatusCode
	res.Message = apiErr.Body
	if res.Message == "" && apiErr.Err != nil {
		res.Message = apiErr.Err.Error()
	}
	log.Error("package delete failed", "status", apiErr.StatusCode, "body", apiErr.Body)
	return res
}

func (r *Registry) observe(resp *github.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	r.rate.Observe(resp.Response)
}

func packageFromGitHub(p *github.Package) Package {
	return Package{
		ID:         p.GetID(),
		Name:       p.GetName(),
		Type:       p.GetPackageType(),
		Visibility: p.GetVisibility(),
		HTMLURL:    p.GetHTMLURL(),
	}
}
