package registry

// Package types and visibilities the cleanup pages through by default.
var (
	DefaultPackageTypes = []string{"npm", "maven", "docker", "container"}
	DefaultVisibilities = []string{"public", "private", "internal"}
)

// PageSize is the per_page value sent on every listing request.
const PageSize = 100

// Package is a registry-returned descriptor of one published package.
type Package struct {
	ID         int64  `json:"id,omitempty"`
	Name       string `json:"name"`
	Type       string `json:"package_type"`
	Visibility string `json:"visibility,omitempty"`
	HTMLURL    string `json:"html_url,omitempty"`
}

// FetchKey parameterizes one paging session.
type FetchKey struct {
	PackageType string `json:"package_type"`
	Visibility  string `json:"visibility"`
}

func (k FetchKey) String() string {
	return k.PackageType + "/" + k.Visibility
}

// Keys returns the Cartesian product types x visibilities, types-major, in
// the order given.
func Keys(types, visibilities []string) []FetchKey {
	out := make([]FetchKey, 0, len(types)*len(visibilities))
	for _, t := range types {
		for _, v := range visibilities {
			out = append(out, FetchKey{PackageType: t, Visibility: v})
		}
	}
	return out
}

// FetchResult is the outcome of paging through one FetchKey. Packages holds
// everything collected before paging stopped, even when Err is set.
type FetchResult struct {
	Key      FetchKey
	Packages []Package
	// Pages is the number of listing requests issued.
	Pages int
	Err   *APIError
}

type DeleteStatus string

const (
	DeleteStatusDeleted DeleteStatus = "DELETED"
	DeleteStatusFailed  DeleteStatus = "FAILED"
	// DeleteStatusPlanned marks a match reported by a dry run; no request was sent.
	DeleteStatusPlanned DeleteStatus = "PLANNED"
)

// DeleteResult is the outcome of one delete request.
type DeleteResult struct {
	Package    Package      `json:"package"`
	Status     DeleteStatus `json:"status"`
	StatusCode int          `json:"status_code,omitempty"`
	Message    string       `json:"message,omitempty"`
}

func (r DeleteResult) Succeeded() bool {
	return r.Status == DeleteStatusDeleted
}
