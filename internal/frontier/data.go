package frontier

// CrawlTask is a unit of work: one admitted URL at a known depth.
// The seed task has depth 0 and an empty FoundFrom.
type CrawlTask struct {
	ID        int
	URL       string
	Depth     int
	FoundFrom string
}

func (t CrawlTask) IsSeed() bool {
	return t.FoundFrom == "" && t.Depth == 0
}

// Policy is the admission policy of one crawl run. A zero MaxPages or a
// negative MaxDepth means the corresponding limit is not enforced.
type Policy struct {
	MaxPages            int
	MaxDepth            int
	FollowExternalLinks bool
	// SeedHost is the normalized host[:port] of the seed URL.
	SeedHost string
}

// Reason explains an admission decision.
type Reason string

const (
	ReasonAccepted      Reason = "accepted"
	ReasonInvalidURL    Reason = "invalid_url"
	ReasonDuplicate     Reason = "duplicate"
	ReasonDepthExceeded Reason = "depth_exceeded"
	ReasonPageBudget    Reason = "page_budget_exhausted"
	ReasonExternal      Reason = "external_domain"
)

// Admission is the outcome of TryAccept. Task is only set when Accepted.
type Admission struct {
	Accepted bool
	Reason   Reason
	URL      string
	Task     CrawlTask
}

func rejected(reason Reason, url string) Admission {
	return Admission{Accepted: false, Reason: reason, URL: url}
}
