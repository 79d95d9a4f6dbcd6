package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds page/limit inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Normalize clamps the inputs to sane values. Page numbering starts at 1.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := Normalize(p)
	return (n.Page - 1) * n.Limit
}

// Pages returns the page count for total rows under the normalized limit.
func (p Params) Pages(total int64) int {
	n := Normalize(p)
	if total <= 0 {
		return 0
	}
	pages := int(total) / n.Limit
	if int(total)%n.Limit != 0 {
		pages++
	}
	return pages
}
