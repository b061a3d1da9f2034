package store

// Page limits. Each store picks its own default; the cap is shared.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest carries the caller's paging inputs. Cursor is the id of the
// last row seen on the previous page, or nil for the first page.
type PageRequest struct {
	Limit  int
	Cursor *int64
}

func (r PageRequest) effective(def int) int {
	l := r.Limit
	if l <= 0 {
		l = def
	}
	if l > MaxPageLimit {
		l = MaxPageLimit
	}
	return l
}

// PageInfo echoes the effective paging state back to the caller.
type PageInfo struct {
	Limit      int    `json:"limit"`
	Cursor     *int64 `json:"cursor"`
	NextCursor *int64 `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

// Page is the shared response shape for every list operation.
type Page[T any] struct {
	Data       []T      `json:"data"`
	Pagination PageInfo `json:"pagination"`
}

// newPage assembles a Page from up to limit+1 fetched rows. The probe row
// beyond the limit, if present, is trimmed and signals has_more; next_cursor
// is the id of the last returned row.
func newPage[T any](rows []T, req PageRequest, limit int, id func(T) int64) Page[T] {
	p := Page[T]{
		Data: rows,
		Pagination: PageInfo{
			Limit:  limit,
			Cursor: req.Cursor,
		},
	}
	if len(rows) > limit {
		p.Data = rows[:limit]
		p.Pagination.HasMore = true
		last := id(p.Data[len(p.Data)-1])
		p.Pagination.NextCursor = &last
	}
	if p.Data == nil {
		p.Data = []T{}
	}
	return p
}
