package pagination

// Page is a 1-indexed page request. The zero value means "no pagination".
type Page struct {
	Number int `json:"page"`
	Size   int `json:"size"`
}

// HasPagination is true only when both number and size are strictly positive.
func (p Page) HasPagination() bool {
	return p.Number > 0 && p.Size > 0
}

// Bounds returns the half-open [start, end) window into a collection of total
// items. Pages past the end yield an empty window.
func (p Page) Bounds(total int) (start, end int) {
	if !p.HasPagination() {
		return 0, total
	}
	start = (p.Number - 1) * p.Size
	if start >= total || start < 0 {
		return total, total
	}
	end = start + p.Size
	if end > total {
		end = total
	}
	return start, end
}

// PageCount returns ceil(total/size); zero for a non-positive size.
func PageCount(total int64, size int) int64 {
	if size <= 0 || total <= 0 {
		return 0
	}
	s := int64(size)
	return (total + s - 1) / s
}

// Window slices items to the page described by p.
func Window[T any](items []T, p Page) []T {
	start, end := p.Bounds(len(items))
	return items[start:end]
}
