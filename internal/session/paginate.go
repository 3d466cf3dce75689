package session

// DefaultPageSize is the number of messages per page of the session feed.
const DefaultPageSize = 50

// Page is one 1-indexed slice of the flattened message feed.
type Page struct {
	Number        int      `json:"page"`
	Size          int      `json:"pageSize"`
	TotalPages    int      `json:"totalPages"`
	TotalMessages int      `json:"totalMessages"`
	Messages      []string `json:"messages"`
	// HasMore is true when a later page exists; callers request Number+1 next.
	HasMore bool `json:"hasMore"`
	// OutOfRange marks a request past the last page. It is not an error.
	OutOfRange bool `json:"outOfRange"`
}

// Paginate slices messages into page number page of pageSize items.
// page < 1 is treated as 1 and pageSize < 1 as DefaultPageSize.
func Paginate(messages []string, page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := len(messages)
	totalPages := (total + pageSize - 1) / pageSize

	p := Page{
		Number:        page,
		Size:          pageSize,
		TotalPages:    totalPages,
		TotalMessages: total,
		Messages:      []string{},
	}
	if page > totalPages {
		p.OutOfRange = true
		return p
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	p.Messages = messages[start:end]
	p.HasMore = page < totalPages
	return p
}
