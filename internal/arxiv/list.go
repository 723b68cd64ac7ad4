package arxiv

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidQuery indicates a listing request that cannot be sent.
var ErrInvalidQuery = errors.New("invalid arXiv listing query")

// CategoryQuery builds the search_query for papers in any of categories,
// optionally restricted to submissions between fromYear and toYear inclusive.
// Both years are zero for no date restriction.
func CategoryQuery(categories []string, fromYear, toYear int) (string, error) {
	if len(categories) == 0 {
		return "", fmt.Errorf("%w: no categories", ErrInvalidQuery)
	}

	terms := make([]string, 0, len(categories))
	for _, cat := range categories {
		cat = strings.TrimSpace(cat)
		if cat == "" || strings.ContainsAny(cat, ` ():"`) {
			return "", fmt.Errorf("%w: bad category %q", ErrInvalidQuery, cat)
		}
		terms = append(terms, "cat:"+cat)
	}
	query := strings.Join(terms, " OR ")
	if len(terms) > 1 {
		query = "(" + query + ")"
	}

	switch {
	case fromYear == 0 && toYear == 0:
		return query, nil
	case fromYear <= 0 || toYear <= 0:
		return "", fmt.Errorf("%w: year range needs both ends", ErrInvalidQuery)
	case fromYear > toYear:
		return "", fmt.Errorf("%w: year range %d-%d is reversed", ErrInvalidQuery, fromYear, toYear)
	}
	return fmt.Sprintf("%s AND submittedDate:[%04d01010000 TO %04d12312359]", query, fromYear, toYear), nil
}

// ListByCategory returns up to max base IDs of papers in any of categories,
// newest submission first. Papers published outside the year range are
// dropped. Each page is one rate-limited request.
func (c *Client) ListByCategory(ctx context.Context, categories []string, fromYear, toYear, max int) ([]string, error) {
	if max <= 0 {
		return nil, fmt.Errorf("%w: max must be positive, got %d", ErrInvalidQuery, max)
	}
	query, err := CategoryQuery(categories, fromYear, toYear)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	for start := 0; len(ids) < max; {
		size := c.pageSize
		if remaining := max - len(ids); remaining < size {
			size = remaining
		}

		params := url.Values{}
		params.Set("search_query", query)
		params.Set("sortBy", "submittedDate")
		params.Set("sortOrder", "descending")
		params.Set("start", strconv.Itoa(start))
		params.Set("max_results", strconv.Itoa(size))

		feed, status, err := c.query(ctx, params, query)
		if err != nil {
			return ids, err
		}

		for _, entry := range feed.Entries {
			if entry.isError() {
				return ids, errorFromEntry(entry, status, query)
			}
			if strings.TrimSpace(entry.Title) == "" {
				continue
			}
			paper := entryToPaper(entry)
			if fromYear > 0 && (paper.Year() < fromYear || paper.Year() > toYear) {
				continue
			}
			id := paper.BaseID()
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
			if len(ids) == max {
				break
			}
		}

		start += len(feed.Entries)
		if len(feed.Entries) < size || (feed.TotalResults > 0 && start >= feed.TotalResults) {
			break
		}
	}

	return ids, nil
}
