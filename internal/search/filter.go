package search

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/shared"
)

// PageSize is the number of lectures per result page.
const PageSize = 12

// Sort selects the result ordering.
type Sort string

const (
	// SortDate orders newest first, ties broken by ascending id.
	SortDate Sort = "date"
	// SortRank orders by raw rank id ascending with unranked lectures last, ties broken by ascending id.
	SortRank Sort = "rank"
)

// ParseSort maps a query value to a [Sort]; anything unrecognised sorts by date.
func ParseSort(s string) Sort {
	if Sort(strings.ToLower(strings.TrimSpace(s))) == SortRank {
		return SortRank
	}
	return SortDate
}

// Filter specifies a lecture search. The zero value matches every lecture, newest first, page 1.
type Filter struct {
	Query    string
	TopicIDs []int64
	TagIDs   []int64
	RankID   *int64
	Sort     Sort
	Page     int
}

// ParseFilter reads q, topics[], tags[], rank, sort and page from v.
//
// Blank ids are ignored and repeated ids collapse; a non-integer id is an [shared.ErrInvalidInput].
// A missing, malformed or non-positive page is page 1.
func ParseFilter(v url.Values) (Filter, error) {
	f := Filter{
		Query: strings.TrimSpace(v.Get("q")),
		Sort:  ParseSort(v.Get("sort")),
		Page:  1,
	}

	var err error
	if f.TopicIDs, err = parseIDs("topics", listValues(v, "topics")); err != nil {
		return Filter{}, err
	}
	if f.TagIDs, err = parseIDs("tags", listValues(v, "tags")); err != nil {
		return Filter{}, err
	}

	if raw := strings.TrimSpace(v.Get("rank")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: rank %q is not an id", shared.ErrInvalidInput, raw)
		}
		f.RankID = &id
	}

	if p, err := strconv.Atoi(strings.TrimSpace(v.Get("page"))); err == nil {
		f.Page = p
	}
	f.Page = normalizePage(f.Page)

	return f, nil
}

// Values encodes the filter back into query parameters, omitting defaults.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	for _, id := range f.TopicIDs {
		v.Add("topics[]", strconv.FormatInt(id, 10))
	}
	for _, id := range f.TagIDs {
		v.Add("tags[]", strconv.FormatInt(id, 10))
	}
	if f.RankID != nil {
		v.Set("rank", strconv.FormatInt(*f.RankID, 10))
	}
	if f.Sort == SortRank {
		v.Set("sort", string(SortRank))
	}
	if f.Page > 1 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	return v
}

// listValues accepts both name[] and name keys.
func listValues(v url.Values, name string) []string {
	return append(append([]string{}, v[name+"[]"]...), v[name]...)
}

func parseIDs(field string, raw []string) ([]int64, error) {
	var ids []int64
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s value %q is not an id", shared.ErrInvalidInput, field, s)
		}
		ids = append(ids, id)
	}
	return models.DedupeIDs(ids), nil
}

func normalizePage(p int) int {
	if p < 1 {
		return 1
	}
	return p
}

// TotalPages returns ceil(total / PageSize).
func TotalPages(total int) int {
	return (total + PageSize - 1) / PageSize
}
