package pipeline

import (
	"fmt"
	"sort"

	"docsplit/pkg/contracts/domain"
)

// Aggregate groups extracted pages into logical documents keyed by the named
// identifier field. A page whose field map lacks the field entirely is keyed
// "page_<pageNumber>", so every page lands in exactly one group and none is
// dropped. Output groups are ordered by the minimum page number among their
// members; page numbers are unique within a job, so those minimums are
// distinct. Pages within a group are re-sorted ascending by page number
// rather than assumed sorted from input order.
func Aggregate(pages []domain.PageResult, identifierField string) []domain.AggregatedDocument {
	groups := make(map[string]*domain.AggregatedDocument)
	var order []string

	for _, page := range pages {
		key := identifierFor(page, identifierField)
		group, ok := groups[key]
		if !ok {
			group = &domain.AggregatedDocument{Identifier: key}
			groups[key] = group
			order = append(order, key)
		}
		group.Pages = append(group.Pages, page)
	}

	docs := make([]domain.AggregatedDocument, 0, len(order))
	for _, key := range order {
		group := groups[key]
		sort.Slice(group.Pages, func(i, j int) bool {
			return group.Pages[i].PageNumber < group.Pages[j].PageNumber
		})
		docs = append(docs, *group)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Pages[0].PageNumber < docs[j].Pages[0].PageNumber
	})

	return docs
}

// identifierFor resolves the grouping key for one page: the identifier
// field's scalar typed value when present, else its raw content, else the
// per-page fallback key.
func identifierFor(page domain.PageResult, identifierField string) string {
	if field, ok := page.Fields[identifierField]; ok {
		if value, ok := field.Scalar(); ok {
			return value
		}
	}
	return fmt.Sprintf("page_%d", page.PageNumber)
}
