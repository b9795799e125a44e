package dedup

import (
	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/search/query"
)

type titleDoc struct {
	Title string `json:"title"`
}

// TitleIndex flags near-duplicate topic titles within one batch. A title
// is a near duplicate when every one of its terms already appears in a
// single indexed title, which catches the same story listed twice with
// minor wording changes. Lives in memory for the duration of one filter
// pass.
type TitleIndex struct {
	index bleve.Index
}

func NewTitleIndex() (*TitleIndex, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &TitleIndex{index: index}, nil
}

// Add indexes a title under the given id.
func (t *TitleIndex) Add(id, title string) error {
	return t.index.Index(id, titleDoc{Title: title})
}

// NearDuplicate reports whether a sufficiently similar title is already
// indexed. Uses a match query with the AND operator rather than a query
// string, so titles containing query syntax never fail to parse.
func (t *TitleIndex) NearDuplicate(title string) (bool, error) {
	q := bleve.NewMatchQuery(title)
	q.SetOperator(query.MatchQueryOperatorAnd)
	req := bleve.NewSearchRequestOptions(q, 1, 0, false)
	res, err := t.index.Search(req)
	if err != nil {
		return false, err
	}
	return len(res.Hits) > 0, nil
}
