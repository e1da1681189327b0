package concern

// Concern is one resolved Client×Product×Pose relationship row belonging to a
// conception. Concerns are never persisted on their own; they only exist as
// part of a conception create/update submission.
type Concern struct {
	ClientID  string `json:"id_client"`
	ProductID string `json:"id_produit"`
	Pose      int    `json:"pose"`
}

// Row is one operator-entered relationship line, before resolution.
//
// ClientID/ProductID are non-empty when the operator picked an autocomplete
// suggestion, in which case the free text is not re-looked-up.
type Row struct {
	ClientText  string  `json:"client_text"`
	ClientID    string  `json:"client_id"`
	ProductText string  `json:"product_text"`
	ProductID   string  `json:"product_id"`
	Pose        float64 `json:"pose"`
}

// blank reports whether the row is an untouched trailing line: both texts and
// the pose empty. Blank rows are dropped silently, not reported as errors.
func (row Row) blank() bool {
	return row.ClientText == "" && row.ClientID == "" &&
		row.ProductText == "" && row.ProductID == "" && row.Pose == 0
}

// Side names which half of a row failed to resolve.
type Side string

const (
	SideClient  Side = "client"
	SideProduct Side = "product"
)

// RowError pinpoints one unresolved row side. Index is 1-based, matching the
// numbering the operator sees in the form.
type RowError struct {
	Index int    `json:"row"`
	Side  Side   `json:"side"`
	Text  string `json:"text"`
}
