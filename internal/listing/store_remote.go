package listing

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/mjoris/plaquier/internal/remote"
	"github.com/mjoris/plaquier/pkg/pagination"
)

// RemoteDirectory reads the conception collections from the inventory service.
type RemoteDirectory struct {
	client *remote.Client
}

func NewRemoteDirectory(client *remote.Client) *RemoteDirectory {
	return &RemoteDirectory{client: client}
}

// collectionPath maps a tab onto its upstream collection.
func collectionPath(tab Tab) string {
	if tab == TabSubcontracted {
		return "/conceptions/soustraitees"
	}
	return "/conceptions"
}

// ListConceptions fetches one page of the tab's collection, normalizing both
// response shapes and every record's key variants at ingress.
func (directory *RemoteDirectory) ListConceptions(context context.Context, tab Tab, filters map[string]string, params pagination.Params) ([]Row, pagination.Meta, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("page_size", strconv.Itoa(params.Limit))
	for column, value := range filters {
		query.Set(column, value)
	}

	body, err := directory.client.GetRaw(context, collectionPath(tab), query)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	records, meta, err := remote.DecodePage[map[string]json.RawMessage](body, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, rowFromRecord(record))
	}
	return rows, meta, nil
}

// rowFromRecord adapts one upstream record onto the fixed [Row] schema. This
// is the only place that scans the service's alternative key names.
func rowFromRecord(record map[string]json.RawMessage) Row {
	row := Row{
		ID:                readString(record, "id", "id_conception"),
		Name:              readString(record, "nom_conception", "nom", "name"),
		GeneratedCode:     readString(record, "qr_code", "code"),
		SubcontractorName: readString(record, "nom_soustraitant", "subcontractor_name"),
	}

	row.ConcernCount = readInt(record, "nb_consernes", "concern_count")
	if row.ConcernCount == 0 {
		var concerns []json.RawMessage
		if raw, ok := record["consernes"]; ok && json.Unmarshal(raw, &concerns) == nil {
			row.ConcernCount = len(concerns)
		}
	}

	if value := readString(record, "created_at", "date_creation"); value != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if when, err := time.Parse(layout, value); err == nil {
				row.CreatedAt = when
				break
			}
		}
	}

	return row
}

func readString(record map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := record[key]
		if !ok {
			continue
		}

		var asString string
		if err := json.Unmarshal(raw, &asString); err == nil && asString != "" {
			return asString
		}

		var asNumber float64
		if err := json.Unmarshal(raw, &asNumber); err == nil {
			return strconv.FormatFloat(asNumber, 'f', -1, 64)
		}
	}
	return ""
}

func readInt(record map[string]json.RawMessage, keys ...string) int {
	for _, key := range keys {
		raw, ok := record[key]
		if !ok {
			continue
		}
		var asNumber float64
		if err := json.Unmarshal(raw, &asNumber); err == nil {
			return int(asNumber)
		}
		var asString string
		if err := json.Unmarshal(raw, &asString); err == nil {
			if parsed, err := strconv.Atoi(asString); err == nil {
				return parsed
			}
		}
	}
	return 0
}
