package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mjoris/plaquier/internal/remote"
	"github.com/mjoris/plaquier/pkg/pagination"
)

// catalogPaths maps each collection onto its inventory endpoint.
var catalogPaths = map[Kind]string{
	KindClient:        "/api/conception/clients",
	KindProduct:       "/api/conception/produits",
	KindSubcontractor: "/api/conception/soustraitants",
	KindMachine:       "/conceptions/machines",
}

// idKeys and nameKeys are the key names the inventory service has been
// observed using, in lookup order. The normalization happens once, here, so
// no internal component ever scans alternative field names again.
var (
	idKeys   = []string{"id", "id_client", "id_produit", "id_soustraitant", "id_machine", "ID"}
	nameKeys = []string{"nom", "name", "label", "nom_client", "nom_produit", "nom_machine", "display_name"}
)

// RemoteLoader loads catalog collections over HTTP.
type RemoteLoader struct {
	client *remote.Client
}

// NewRemoteLoader constructs a [RemoteLoader] on the shared inventory client.
func NewRemoteLoader(client *remote.Client) *RemoteLoader {
	return &RemoteLoader{client: client}
}

// LoadCatalog fetches and normalizes one collection.
//
// The endpoints answer either a bare array or an {items,...} page; both are
// folded through [remote.DecodePage] and every record is adapted onto the
// fixed [Entity] schema immediately.
func (loader *RemoteLoader) LoadCatalog(context context.Context, kind Kind) ([]Entity, error) {
	path, ok := catalogPaths[kind]
	if !ok {
		return nil, fmt.Errorf("catalog: unknown kind %q", kind)
	}

	body, err := loader.client.GetRaw(context, path, nil)
	if err != nil {
		return nil, err
	}

	records, _, err := remote.DecodePage[map[string]json.RawMessage](body, pagination.Params{Page: 1, Limit: pagination.MaxLimit})
	if err != nil {
		return nil, err
	}

	entities := make([]Entity, 0, len(records))
	for _, record := range records {
		entity := normalizeRecord(record)
		if entity.ID == "" || entity.DisplayName == "" {
			// Unusable reference rows are skipped rather than failing the load.
			continue
		}
		entities = append(entities, entity)
	}

	return entities, nil
}

// normalizeRecord maps a heterogeneous upstream record onto [Entity].
func normalizeRecord(record map[string]json.RawMessage) Entity {
	return Entity{
		ID:          firstScalar(record, idKeys),
		DisplayName: firstScalar(record, nameKeys),
	}
}

// firstScalar returns the first non-empty candidate key as a string.
// Numeric ids are stringified; the internal schema is string-keyed throughout.
func firstScalar(record map[string]json.RawMessage, keys []string) string {
	for _, key := range keys {
		raw, ok := record[key]
		if !ok {
			continue
		}

		var asString string
		if err := json.Unmarshal(raw, &asString); err == nil {
			if trimmed := strings.TrimSpace(asString); trimmed != "" {
				return trimmed
			}
			continue
		}

		var asNumber float64
		if err := json.Unmarshal(raw, &asNumber); err == nil {
			return strconv.FormatFloat(asNumber, 'f', -1, 64)
		}
	}
	return ""
}
