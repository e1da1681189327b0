package plate

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/mjoris/plaquier/internal/platform/constants"
	"github.com/mjoris/plaquier/internal/remote"
	"github.com/mjoris/plaquier/pkg/pagination"
	"github.com/mjoris/plaquier/pkg/pointer"
)

// RemoteRepository talks to the plate inventory endpoints.
type RemoteRepository struct {
	client *remote.Client
}

func NewRemoteRepository(client *remote.Client) *RemoteRepository {
	return &RemoteRepository{client: client}
}

// wireForm is the JSON body shape of plate create/update calls.
type wireForm struct {
	Number    string `json:"numero_plaque"`
	Color     string `json:"couleur"`
	Status    string `json:"statut"`
	MachineID string `json:"id_machine"`
}

func toWire(form Form) wireForm {
	return wireForm{
		Number:    form.Number,
		Color:     form.Color,
		Status:    string(form.Status),
		MachineID: form.MachineID,
	}
}

// ListPlates fetches one conception's plates, normalizing both response shapes
// and every record's key variants at ingress.
func (repository *RemoteRepository) ListPlates(context context.Context, conceptionID string, filters map[string]string, params pagination.Params) ([]Plate, pagination.Meta, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("page_size", strconv.Itoa(params.Limit))
	for column, value := range filters {
		query.Set(column, value)
	}

	body, err := repository.client.GetRaw(context, "/conceptions/"+conceptionID+"/plaques", query)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	records, meta, err := remote.DecodePage[map[string]json.RawMessage](body, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	plates := make([]Plate, 0, len(records))
	for _, record := range records {
		plates = append(plates, plateFromRecord(record, conceptionID))
	}
	return plates, meta, nil
}

// CreatePlate persists a new plate and returns the canonical server record.
func (repository *RemoteRepository) CreatePlate(context context.Context, conceptionID string, form Form) (*Plate, error) {
	var record map[string]json.RawMessage
	if err := repository.client.PostJSON(context, "/conceptions/"+conceptionID+"/plaques", toWire(form), &record); err != nil {
		return nil, err
	}

	plate := plateFromRecord(record, conceptionID)
	return &plate, nil
}

// UpdatePlate persists field changes and returns the canonical server record.
func (repository *RemoteRepository) UpdatePlate(context context.Context, plateID string, form Form) (*Plate, error) {
	var record map[string]json.RawMessage
	if err := repository.client.PutJSON(context, "/conceptions/plaques/"+plateID, toWire(form), &record); err != nil {
		return nil, err
	}

	plate := plateFromRecord(record, "")
	if plate.ID == "" {
		plate.ID = plateID
	}
	return &plate, nil
}

// DeletePlate removes a plate server-side.
func (repository *RemoteRepository) DeletePlate(context context.Context, plateID string) error {
	return repository.client.Delete(context, "/conceptions/plaques/"+plateID)
}

// plateFromRecord adapts one upstream record onto the fixed [Plate] schema.
// This is the only place that scans the service's alternative key names.
func plateFromRecord(record map[string]json.RawMessage, conceptionID string) Plate {
	plate := Plate{
		ID:           scanString(record, "id", "id_plaque"),
		ConceptionID: conceptionID,
		Number:       scanString(record, constants.WirePlateNumber, "numero"),
		Color:        scanString(record, constants.WirePlateColor, "color"),
		MachineID:    scanString(record, constants.WirePlateMachineID, "machine_id"),
		Status:       Status(scanString(record, constants.WirePlateStatus, "status")),
	}

	if plate.ConceptionID == "" {
		plate.ConceptionID = scanString(record, "id_conception", "conception_id")
	}
	if when, ok := scanTime(record, "date_renouvellement", "renewal_date"); ok {
		plate.RenewalDate = pointer.To(when)
	}
	if when, ok := scanTime(record, "created_at", "date_creation"); ok {
		plate.CreatedAt = when
	}

	return plate
}

// scanString returns the first non-empty candidate key as a string,
// stringifying numeric ids.
func scanString(record map[string]json.RawMessage, keys ...string) string {
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

// scanTime parses the first candidate key that holds an RFC 3339 or
// date-only timestamp.
func scanTime(record map[string]json.RawMessage, keys ...string) (time.Time, bool) {
	value := scanString(record, keys...)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if when, err := time.Parse(layout, value); err == nil {
			return when, true
		}
	}
	return time.Time{}, false
}
