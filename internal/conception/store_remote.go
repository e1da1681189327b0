package conception

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mjoris/plaquier/internal/concern"
	"github.com/mjoris/plaquier/internal/platform/constants"
	"github.com/mjoris/plaquier/internal/remote"
	"github.com/mjoris/plaquier/pkg/pagination"
)

// RemoteRepository persists aggregates through the inventory service's
// multipart endpoints.
type RemoteRepository struct {
	client *remote.Client
}

func NewRemoteRepository(client *remote.Client) *RemoteRepository {
	return &RemoteRepository{client: client}
}

// CreateConception submits the aggregate and returns the new server id.
//
// Attachments are not part of this call: they follow as independent per-file
// uploads so one bad file cannot sink the created conception.
func (repository *RemoteRepository) CreateConception(context context.Context, input CreateInput) (string, error) {
	payload, err := basePayload(input.Name, input.Concerns)
	if err != nil {
		return "", err
	}
	if input.SubcontractorID != "" {
		payload.AddField(constants.WireSubcontractorID, input.SubcontractorID)
	}
	if input.GeneratedCode != "" {
		payload.AddField(constants.WireQRCode, input.GeneratedCode)
	}

	var response map[string]json.RawMessage
	if err := repository.client.SendMultipart(context, http.MethodPost, "/api/conception/create", payload, &response); err != nil {
		return "", err
	}

	id := extractID(response)
	if id == "" {
		return "", fmt.Errorf("conception: create response carried no id")
	}
	return id, nil
}

// UpdateConception submits the full aggregate diff in one multipart request.
func (repository *RemoteRepository) UpdateConception(context context.Context, id string, input UpdateInput) (*UpdateResult, error) {
	payload, err := basePayload(input.Name, input.Concerns)
	if err != nil {
		return nil, err
	}

	// Tri-state: omitted means "leave as is", an explicit empty value clears.
	if include, value := input.Subcontractor.Wire(); include {
		payload.AddField(constants.WireSubcontractorID, value)
	}

	if len(input.DeletedFileIDs) > 0 {
		encoded, err := json.Marshal(input.DeletedFileIDs)
		if err != nil {
			return nil, fmt.Errorf("conception: encode deleted file ids: %w", err)
		}
		payload.AddField(constants.WireDeletedFileIDs, string(encoded))
	}

	for _, file := range input.NewFiles {
		payload.AddFile("files", file.Name, file.Content)
	}

	var response map[string]json.RawMessage
	if err := repository.client.SendMultipart(context, http.MethodPut, "/api/conception/"+id, payload, &response); err != nil {
		return nil, err
	}

	return &UpdateResult{
		ConceptionID:     id,
		RequiresRedirect: extractRedirect(response),
	}, nil
}

// AttachFile uploads one file to an already-created conception.
func (repository *RemoteRepository) AttachFile(context context.Context, id string, file Upload) error {
	payload := (&remote.Multipart{}).AddFile("files", file.Name, file.Content)
	return repository.client.SendMultipart(context, http.MethodPut, "/api/conception/"+id, payload, nil)
}

// ListSelect fetches the lightweight conception list for selection widgets.
func (repository *RemoteRepository) ListSelect(context context.Context) ([]PickerItem, error) {
	body, err := repository.client.GetRaw(context, "/conceptions/select", nil)
	if err != nil {
		return nil, err
	}

	records, _, err := remote.DecodePage[map[string]json.RawMessage](body, pagination.Params{Page: 1, Limit: pagination.MaxLimit})
	if err != nil {
		return nil, err
	}

	items := make([]PickerItem, 0, len(records))
	for _, record := range records {
		item := PickerItem{
			ID:   scanScalar(record, "id", "id_conception"),
			Name: scanScalar(record, "nom_conception", "nom", "name"),
		}
		if item.ID != "" {
			items = append(items, item)
		}
	}
	return items, nil
}

// basePayload assembles the fields every aggregate submission carries.
func basePayload(name string, concerns []concern.Concern) (*remote.Multipart, error) {
	encoded, err := json.Marshal(concerns)
	if err != nil {
		return nil, fmt.Errorf("conception: encode concerns: %w", err)
	}

	payload := &remote.Multipart{}
	payload.AddField(constants.WireConceptionName, name)
	payload.AddField(constants.WireConcerns, string(encoded))
	return payload, nil
}

// extractID scans the create response for the new id, whichever key carried it.
func extractID(response map[string]json.RawMessage) string {
	if id := scanScalar(response, "id", "id_conception"); id != "" {
		return id
	}

	// Some deployments wrap the record in a data envelope.
	if raw, ok := response["data"]; ok {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			return scanScalar(nested, "id", "id_conception")
		}
	}
	return ""
}

// extractRedirect scans the update response for the redirect flag.
func extractRedirect(response map[string]json.RawMessage) bool {
	for _, key := range []string{"requires_redirect", "redirect"} {
		raw, ok := response[key]
		if !ok {
			continue
		}
		var flag bool
		if err := json.Unmarshal(raw, &flag); err == nil {
			return flag
		}
	}
	return false
}

// scanScalar returns the first non-empty candidate key as a string.
func scanScalar(record map[string]json.RawMessage, keys ...string) string {
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
