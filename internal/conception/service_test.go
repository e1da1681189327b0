package conception_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjoris/plaquier/internal/catalog"
	"github.com/mjoris/plaquier/internal/conception"
	"github.com/mjoris/plaquier/internal/concern"
	"github.com/mjoris/plaquier/internal/platform/apperr"
)

// fakeRepo records aggregate calls and can fail selected file uploads.
type fakeRepo struct {
	created      []conception.CreateInput
	updated      map[string]conception.UpdateInput
	attached     []string
	failUploads  map[string]bool
	updateResult *conception.UpdateResult
	catalogLoads int
	createErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		updated:      make(map[string]conception.UpdateInput),
		failUploads:  make(map[string]bool),
		updateResult: &conception.UpdateResult{ConceptionID: "CO-1"},
	}
}

func (repo *fakeRepo) CreateConception(_ context.Context, input conception.CreateInput) (string, error) {
	if repo.createErr != nil {
		return "", repo.createErr
	}
	repo.created = append(repo.created, input)
	return "CO-1", nil
}

func (repo *fakeRepo) UpdateConception(_ context.Context, id string, input conception.UpdateInput) (*conception.UpdateResult, error) {
	repo.updated[id] = input
	result := *repo.updateResult
	result.ConceptionID = id
	return &result, nil
}

func (repo *fakeRepo) AttachFile(_ context.Context, id string, file conception.Upload) error {
	if repo.failUploads[file.Name] {
		return errors.New("upload rejected")
	}
	repo.attached = append(repo.attached, file.Name)
	return nil
}

func (repo *fakeRepo) ListSelect(context.Context) ([]conception.PickerItem, error) {
	return []conception.PickerItem{{ID: "CO-1", Name: "Boîte Burger x6"}}, nil
}

// countingLoader tracks catalog loads to observe invalidation.
type countingLoader struct{ loads *int }

func (loader countingLoader) LoadCatalog(context.Context, catalog.Kind) ([]catalog.Entity, error) {
	*loader.loads++
	return []catalog.Entity{{ID: "CL-1", DisplayName: "Chicken Street"}}, nil
}

func newService(repo *fakeRepo) (*conception.Service, *catalog.Cache) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := catalog.NewCache(countingLoader{loads: &repo.catalogLoads}, logger)
	return conception.NewService(repo, cache, logger), cache
}

func resolvedConcerns() []concern.Concern {
	return []concern.Concern{{ClientID: "CL-1", ProductID: "P-1", Pose: 2}}
}

func upload(name string) conception.Upload {
	return conception.Upload{Name: name, SizeBytes: 8, Content: strings.NewReader("contents")}
}

/*
TestCreate_RejectsLocallyWithoutNetwork verifies that an empty name or an
empty/unresolved concern list never reaches the repository.
*/
func TestCreate_RejectsLocallyWithoutNetwork(t *testing.T) {
	tests := []struct {
		name  string
		input conception.CreateInput
	}{
		{"missing_name", conception.CreateInput{Name: "", Concerns: resolvedConcerns()}},
		{"no_concerns", conception.CreateInput{Name: "Boîte Burger x6"}},
		{"unresolved_concern", conception.CreateInput{
			Name:     "Boîte Burger x6",
			Concerns: []concern.Concern{{ClientID: "CL-1", Pose: 1}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			service, _ := newService(repo)

			_, _, err := service.Create(context.Background(), tt.input, nil)

			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
			assert.Empty(t, repo.created, "no network call on local rejection")
		})
	}
}

/*
TestCreate_PartialFileFailure verifies the partial-success policy: the
conception survives failed uploads and the failure count is reported.
*/
func TestCreate_PartialFileFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.failUploads["corrupt.pdf"] = true
	service, _ := newService(repo)

	id, failed, err := service.Create(context.Background(),
		conception.CreateInput{Name: "Boîte Burger x6", Concerns: resolvedConcerns()},
		[]conception.Upload{upload("maquette.pdf"), upload("corrupt.pdf"), upload("bat.pdf")},
	)

	require.NoError(t, err)
	assert.Equal(t, "CO-1", id)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"maquette.pdf", "bat.pdf"}, repo.attached)
}

/*
TestCreate_InvalidatesCatalog verifies the cache is dropped after a
successful create so new upstream entities become visible.
*/
func TestCreate_InvalidatesCatalog(t *testing.T) {
	repo := newFakeRepo()
	service, cache := newService(repo)

	// Warm the cache, then create.
	cache.Load(context.Background(), catalog.KindClient)
	assert.Equal(t, 1, repo.catalogLoads)

	_, _, err := service.Create(context.Background(),
		conception.CreateInput{Name: "Boîte Burger x6", Concerns: resolvedConcerns()}, nil)
	require.NoError(t, err)

	cache.Load(context.Background(), catalog.KindClient)
	assert.Equal(t, 2, repo.catalogLoads, "cache must reload after invalidation")
}

/*
TestUpdate_MissingID is the programming-error guard: reported, not retried.
*/
func TestUpdate_MissingID(t *testing.T) {
	repo := newFakeRepo()
	service, _ := newService(repo)

	_, err := service.Update(context.Background(), "", conception.UpdateInput{
		Name:     "Boîte Burger x6",
		Concerns: resolvedConcerns(),
	})

	require.Error(t, err)
	assert.Equal(t, "INTERNAL_ERROR", apperr.As(err).Code)
	assert.Empty(t, repo.updated)
}

/*
TestUpdate_DeletedFileIdempotence verifies duplicate deletion marks collapse
to a single id before submission.
*/
func TestUpdate_DeletedFileIdempotence(t *testing.T) {
	repo := newFakeRepo()
	service, _ := newService(repo)

	_, err := service.Update(context.Background(), "CO-1", conception.UpdateInput{
		Name:           "Boîte Burger x6",
		Concerns:       resolvedConcerns(),
		Subcontractor:  conception.SubcontractorUnchanged(),
		DeletedFileIDs: []string{"F-9", "F-9", "F-2", "F-9"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"F-2", "F-9"}, repo.updated["CO-1"].DeletedFileIDs)
}

/*
TestUpdate_RedirectPassthrough verifies the redirect flag reaches the caller.
*/
func TestUpdate_RedirectPassthrough(t *testing.T) {
	repo := newFakeRepo()
	repo.updateResult.RequiresRedirect = true
	service, _ := newService(repo)

	result, err := service.Update(context.Background(), "CO-1", conception.UpdateInput{
		Name:     "Boîte Burger x6",
		Concerns: resolvedConcerns(),
	})

	require.NoError(t, err)
	assert.True(t, result.RequiresRedirect)
}

/*
TestSubcontractorState_Wire covers the tri-state wire semantics: omission,
explicit value, explicit empty.
*/
func TestSubcontractorState_Wire(t *testing.T) {
	include, value := conception.SubcontractorUnchanged().Wire()
	assert.False(t, include)

	include, value = conception.SubcontractorSet("ST-3").Wire()
	assert.True(t, include)
	assert.Equal(t, "ST-3", value)

	include, value = conception.SubcontractorCleared().Wire()
	assert.True(t, include, "clearing must be submitted, not omitted")
	assert.Equal(t, "", value)
}

/*
TestFileDeletionSet covers idempotent marking and stable ordering.
*/
func TestFileDeletionSet(t *testing.T) {
	set := conception.NewFileDeletionSet()
	set.Add("F-1")
	set.Add("F-1")
	set.Add("") // local-only files carry no id and are never submitted

	assert.Equal(t, 1, set.Len())
	assert.Equal(t, []string{"F-1"}, set.IDs())
}
