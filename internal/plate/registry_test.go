package plate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjoris/plaquier/internal/platform/apperr"
	"github.com/mjoris/plaquier/pkg/pagination"
)

// fakePlateRepo records calls and serves canned responses.
type fakePlateRepo struct {
	createCalls int
	updateCalls int
	deleteCalls int

	createResult *Plate
	updateResult *Plate
	failWith     error
}

func (fake *fakePlateRepo) ListPlates(_ context.Context, _ string, _ map[string]string, params pagination.Params) ([]Plate, pagination.Meta, error) {
	return nil, pagination.NewMeta(params.Page, params.Limit, 0), nil
}

func (fake *fakePlateRepo) CreatePlate(_ context.Context, conceptionID string, form Form) (*Plate, error) {
	fake.createCalls++
	if fake.failWith != nil {
		return nil, fake.failWith
	}
	if fake.createResult != nil {
		return fake.createResult, nil
	}
	return &Plate{
		ID:           "P-NEW",
		ConceptionID: conceptionID,
		Number:       form.Number,
		Color:        form.Color,
		MachineID:    form.MachineID,
		Status:       form.Status,
		CreatedAt:    time.Now(),
	}, nil
}

func (fake *fakePlateRepo) UpdatePlate(_ context.Context, plateID string, form Form) (*Plate, error) {
	fake.updateCalls++
	if fake.failWith != nil {
		return nil, fake.failWith
	}
	if fake.updateResult != nil {
		return fake.updateResult, nil
	}
	return &Plate{
		ID:        plateID,
		Number:    form.Number,
		Color:     form.Color,
		MachineID: form.MachineID,
		Status:    form.Status,
	}, nil
}

func (fake *fakePlateRepo) DeletePlate(_ context.Context, _ string) error {
	fake.deleteCalls++
	return fake.failWith
}

func newTestRegistry(repo Repository) *Registry {
	return NewRegistry(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func activated(repo Repository, plates ...Plate) *Registry {
	registry := newTestRegistry(repo)
	registry.Activate("C-1", 2, plates)
	return registry
}

/*
TestRegistry_StartCreateGuards verifies that opening a create form is rejected
locally, without any network call, while no conception is active or the active
conception has no resolved relationship.
*/
func TestRegistry_StartCreateGuards(t *testing.T) {
	repo := &fakePlateRepo{}

	t.Run("no active conception", func(t *testing.T) {
		registry := newTestRegistry(repo)

		err := registry.StartCreate()

		require.Error(t, err)
		assert.Equal(t, "UNPROCESSABLE", apperr.As(err).Code)
	})

	t.Run("zero concerns", func(t *testing.T) {
		registry := newTestRegistry(repo)
		registry.Activate("C-1", 0, nil)

		err := registry.StartCreate()

		require.Error(t, err)
		assert.Equal(t, ModeIdle, registry.Snapshot().Mode)
	})

	assert.Zero(t, repo.createCalls)
}

/*
TestRegistry_SingleEditTarget verifies that selecting a second plate replaces
the first target outright and reports the displaced target id, and that at
most one plate is ever open for edit.
*/
func TestRegistry_SingleEditTarget(t *testing.T) {
	registry := activated(&fakePlateRepo{},
		Plate{ID: "P-1", Number: "7"},
		Plate{ID: "P-2", Number: "8"},
	)

	previous, err := registry.Select("P-1")
	require.NoError(t, err)
	assert.Empty(t, previous)

	registry.FieldChanged()
	assert.True(t, registry.Snapshot().Dirty)

	previous, err = registry.Select("P-2")
	require.NoError(t, err)
	assert.Equal(t, "P-1", previous, "displaced target should be reported")

	view := registry.Snapshot()
	assert.Equal(t, ModeEditing, view.Mode)
	assert.Equal(t, "P-2", view.TargetID)
	assert.False(t, view.Dirty, "switching targets must disarm the save control")
}

func TestRegistry_SelectUnknownPlate(t *testing.T) {
	registry := activated(&fakePlateRepo{}, Plate{ID: "P-1", Number: "7"})

	_, err := registry.Select("P-404")

	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

/*
TestRegistry_DuplicateNumbers verifies the trimmed-exact uniqueness rule:
"007" and "7" coexist, " 7 " collides with "7", and an edited plate never
collides with its own current number.
*/
func TestRegistry_DuplicateNumbers(t *testing.T) {
	repo := &fakePlateRepo{}
	registry := activated(repo,
		Plate{ID: "P-1", Number: "7"},
		Plate{ID: "P-2", Number: "12"},
	)

	t.Run("leading zeros are a distinct number", func(t *testing.T) {
		require.NoError(t, registry.StartCreate())
		registry.FieldChanged()

		created, err := registry.Submit(context.Background(), Form{Number: "007", MachineID: "M-1", Status: StatusInStock})

		require.NoError(t, err)
		assert.Equal(t, "007", created.Number)
	})

	t.Run("whitespace variants collide", func(t *testing.T) {
		require.NoError(t, registry.StartCreate())
		calls := repo.createCalls

		_, err := registry.Submit(context.Background(), Form{Number: " 7 ", MachineID: "M-1"})

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
		assert.Equal(t, calls, repo.createCalls, "duplicate must be rejected before the write")
	})

	t.Run("edited plate excluded from its own check", func(t *testing.T) {
		_, err := registry.Select("P-1")
		require.NoError(t, err)
		registry.FieldChanged()

		updated, err := registry.Submit(context.Background(), Form{Number: "7", Color: "cyan", MachineID: "M-2", Status: StatusPrinting})

		require.NoError(t, err)
		assert.Equal(t, "cyan", updated.Color)
	})
}

/*
TestRegistry_DirtyGatesSave verifies that an edit submission with no field
change is rejected without touching the inventory service.
*/
func TestRegistry_DirtyGatesSave(t *testing.T) {
	repo := &fakePlateRepo{}
	registry := activated(repo, Plate{ID: "P-1", Number: "7"})

	_, err := registry.Select("P-1")
	require.NoError(t, err)

	_, err = registry.Submit(context.Background(), Form{Number: "7", MachineID: "M-1"})

	require.Error(t, err)
	assert.Zero(t, repo.updateCalls)
}

/*
TestRegistry_CanonicalRecordReplacesSnapshot verifies that after a successful
save the server's record, not the submitted form, is what the registry keeps,
and that the session returns to idle.
*/
func TestRegistry_CanonicalRecordReplacesSnapshot(t *testing.T) {
	renewal := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakePlateRepo{
		updateResult: &Plate{ID: "P-1", Number: "7-A", Status: StatusOrdered, RenewalDate: &renewal},
	}
	registry := activated(repo, Plate{ID: "P-1", ConceptionID: "C-1", Number: "7"})

	_, err := registry.Select("P-1")
	require.NoError(t, err)
	registry.FieldChanged()

	_, err = registry.Submit(context.Background(), Form{Number: "7-B", MachineID: "M-1"})
	require.NoError(t, err)

	view := registry.Snapshot()
	require.Len(t, view.Plates, 1)
	assert.Equal(t, "7-A", view.Plates[0].Number, "server record wins over the submitted form")
	assert.Equal(t, StatusOrdered, view.Plates[0].Status)
	assert.Equal(t, "C-1", view.Plates[0].ConceptionID, "conception binding survives a sparse server record")
	assert.NotNil(t, view.Plates[0].RenewalDate)
	assert.Equal(t, ModeIdle, view.Mode)
}

func TestRegistry_SubmitWithoutOpenForm(t *testing.T) {
	registry := activated(&fakePlateRepo{}, Plate{ID: "P-1", Number: "7"})

	_, err := registry.Submit(context.Background(), Form{Number: "9", MachineID: "M-1"})

	require.Error(t, err)
	assert.Equal(t, "UNPROCESSABLE", apperr.As(err).Code)
}

/*
TestRegistry_Delete verifies the deletion protocol: explicit confirmation is
mandatory, deleting the open edit target forces the session back to idle, and
the row disappears only once the server has confirmed.
*/
func TestRegistry_Delete(t *testing.T) {
	t.Run("requires confirmation", func(t *testing.T) {
		repo := &fakePlateRepo{}
		registry := activated(repo, Plate{ID: "P-1", Number: "7"})

		err := registry.Delete(context.Background(), "P-1", false)

		require.Error(t, err)
		assert.Zero(t, repo.deleteCalls)
		assert.Len(t, registry.Snapshot().Plates, 1)
	})

	t.Run("forces idle when deleting the edit target", func(t *testing.T) {
		repo := &fakePlateRepo{}
		registry := activated(repo, Plate{ID: "P-1", Number: "7"}, Plate{ID: "P-2", Number: "8"})

		_, err := registry.Select("P-1")
		require.NoError(t, err)
		registry.FieldChanged()

		require.NoError(t, registry.Delete(context.Background(), "P-1", true))

		view := registry.Snapshot()
		assert.Equal(t, ModeIdle, view.Mode)
		assert.Empty(t, view.TargetID)
		require.Len(t, view.Plates, 1)
		assert.Equal(t, "P-2", view.Plates[0].ID)
	})

	t.Run("row survives a failed server delete", func(t *testing.T) {
		repo := &fakePlateRepo{failWith: errors.New("boom")}
		registry := activated(repo, Plate{ID: "P-1", Number: "7"})

		err := registry.Delete(context.Background(), "P-1", true)

		require.Error(t, err)
		assert.Equal(t, 1, repo.deleteCalls)
		assert.Len(t, registry.Snapshot().Plates, 1, "row is removed only after the server confirms")
	})

	t.Run("unknown plate", func(t *testing.T) {
		registry := activated(&fakePlateRepo{}, Plate{ID: "P-1", Number: "7"})

		err := registry.Delete(context.Background(), "P-404", true)

		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	})
}

func TestRegistry_ActivateResetsSession(t *testing.T) {
	registry := activated(&fakePlateRepo{}, Plate{ID: "P-1", Number: "7"})

	_, err := registry.Select("P-1")
	require.NoError(t, err)
	registry.FieldChanged()

	registry.Activate("C-2", 1, []Plate{{ID: "P-9", Number: "1"}})

	view := registry.Snapshot()
	assert.Equal(t, "C-2", view.ConceptionID)
	assert.Equal(t, ModeIdle, view.Mode)
	assert.False(t, view.Dirty)
	require.Len(t, view.Plates, 1)
	assert.Equal(t, "P-9", view.Plates[0].ID)
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{raw: "in-stock", want: StatusInStock},
		{raw: "quarantine", want: StatusQuarantine},
		{raw: "melted", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, testCase := range cases {
		t.Run("status "+testCase.raw, func(t *testing.T) {
			status, err := ParseStatus(testCase.raw)
			if testCase.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.want, status)
		})
	}
}
