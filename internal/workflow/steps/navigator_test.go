package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplierportal/internal/apperr"
	"supplierportal/internal/model"
	"supplierportal/internal/workflow/draft"
	"supplierportal/internal/workflow/fileref"
	"supplierportal/internal/workflow/form"
)

type stubStore struct {
	saves     []int
	saveErr   error
	submitted int
	record    *model.Application
	getErr    error
}

func (s *stubStore) CreateDraft(_ context.Context, p model.ApplicationPayload) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.saves = append(s.saves, p.CurrentStep)
	return "app-1", nil
}

func (s *stubStore) UpdateDraft(_ context.Context, _ string, p model.ApplicationPayload) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, p.CurrentStep)
	return nil
}

func (s *stubStore) Submit(_ context.Context, id string, _ model.ApplicationPayload) (model.Status, error) {
	s.submitted++
	s.record = &model.Application{ID: id, Status: model.StatusPendingProcurement, CurrentStep: form.StepReview}
	return model.StatusPendingProcurement, nil
}

func (s *stubStore) GetByID(_ context.Context, _ string) (*model.Application, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.record == nil {
		return nil, apperr.ErrNotFound
	}
	return s.record, nil
}

type nopUploader struct{}

func (nopUploader) UploadFile(context.Context, string, string, fileref.Upload) error { return nil }

func fillBasic(d *draft.Manager) {
	d.Patch(form.FieldSupplierName, "Acme Supplies")
	d.Patch(form.FieldRegistrationNumber, "2020/123456/07")
	d.Patch(form.FieldContactPerson, "Jo Smith")
	d.Patch(form.FieldContactEmail, "jo@acme.test")
	d.Patch(form.FieldContactPhone, "0215551234")
	d.Patch(form.FieldPhysicalAddress, "1 Main Road")
}

func fillRest(d *draft.Manager) {
	d.Patch(form.FieldLegalNature, "Trust")
	d.Patch(form.FieldServiceCategory, "Logistics")
	d.Patch(form.FieldBankName, "First Bank")
	d.Patch(form.FieldAccountNumber, "123456789")
	d.Patch(form.FieldBranchCode, "250655")
	d.Patch(form.FieldDeclarationAccepted, true)
	d.Patch(form.FieldSignatoryName, "Jo Smith")
}

func newNavigator(store *stubStore) (*Navigator, *draft.Manager) {
	d := draft.New(store, nopUploader{})
	return New(d, form.NewValidator()), d
}

func TestAll(t *testing.T) {
	all := All()
	require.Len(t, all, form.StepCount())
	assert.Equal(t, Step{Index: 0, Name: "Basic Information"}, all[0])
	assert.Equal(t, "Review", all[len(all)-1].Name)
}

func TestAdvance_SavesBeforeMoving(t *testing.T) {
	store := &stubStore{}
	nav, d := newNavigator(store)
	ctx := context.Background()

	err := nav.Advance(ctx)
	assert.True(t, apperr.IsValidation(err), "incomplete step blocks advance")
	assert.Empty(t, store.saves)
	assert.False(t, nav.CanAdvance())

	fillBasic(d)
	assert.True(t, nav.CanAdvance())
	require.NoError(t, nav.Advance(ctx))
	assert.Equal(t, []int{1}, store.saves, "saved with the next step as resume point")
	assert.Equal(t, 1, nav.Current().Index)
	assert.Equal(t, "app-1", d.ID())
}

func TestAdvance_SaveFailureKeepsStep(t *testing.T) {
	store := &stubStore{saveErr: &apperr.TransportError{Op: "create draft", Err: errors.New("offline")}}
	nav, d := newNavigator(store)
	fillBasic(d)

	err := nav.Advance(context.Background())
	assert.True(t, apperr.IsTransport(err))
	assert.Equal(t, 0, nav.Current().Index)
	assert.Equal(t, 0, d.CurrentStep())
}

func TestRetreat(t *testing.T) {
	store := &stubStore{}
	nav, d := newNavigator(store)
	ctx := context.Background()

	assert.ErrorIs(t, nav.Retreat(ctx), ErrFirstStep)

	fillBasic(d)
	require.NoError(t, nav.Advance(ctx))
	require.NoError(t, nav.Retreat(ctx), "retreat does not validate")
	assert.Equal(t, []int{1, 0}, store.saves)
	assert.True(t, nav.IsFirst())
}

func TestResume(t *testing.T) {
	nav, _ := newNavigator(&stubStore{})

	nav.Resume(&model.Application{ID: "app-1", Status: model.StatusDraft, CurrentStep: 2})
	assert.Equal(t, Step{Index: 2, Name: "Declarations"}, nav.Current())

	nav.Resume(&model.Application{ID: "app-1", Status: model.StatusDraft, CurrentStep: 17})
	assert.Equal(t, 0, nav.Current().Index)
}

func TestAdvance_TerminalStepSubmits(t *testing.T) {
	store := &stubStore{}
	nav, d := newNavigator(store)
	ctx := context.Background()

	fillBasic(d)
	fillRest(d)
	nav.Resume(&model.Application{ID: "app-1", Status: model.StatusDraft, CurrentStep: form.StepReview, Fields: d.Values()})
	require.True(t, nav.IsTerminal())

	err := nav.Advance(ctx)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["documents"])
	assert.Zero(t, store.submitted)

	d.SetFile(form.SlotTaxClearance, fileref.Upload{Name: "tax.pdf", Data: []byte("x")})
	require.NoError(t, nav.Advance(ctx))
	assert.Equal(t, 1, store.submitted)
	assert.Equal(t, model.StatusPendingProcurement, d.Status())

	err = nav.Advance(ctx)
	assert.True(t, apperr.IsPolicy(err), "submitted applications are read-only")
	assert.False(t, nav.CanAdvance())
}

func TestAdvance_ReloadFailureAfterSubmit(t *testing.T) {
	store := &stubStore{getErr: errors.New("connection reset")}
	nav, d := newNavigator(store)
	ctx := context.Background()

	fillBasic(d)
	fillRest(d)
	nav.Resume(&model.Application{ID: "app-1", Status: model.StatusDraft, CurrentStep: form.StepReview, Fields: d.Values()})
	d.SetFile(form.SlotTaxClearance, fileref.Upload{Name: "tax.pdf", Data: []byte("x")})

	err := nav.Advance(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReloadAfterSubmit)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1, store.submitted)
	assert.Equal(t, model.StatusPendingProcurement, d.Status(), "submission outcome is kept")
	assert.False(t, nav.CanAdvance())

	store.getErr = nil
	require.NoError(t, d.Refresh(ctx))
	assert.Equal(t, model.StatusPendingProcurement, d.Status())
}
