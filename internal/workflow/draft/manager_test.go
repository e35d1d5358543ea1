package draft

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplierportal/internal/apperr"
	"supplierportal/internal/model"
	"supplierportal/internal/workflow/fileref"
	"supplierportal/internal/workflow/form"
)

type fakeStore struct {
	mu           sync.Mutex
	created      []model.ApplicationPayload
	updated      []model.ApplicationPayload
	submitted    []model.ApplicationPayload
	createErr    error
	updateErr    error
	submitErr    error
	submitStatus model.Status
	record       *model.Application

	entered chan struct{}
	release chan struct{}
}

func (f *fakeStore) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
}

func (f *fakeStore) CreateDraft(_ context.Context, p model.ApplicationPayload) (string, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, p)
	return "app-1", nil
}

func (f *fakeStore) UpdateDraft(_ context.Context, _ string, p model.ApplicationPayload) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, p)
	return nil
}

func (f *fakeStore) Submit(_ context.Context, _ string, p model.ApplicationPayload) (model.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, p)
	return f.submitStatus, nil
}

func (f *fakeStore) GetByID(_ context.Context, _ string) (*model.Application, error) {
	if f.record == nil {
		return nil, apperr.ErrNotFound
	}
	return f.record, nil
}

type fakeUploader struct {
	calls []string
	err   error
}

func (u *fakeUploader) UploadFile(_ context.Context, appID, slot string, up fileref.Upload) error {
	if u.err != nil {
		return u.err
	}
	u.calls = append(u.calls, appID+"/"+slot+"/"+up.Name)
	return nil
}

func strPtr(s string) *string { return &s }

func upload(name string) fileref.Upload {
	return fileref.Upload{Name: name, ContentType: "application/pdf", Data: []byte("%PDF")}
}

func TestToPersistablePayload_IsIdempotent(t *testing.T) {
	m := New(&fakeStore{}, nil)
	m.Patch(form.FieldSupplierName, "Acme")
	m.Patch(form.FieldEmployeeCount, float64(12))
	m.SetFile(form.SlotTaxClearance, upload("tax.pdf"))

	first := m.ToPersistablePayload(model.StatusDraft, 1)
	second := m.ToPersistablePayload(model.StatusDraft, 1)
	assert.Equal(t, first, second)
}

func TestToPersistablePayload_FullSnapshot(t *testing.T) {
	m := New(&fakeStore{}, nil)
	m.Patch(form.FieldSupplierName, "Acme")
	m.Patch("legacyNote", "kept")

	p := m.ToPersistablePayload(model.StatusDraft, 2)

	assert.Equal(t, model.StatusDraft, p.Status)
	assert.Equal(t, 2, p.CurrentStep)
	assert.Equal(t, "Acme", p.Fields[form.FieldSupplierName])
	assert.Equal(t, "", p.Fields[form.FieldTradingName], "unset text falls back to empty string")
	assert.Contains(t, p.Fields, form.FieldEmployeeCount)
	assert.Nil(t, p.Fields[form.FieldEmployeeCount])
	assert.Equal(t, "kept", p.Fields["legacyNote"])

	for _, s := range form.FileSlots {
		if s.List {
			assert.Contains(t, p.FileLists, s.Name)
			assert.Empty(t, p.FileLists[s.Name])
		} else {
			assert.Contains(t, p.Files, s.Name)
			assert.Nil(t, p.Files[s.Name])
		}
	}
}

func TestToPersistablePayload_OutOfRangeStepClamps(t *testing.T) {
	m := New(&fakeStore{}, nil)
	assert.Equal(t, 0, m.ToPersistablePayload(model.StatusDraft, 99).CurrentStep)
	assert.Equal(t, 0, m.ToPersistablePayload(model.StatusDraft, -1).CurrentStep)
}

func TestUntouchedFileFieldIsNotRegressed(t *testing.T) {
	m := New(&fakeStore{}, nil)
	m.Load(&model.Application{
		ID:        "app-1",
		Status:    model.StatusDraft,
		Files:     map[string]*string{form.SlotCertificateOfIncorporation: strPtr("cert.pdf")},
		FileLists: map[string][]string{form.SlotDirectorIDs: {"id1.pdf", "id2.pdf"}},
	})

	m.Patch(form.FieldSupplierName, "Acme")
	p := m.ToPersistablePayload(model.StatusDraft, 1)

	require.NotNil(t, p.Files[form.SlotCertificateOfIncorporation])
	assert.Equal(t, "cert.pdf", *p.Files[form.SlotCertificateOfIncorporation])
	assert.Equal(t, []string{"id1.pdf", "id2.pdf"}, p.FileLists[form.SlotDirectorIDs])
}

func TestExplicitClearTransmitsNull(t *testing.T) {
	m := New(&fakeStore{}, nil)
	m.Load(&model.Application{
		ID:        "app-1",
		Files:     map[string]*string{form.SlotTaxClearance: strPtr("tax.pdf")},
		FileLists: map[string][]string{form.SlotDirectorIDs: {"id1.pdf"}},
	})

	m.RemoveFile(form.SlotTaxClearance)
	m.RemoveFile(form.SlotDirectorIDs)
	p := m.ToPersistablePayload(model.StatusDraft, 1)

	assert.Nil(t, p.Files[form.SlotTaxClearance])
	assert.NotNil(t, p.FileLists[form.SlotDirectorIDs])
	assert.Empty(t, p.FileLists[form.SlotDirectorIDs])
}

func TestLoad_LegalNatureRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		label  string
		sent   string
	}{
		{name: "known code", stored: form.LegalNatureTrust, label: "Trust", sent: form.LegalNatureTrust},
		{name: "legacy code", stored: "LLC", label: form.LegalNatureFallbackLabel, sent: form.LegalNatureOther},
		{name: "empty", stored: "", label: "", sent: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(&fakeStore{}, nil)
			m.Load(&model.Application{ID: "a", Fields: map[string]any{form.FieldLegalNature: tt.stored}})

			assert.Equal(t, tt.label, m.Values()[form.FieldLegalNature])
			assert.Equal(t, tt.sent, m.ToPersistablePayload(model.StatusDraft, 0).Fields[form.FieldLegalNature])
		})
	}
}

func TestLoad_ResetsStepAndState(t *testing.T) {
	m := New(&fakeStore{}, nil)
	m.Patch(form.FieldSupplierName, "stale")

	vn := "V-1"
	m.Load(&model.Application{
		ID:              "app-9",
		OwnerID:         "u-1",
		Status:          model.StatusApproved,
		CurrentStep:     42,
		VendorNumber:    &vn,
		ApprovalHistory: []model.HistoryEntry{{Action: model.ActionSubmit}},
	})

	snap := m.Snapshot()
	assert.Equal(t, "app-9", snap.ID)
	assert.Equal(t, model.StatusApproved, snap.Status)
	assert.Equal(t, 0, snap.CurrentStep)
	assert.NotContains(t, snap.Fields, form.FieldSupplierName)
	require.NotNil(t, snap.VendorNumber)
	assert.Equal(t, "V-1", *snap.VendorNumber)
	assert.Len(t, snap.History, 1)

	vn = "changed"
	assert.Equal(t, "V-1", *m.Snapshot().VendorNumber)
}

func TestSave_CreatesThenUpdates(t *testing.T) {
	store := &fakeStore{}
	up := &fakeUploader{}
	m := New(store, up)
	ctx := context.Background()

	m.Patch(form.FieldSupplierName, "Acme")
	require.NoError(t, m.Save(ctx, 1))
	assert.Equal(t, "app-1", m.ID())
	assert.Equal(t, 1, m.CurrentStep())
	require.Len(t, store.created, 1)

	m.Patch(form.FieldTradingName, "Acme Trading")
	require.NoError(t, m.Save(ctx, 2))
	require.Len(t, store.updated, 1)
	assert.Equal(t, "Acme Trading", store.updated[0].Fields[form.FieldTradingName])
	assert.Equal(t, 2, store.updated[0].CurrentStep)
}

func TestSave_UploadsPendingOnceAndCommits(t *testing.T) {
	store := &fakeStore{}
	up := &fakeUploader{}
	m := New(store, up)
	ctx := context.Background()

	m.SetFile(form.SlotTaxClearance, upload("tax.pdf"))
	assert.Nil(t, m.AddFiles(form.SlotDirectorIDs, upload("a.pdf"), upload("b.pdf")))

	require.NoError(t, m.Save(ctx, 1))
	assert.Equal(t, []string{
		"app-1/" + form.SlotTaxClearance + "/tax.pdf",
		"app-1/" + form.SlotDirectorIDs + "/a.pdf",
		"app-1/" + form.SlotDirectorIDs + "/b.pdf",
	}, up.calls)
	assert.Equal(t, "tax.pdf", *store.created[0].Files[form.SlotTaxClearance])

	require.NoError(t, m.Save(ctx, 1))
	assert.Len(t, up.calls, 3, "committed uploads are not sent again")
	assert.Equal(t, "tax.pdf", *store.updated[0].Files[form.SlotTaxClearance])
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, store.updated[0].FileLists[form.SlotDirectorIDs])
	assert.Equal(t, 3, m.AttachedDocuments())
}

func TestSave_FailureLeavesStateUntouched(t *testing.T) {
	store := &fakeStore{}
	up := &fakeUploader{err: errors.New("bucket unavailable")}
	m := New(store, up)
	ctx := context.Background()

	m.SetFile(form.SlotTaxClearance, upload("tax.pdf"))
	err := m.Save(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
	assert.Equal(t, 0, m.CurrentStep())
	assert.Equal(t, fileref.Pending, m.Snapshot().Files[form.SlotTaxClearance].Kind())

	up.err = nil
	require.NoError(t, m.Save(ctx, 1))
	assert.Len(t, up.calls, 1)
	assert.Equal(t, fileref.Persisted, m.Snapshot().Files[form.SlotTaxClearance].Kind())

	store.updateErr = &apperr.TransportError{Op: "update draft", Err: errors.New("timeout")}
	m.Patch(form.FieldSupplierName, "Acme")
	err = m.Save(ctx, 2)
	assert.True(t, apperr.IsTransport(err))
	assert.Equal(t, 1, m.CurrentStep())
}

func TestSave_RejectsConcurrentSave(t *testing.T) {
	store := &fakeStore{entered: make(chan struct{}), release: make(chan struct{})}
	m := New(store, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- m.Save(ctx, 1) }()
	<-store.entered

	assert.True(t, m.Saving())
	assert.ErrorIs(t, m.Save(ctx, 1), ErrSaveInFlight)
	_, err := m.Submit(ctx, 3)
	assert.ErrorIs(t, err, ErrSaveInFlight)

	close(store.release)
	require.NoError(t, <-done)
	assert.False(t, m.Saving())
}

func TestSave_KeepsFilesPickedMidSave(t *testing.T) {
	store := &fakeStore{}
	up := &fakeUploader{}
	m := New(store, up)
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, 1))

	store.entered = make(chan struct{})
	store.release = make(chan struct{})
	m.SetFile(form.SlotTaxClearance, upload("tax-v1.pdf"))
	m.AddFiles(form.SlotDirectorIDs, upload("id-a.pdf"))

	done := make(chan error, 1)
	go func() { done <- m.Save(ctx, 2) }()
	<-store.entered

	m.SetFile(form.SlotTaxClearance, upload("tax-v2.pdf"))
	m.AddFiles(form.SlotDirectorIDs, upload("id-b.pdf"))

	close(store.release)
	require.NoError(t, <-done)
	store.entered, store.release = nil, nil

	assert.Equal(t, []string{"app-1/" + form.SlotTaxClearance + "/tax-v1.pdf", "app-1/" + form.SlotDirectorIDs + "/id-a.pdf"}, up.calls)

	snap := m.Snapshot()
	tax := snap.Files[form.SlotTaxClearance]
	assert.Equal(t, fileref.Pending, tax.Kind(), "picked after the payload was built")
	assert.Equal(t, "tax-v2.pdf", tax.Name())
	ids := snap.FileLists[form.SlotDirectorIDs]
	require.Len(t, ids, 2)
	assert.Equal(t, fileref.Persisted, ids[0].Kind())
	assert.Equal(t, fileref.Pending, ids[1].Kind())

	up.calls = nil
	require.NoError(t, m.Save(ctx, 2))
	assert.Equal(t, []string{"app-1/" + form.SlotTaxClearance + "/tax-v2.pdf", "app-1/" + form.SlotDirectorIDs + "/id-b.pdf"}, up.calls)
	last := store.updated[len(store.updated)-1]
	require.NotNil(t, last.Files[form.SlotTaxClearance])
	assert.Equal(t, "tax-v2.pdf", *last.Files[form.SlotTaxClearance])
	assert.Equal(t, []string{"id-a.pdf", "id-b.pdf"}, last.FileLists[form.SlotDirectorIDs])
	assert.Equal(t, fileref.Persisted, m.Snapshot().Files[form.SlotTaxClearance].Kind())
}

func TestAddFiles_CapWarning(t *testing.T) {
	m := New(&fakeStore{}, nil)
	var uploads []fileref.Upload
	for i := 0; i < fileref.DefaultMaxListItems+2; i++ {
		uploads = append(uploads, upload("id.pdf"))
	}

	warn := m.AddFiles(form.SlotDirectorIDs, uploads...)
	require.NotNil(t, warn)
	assert.Equal(t, 2, warn.Discarded)
	assert.Len(t, m.Snapshot().FileLists[form.SlotDirectorIDs], fileref.DefaultMaxListItems)

	assert.Nil(t, m.AddFiles("notAList", upload("x.pdf")))
}

func TestSubmit_RecordsServerStatus(t *testing.T) {
	store := &fakeStore{submitStatus: model.StatusPendingProcurement}
	m := New(store, &fakeUploader{})
	ctx := context.Background()

	m.SetFile(form.SlotTaxClearance, upload("tax.pdf"))
	got, err := m.Submit(ctx, form.StepReview)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingProcurement, got)
	assert.Equal(t, model.StatusPendingProcurement, m.Status())
	require.Len(t, store.submitted, 1)
	assert.Equal(t, model.StatusDraft, store.submitted[0].Status)

	store.submitErr = apperr.Conflict("application is no longer a draft")
	_, err = m.Submit(ctx, form.StepReview)
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, model.StatusPendingProcurement, m.Status())
}

func TestRefresh(t *testing.T) {
	store := &fakeStore{}
	m := New(store, nil)
	assert.NoError(t, m.Refresh(context.Background()), "nothing to refresh before the first save")

	require.NoError(t, m.Save(context.Background(), 0))
	err := m.Refresh(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	store.record = &model.Application{ID: "app-1", Status: model.StatusMoreInfoRequired, CurrentStep: 2}
	require.NoError(t, m.Refresh(context.Background()))
	assert.Equal(t, model.StatusMoreInfoRequired, m.Status())
	assert.Equal(t, 2, m.CurrentStep())
}

func TestAttachedDocuments_CountsEachFileOnce(t *testing.T) {
	tax := "tax.pdf"
	m := New(&fakeStore{}, nil)
	m.Load(&model.Application{
		ID:        "app-1",
		Status:    model.StatusDraft,
		Files:     map[string]*string{form.SlotTaxClearance: &tax},
		FileLists: map[string][]string{form.SlotDirectorIDs: {"a.pdf", "b.pdf"}},
		Documents: []model.Document{
			{ID: "d-1", DocumentType: form.SlotTaxClearance, OriginalName: "tax.pdf"},
			{ID: "d-2", DocumentType: form.SlotDirectorIDs, OriginalName: "a.pdf"},
			{ID: "d-3", DocumentType: form.SlotDirectorIDs, OriginalName: "b.pdf"},
			{ID: "d-4", DocumentType: "supporting", OriginalName: "letter.pdf"},
		},
	})
	assert.Equal(t, 4, m.AttachedDocuments())

	m.RemoveFile(form.SlotTaxClearance)
	assert.Equal(t, 4, m.AttachedDocuments(), "the stored row still counts")
}
