// Package draft owns the in-progress supplier application: every step's
// scalar fields and file slots, the resume step, and the save cycle that
// turns them into full-snapshot payloads.
package draft

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"supplierportal/internal/model"
	"supplierportal/internal/workflow/fileref"
	"supplierportal/internal/workflow/form"
)

// ErrSaveInFlight is returned when a save or submit starts while another one
// for the same draft has not finished.
var ErrSaveInFlight = errors.New("a save for this application is already in progress")

// Collaborator persists drafts. The server replaces the stored draft with
// each payload.
type Collaborator interface {
	CreateDraft(ctx context.Context, payload model.ApplicationPayload) (string, error)
	UpdateDraft(ctx context.Context, id string, payload model.ApplicationPayload) error
	Submit(ctx context.Context, id string, payload model.ApplicationPayload) (model.Status, error)
	GetByID(ctx context.Context, id string) (*model.Application, error)
}

// Uploader transports the bytes of pending uploads. The payload only ever
// carries their names.
type Uploader interface {
	UploadFile(ctx context.Context, applicationID, slot string, upload fileref.Upload) error
}

// Manager is the single aggregate behind the multi-step form.
type Manager struct {
	store    Collaborator
	uploader Uploader
	saving   atomic.Bool

	mu              sync.Mutex
	id              string
	ownerID         string
	status          model.Status
	currentStep     int
	fields          map[string]any
	slots           map[string]*fileref.Slot
	lists           map[string]*fileref.ListSlot
	vendorNumber    *string
	rejectionReason *string
	history         []model.HistoryEntry
	documents       []model.Document
}

// New returns an empty draft. uploader may be nil when no slot will ever hold
// a pending upload.
func New(store Collaborator, uploader Uploader) *Manager {
	m := &Manager{store: store, uploader: uploader}
	m.reset()
	return m
}

func (m *Manager) reset() {
	m.id = ""
	m.ownerID = ""
	m.status = model.StatusDraft
	m.currentStep = 0
	m.fields = map[string]any{}
	m.slots = map[string]*fileref.Slot{}
	m.lists = map[string]*fileref.ListSlot{}
	m.vendorNumber = nil
	m.rejectionReason = nil
	m.history = nil
	m.documents = nil
	for _, s := range form.FileSlots {
		if s.List {
			m.lists[s.Name] = fileref.NewListSlot(s.Name, s.Max, nil)
		} else {
			m.slots[s.Name] = fileref.NewSlot(nil)
		}
	}
}

// Patch assigns a field in memory. File slots accept a fileref.Upload,
// a []fileref.Upload (list slots) or nil to clear. It does no I/O and never
// fails; values of the wrong shape for a file slot are ignored.
func (m *Manager) Patch(field string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if slot, ok := m.slots[field]; ok {
		switch v := value.(type) {
		case nil:
			slot.Clear()
		case fileref.Upload:
			slot.Set(v)
		case *fileref.Upload:
			if v == nil {
				slot.Clear()
			} else {
				slot.Set(*v)
			}
		}
		return
	}
	if list, ok := m.lists[field]; ok {
		switch v := value.(type) {
		case nil:
			list.Clear()
		case fileref.Upload:
			list.Add(v)
		case []fileref.Upload:
			list.Add(v...)
		}
		return
	}
	m.fields[field] = value
}

// SetFile puts a pending upload into a single-valued slot.
func (m *Manager) SetFile(slot string, u fileref.Upload) {
	m.Patch(slot, u)
}

// AddFiles appends uploads to a list slot. The returned warning is non-nil
// when some were discarded for exceeding the slot's bound.
func (m *Manager) AddFiles(slot string, uploads ...fileref.Upload) *fileref.CapWarning {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, ok := m.lists[slot]
	if !ok {
		return nil
	}
	return list.Add(uploads...)
}

// RemoveFile explicitly clears a slot. The next save transmits null (or an
// empty list).
func (m *Manager) RemoveFile(slot string) {
	m.Patch(slot, nil)
}

// RemoveFileAt drops one entry of a list slot.
func (m *Manager) RemoveFileAt(slot string, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if list, ok := m.lists[slot]; ok {
		list.Remove(index)
	}
}

// Load replaces the in-memory state with a persisted record. Coded enums are
// expanded to their display labels.
func (m *Manager) Load(rec *model.Application) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	if rec == nil {
		return
	}

	m.id = rec.ID
	m.ownerID = rec.OwnerID
	if rec.Status.Valid() {
		m.status = rec.Status
	}
	m.currentStep = ClampStep(rec.CurrentStep)
	for k, v := range rec.Fields {
		m.fields[k] = v
	}
	if code, ok := m.fields[form.FieldLegalNature].(string); ok {
		m.fields[form.FieldLegalNature] = form.ExpandLegalNature(form.CollapseLegalNature(code))
	}

	for name, ref := range rec.Files {
		if slot, ok := m.slots[name]; ok {
			slot.Reset(ref)
		} else {
			m.slots[name] = fileref.NewSlot(ref)
		}
	}
	for name, refs := range rec.FileLists {
		if list, ok := m.lists[name]; ok {
			list.Reset(refs)
		} else {
			m.lists[name] = fileref.NewListSlot(name, fileref.DefaultMaxListItems, refs)
		}
	}

	m.vendorNumber = copyString(rec.VendorNumber)
	m.rejectionReason = copyString(rec.RejectionReason)
	m.history = append([]model.HistoryEntry(nil), rec.ApprovalHistory...)
	m.documents = append([]model.Document(nil), rec.Documents...)
}

// ToPersistablePayload builds the full outbound snapshot. Calling it twice
// without an intervening mutation yields equal payloads.
func (m *Manager) ToPersistablePayload(target model.Status, step int) model.ApplicationPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payload(target, step)
}

func (m *Manager) payload(target model.Status, step int) model.ApplicationPayload {
	p := model.ApplicationPayload{
		Status:      target,
		CurrentStep: ClampStep(step),
		Fields:      make(map[string]any, len(form.Fields)),
		Files:       make(map[string]*string, len(m.slots)),
		FileLists:   make(map[string][]string, len(m.lists)),
	}

	for k, v := range m.fields {
		p.Fields[k] = v
	}
	for _, f := range form.Fields {
		v, ok := p.Fields[f.Name]
		if (!ok || v == nil) && f.Kind == form.Text {
			p.Fields[f.Name] = ""
		} else if !ok {
			p.Fields[f.Name] = nil
		}
	}
	if label, ok := p.Fields[form.FieldLegalNature].(string); ok {
		p.Fields[form.FieldLegalNature] = form.CollapseLegalNature(label)
	}

	for name, slot := range m.slots {
		p.Files[name] = slot.Value()
	}
	for name, list := range m.lists {
		p.FileLists[name] = list.Value()
	}
	return p
}

// Save persists the draft with step as its resume point: it creates the
// record on first save, transports pending uploads, then makes the
// transmitted file references the new baseline. On failure nothing in memory
// changes except a newly assigned id.
func (m *Manager) Save(ctx context.Context, step int) error {
	if !m.saving.CompareAndSwap(false, true) {
		return ErrSaveInFlight
	}
	defer m.saving.Store(false)

	m.mu.Lock()
	status := m.status
	m.mu.Unlock()

	payload, sent, err := m.persist(ctx, status, step)
	if err != nil {
		return err
	}
	m.commit(payload.CurrentStep, sent)
	return nil
}

// Submit saves the final snapshot and asks the collaborator for the submit
// transition. The returned status is the server's; it is recorded as is.
func (m *Manager) Submit(ctx context.Context, step int) (model.Status, error) {
	if !m.saving.CompareAndSwap(false, true) {
		return "", ErrSaveInFlight
	}
	defer m.saving.Store(false)

	payload, sent, err := m.persist(ctx, model.StatusDraft, step)
	if err != nil {
		return "", err
	}
	m.commit(payload.CurrentStep, sent)

	id := m.ID()
	next, err := m.store.Submit(ctx, id, payload)
	if err != nil {
		return "", fmt.Errorf("submit application %s: %w", id, err)
	}

	m.mu.Lock()
	m.status = next
	m.mu.Unlock()
	return next, nil
}

// Refresh reloads the record from the collaborator.
func (m *Manager) Refresh(ctx context.Context) error {
	id := m.ID()
	if id == "" {
		return nil
	}
	rec, err := m.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("refresh application %s: %w", id, err)
	}
	m.Load(rec)
	return nil
}

func (m *Manager) persist(ctx context.Context, status model.Status, step int) (model.ApplicationPayload, sentFiles, error) {
	m.mu.Lock()
	id := m.id
	payload := m.payload(status, step)
	uploads := m.pendingUploads()
	sent := m.sentFiles()
	m.mu.Unlock()

	if id == "" {
		newID, err := m.store.CreateDraft(ctx, payload)
		if err != nil {
			return payload, sent, fmt.Errorf("create draft: %w", err)
		}
		m.mu.Lock()
		m.id = newID
		m.mu.Unlock()
		id = newID
	} else if err := m.store.UpdateDraft(ctx, id, payload); err != nil {
		return payload, sent, fmt.Errorf("update draft %s: %w", id, err)
	}

	for _, pu := range uploads {
		if m.uploader == nil {
			return payload, sent, fmt.Errorf("upload %s: no uploader configured", pu.slot)
		}
		if err := m.uploader.UploadFile(ctx, id, pu.slot, pu.upload); err != nil {
			return payload, sent, fmt.Errorf("upload %s: %w", pu.slot, err)
		}
	}
	return payload, sent, nil
}

// sentFiles is the file state a save transmitted, per slot name.
type sentFiles struct {
	slots map[string]fileref.Sent
	lists map[string]fileref.ListSent
}

// sentFiles records what the payload being built carries. Callers hold mu.
func (m *Manager) sentFiles() sentFiles {
	out := sentFiles{
		slots: make(map[string]fileref.Sent, len(m.slots)),
		lists: make(map[string]fileref.ListSent, len(m.lists)),
	}
	for name, slot := range m.slots {
		out.slots[name] = slot.Snapshot()
	}
	for name, list := range m.lists {
		out.lists[name] = list.Snapshot()
	}
	return out
}

type pendingUpload struct {
	slot   string
	upload fileref.Upload
}

// pendingUploads lists uploads in a stable order. Callers hold mu.
func (m *Manager) pendingUploads() []pendingUpload {
	var out []pendingUpload
	for _, name := range sortedKeys(m.slots) {
		if u := m.slots[name].Pending(); u != nil {
			out = append(out, pendingUpload{slot: name, upload: *u})
		}
	}
	for _, name := range sortedKeys(m.lists) {
		for _, u := range m.lists[name].Pending() {
			out = append(out, pendingUpload{slot: name, upload: u})
		}
	}
	return out
}

// commit promotes only what the save transmitted. Files picked while the
// save was in flight stay pending for the next one.
func (m *Manager) commit(step int, sent sentFiles) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, slot := range m.slots {
		if s, ok := sent.slots[name]; ok {
			slot.CommitSent(s)
		}
	}
	for name, list := range m.lists {
		if s, ok := sent.lists[name]; ok {
			list.CommitSent(s)
		}
	}
	m.currentStep = step
}

func (m *Manager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

func (m *Manager) Status() model.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// CurrentStep is the resume point last loaded or saved.
func (m *Manager) CurrentStep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentStep
}

// Saving reports whether a save is in flight.
func (m *Manager) Saving() bool { return m.saving.Load() }

// Values returns a copy of the scalar fields as currently held.
func (m *Manager) Values() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]any, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out
}

// AttachedDocuments counts distinct files across the slots and the stored
// document rows. A slot reference and the row its upload created count once.
func (m *Manager) AttachedDocuments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	add := func(slot, name string) {
		if name != "" {
			seen[slot+"/"+name] = struct{}{}
		}
	}
	for name, slot := range m.slots {
		if v := slot.Value(); v != nil {
			add(name, *v)
		}
	}
	for name, list := range m.lists {
		for _, v := range list.Value() {
			add(name, v)
		}
	}
	for _, d := range m.documents {
		if d.OriginalName == "" {
			add("#", d.ID)
			continue
		}
		add(d.DocumentType, d.OriginalName)
	}
	return len(seen)
}

// Snapshot is a read model for rendering.
type Snapshot struct {
	ID              string
	Status          model.Status
	CurrentStep     int
	Fields          map[string]any
	Files           map[string]fileref.Ref
	FileLists       map[string][]fileref.Ref
	VendorNumber    *string
	RejectionReason *string
	History         []model.HistoryEntry
	Documents       []model.Document
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{
		ID:              m.id,
		Status:          m.status,
		CurrentStep:     m.currentStep,
		Fields:          make(map[string]any, len(m.fields)),
		Files:           make(map[string]fileref.Ref, len(m.slots)),
		FileLists:       make(map[string][]fileref.Ref, len(m.lists)),
		VendorNumber:    copyString(m.vendorNumber),
		RejectionReason: copyString(m.rejectionReason),
		History:         append([]model.HistoryEntry(nil), m.history...),
		Documents:       append([]model.Document(nil), m.documents...),
	}
	for k, v := range m.fields {
		s.Fields[k] = v
	}
	for name, slot := range m.slots {
		s.Files[name] = slot.Display()
	}
	for name, list := range m.lists {
		s.FileLists[name] = list.Items()
	}
	return s
}

// ClampStep maps an out-of-range step to the first step.
func ClampStep(step int) int {
	if step < 0 || step >= form.StepCount() {
		return 0
	}
	return step
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
