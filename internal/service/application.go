package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"supplierportal/internal/apperr"
	"supplierportal/internal/metrics"
	"supplierportal/internal/model"
	"supplierportal/internal/repository"
	"supplierportal/internal/workflow/form"
	"supplierportal/internal/workflow/status"
)

var ErrIDRequired = errors.New("id is required")

const (
	defaultLimit = 10
	maxLimit     = 100
)

var tracer = otel.Tracer("supplierportal/internal/service")

// ApplicationListResult is the service-level DTO for paginated applications.
type ApplicationListResult struct {
	Items []model.Application `json:"data"`
	Total int                 `json:"total"`
}

// ApplicationService holds the server side of the onboarding workflow. Every
// status change goes through the status machine and lands together with its
// history entry.
type ApplicationService interface {
	// CreateDraft starts a new application owned by actor.
	CreateDraft(ctx context.Context, actor model.Actor, payload model.ApplicationPayload) (*model.Application, error)

	// UpdateDraft replaces the content of a draft the actor owns.
	UpdateDraft(ctx context.Context, actor model.Actor, id string, payload model.ApplicationPayload) (*model.Application, error)

	// Submit validates the final content and moves the draft into review.
	// A non-nil payload replaces the stored content in the same step.
	Submit(ctx context.Context, actor model.Actor, id string, payload *model.ApplicationPayload) (*model.Application, error)

	// Get returns one application with its history and documents.
	Get(ctx context.Context, actor model.Actor, id string) (*model.Application, error)

	// ListMine returns the actor's own applications.
	ListMine(ctx context.Context, actor model.Actor, limit, offset int) (*ApplicationListResult, error)

	// ListTasks returns applications the actor's role can act on.
	ListTasks(ctx context.Context, actor model.Actor, limit, offset int) (*ApplicationListResult, error)

	// Transition applies a reviewer action and returns the updated record.
	Transition(ctx context.Context, actor model.Actor, id string, action model.Action, in model.TransitionInput) (*model.Application, error)
}

type applicationService struct {
	apps      repository.ApplicationRepository
	docs      repository.DocumentRepository
	machine   *status.Machine
	validator *form.Validator
	metrics   *metrics.Workflow
	log       logrus.FieldLogger
	maxItems  int
}

// ApplicationDeps groups what NewApplicationService needs. Metrics may be nil.
type ApplicationDeps struct {
	Applications repository.ApplicationRepository
	Documents    repository.DocumentRepository
	Machine      *status.Machine
	Validator    *form.Validator
	Metrics      *metrics.Workflow
	Log          logrus.FieldLogger
	MaxListItems int
}

// NewApplicationService constructs a new ApplicationService.
func NewApplicationService(d ApplicationDeps) ApplicationService {
	if d.Machine == nil {
		d.Machine = status.NewMachine(nil)
	}
	if d.Validator == nil {
		d.Validator = form.NewValidator()
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return &applicationService{
		apps:      d.Applications,
		docs:      d.Documents,
		machine:   d.Machine,
		validator: d.Validator,
		metrics:   d.Metrics,
		log:       d.Log.WithField("component", "application_service"),
		maxItems:  d.MaxListItems,
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *applicationService) CreateDraft(ctx context.Context, actor model.Actor, payload model.ApplicationPayload) (_ *model.Application, err error) {
	ctx, span := startSpan(ctx, "ApplicationService.CreateDraft", attribute.String("actor.id", actor.ID))
	defer func() { endSpan(span, err) }()

	if actor.Role != model.RoleApplicant {
		return nil, apperr.Policy("only applicants may start an application")
	}
	if err := s.checkDraftPayload(payload); err != nil {
		return nil, err
	}

	app, err := s.apps.Create(ctx, &model.Application{
		OwnerID:     actor.ID,
		Status:      model.StatusDraft,
		CurrentStep: payload.CurrentStep,
		Fields:      payload.Fields,
		Files:       payload.Files,
		FileLists:   payload.FileLists,
	})
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	s.log.WithFields(logrus.Fields{"event": "draft_created", "application_id": app.ID, "owner_id": actor.ID}).Info("draft created")
	return app, nil
}

func (s *applicationService) UpdateDraft(ctx context.Context, actor model.Actor, id string, payload model.ApplicationPayload) (_ *model.Application, err error) {
	ctx, span := startSpan(ctx, "ApplicationService.UpdateDraft", attribute.String("application.id", id))
	defer func() { endSpan(span, err) }()

	if id == "" {
		return nil, ErrIDRequired
	}
	if err := s.checkDraftPayload(payload); err != nil {
		return nil, err
	}
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(app, actor); err != nil {
		return nil, err
	}
	if app.Status != model.StatusDraft {
		return nil, apperr.Policy("application is %s; only drafts can be edited", app.Status)
	}

	updated, err := s.apps.UpdateDraft(ctx, id, payload)
	if err != nil {
		return nil, fmt.Errorf("update draft %s: %w", id, err)
	}
	return updated, nil
}

func (s *applicationService) Submit(ctx context.Context, actor model.Actor, id string, payload *model.ApplicationPayload) (_ *model.Application, err error) {
	ctx, span := startSpan(ctx, "ApplicationService.Submit", attribute.String("application.id", id))
	defer func() { endSpan(span, err) }()
	defer func() { s.refused(metrics.SubjectApplication, model.ActionSubmit, err) }()

	if id == "" {
		return nil, ErrIDRequired
	}
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(app, actor); err != nil {
		return nil, err
	}

	if payload != nil {
		if err := s.checkDraftPayload(*payload); err != nil {
			return nil, err
		}
		app.Fields, app.Files, app.FileLists = payload.Fields, payload.Files, payload.FileLists
		app.CurrentStep = payload.CurrentStep
	}

	// file names in the payload prove nothing; only uploaded documents count
	attached, err := s.docs.CountByApplication(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if err := s.validator.Submission(app.Fields, attached); err != nil {
		return nil, err
	}

	out, err := s.machine.Fire(app, status.Request{Action: model.ActionSubmit, Actor: actor, AttachedDocuments: attached})
	if err != nil {
		return nil, err
	}
	t := repository.Transition{From: out.From, To: out.To, Entry: out.Entry}
	if payload != nil {
		p := *payload
		p.Status = out.To
		t.Payload = &p
	}
	if err := s.apps.Transition(ctx, id, t); err != nil {
		return nil, fmt.Errorf("submit application %s: %w", id, err)
	}
	s.accepted(id, out)
	return s.reload(ctx, id)
}

func (s *applicationService) Get(ctx context.Context, actor model.Actor, id string) (_ *model.Application, err error) {
	ctx, span := startSpan(ctx, "ApplicationService.Get", attribute.String("application.id", id))
	defer func() { endSpan(span, err) }()

	if id == "" {
		return nil, ErrIDRequired
	}
	app, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleApplicant {
		if err := requireOwner(app, actor); err != nil {
			return nil, err
		}
	}
	return app, nil
}

func (s *applicationService) ListMine(ctx context.Context, actor model.Actor, limit, offset int) (*ApplicationListResult, error) {
	res, err := s.apps.ListByOwner(ctx, actor.ID, page(limit, offset))
	if err != nil {
		return nil, err
	}
	return &ApplicationListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *applicationService) ListTasks(ctx context.Context, actor model.Actor, limit, offset int) (*ApplicationListResult, error) {
	if actor.Role == model.RoleApplicant {
		return nil, apperr.Policy("applicants have no review tasks")
	}
	res, err := s.apps.ListByStatus(ctx, status.ActionableStatuses(actor.Role), page(limit, offset))
	if err != nil {
		return nil, err
	}
	return &ApplicationListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *applicationService) Transition(ctx context.Context, actor model.Actor, id string, action model.Action, in model.TransitionInput) (_ *model.Application, err error) {
	ctx, span := startSpan(ctx, "ApplicationService.Transition",
		attribute.String("application.id", id),
		attribute.String("workflow.action", string(action)),
	)
	defer func() { endSpan(span, err) }()
	defer func() { s.refused(metrics.SubjectApplication, action, err) }()

	if id == "" {
		return nil, ErrIDRequired
	}
	if action == model.ActionSubmit {
		return nil, apperr.Policy("submit has its own operation")
	}
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.StaleStatus(string(app.Status)) {
		return nil, &apperr.ConflictError{Message: "application status changed", Expected: in.ExpectedStatus, Actual: string(app.Status)}
	}

	out, err := s.machine.Fire(app, status.Request{
		Action:       action,
		Actor:        actor,
		Comments:     in.Comments,
		VendorNumber: in.VendorNumber,
	})
	if err != nil {
		return nil, err
	}
	err = s.apps.Transition(ctx, id, repository.Transition{
		From:            out.From,
		To:              out.To,
		Entry:           out.Entry,
		VendorNumber:    out.VendorNumber,
		RejectionReason: out.RejectionReason,
	})
	if err != nil {
		return nil, fmt.Errorf("%s application %s: %w", action, id, err)
	}
	s.accepted(id, out)
	return s.reload(ctx, id)
}

// checkDraftPayload enforces the wire rules of a draft save. Field content is
// not validated here; drafts may be incomplete.
func (s *applicationService) checkDraftPayload(p model.ApplicationPayload) error {
	if p.Status != "" && p.Status != model.StatusDraft {
		return apperr.Policy("status cannot be set through a draft save")
	}
	if p.CurrentStep < 0 || p.CurrentStep >= form.StepCount() {
		return &apperr.ValidationError{Fields: map[string]string{"current_step": "range"}}
	}
	for slot, refs := range p.FileLists {
		fs, ok := form.SlotByName(slot)
		if !ok || !fs.List {
			continue
		}
		limit := fs.Max
		if s.maxItems > 0 {
			limit = s.maxItems
		}
		if limit > 0 && len(refs) > limit {
			return &apperr.ValidationError{
				Message: fmt.Sprintf("%s holds at most %d files", slot, limit),
				Fields:  map[string]string{slot: "max"},
			}
		}
	}
	return nil
}

func (s *applicationService) reload(ctx context.Context, id string) (*model.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.docs == nil {
		return app, nil
	}
	docs, err := s.docs.ListByApplication(ctx, id, repository.PageQuery{Limit: maxLimit})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	app.Documents = docs.Items
	return app, nil
}

func (s *applicationService) accepted(id string, out status.Outcome) {
	s.metrics.Transition(metrics.SubjectApplication, string(out.Entry.Action), string(out.To))
	s.log.WithFields(logrus.Fields{
		"event":          "transition",
		"application_id": id,
		"action":         out.Entry.Action,
		"from":           out.From,
		"to":             out.To,
		"actor_id":       out.Entry.ActorID,
		"actor_role":     out.Entry.ActorRole,
	}).Info("application transitioned")
}

func (s *applicationService) refused(subject string, action model.Action, err error) {
	if reason := metrics.Reason(err); reason != "" {
		s.metrics.Refusal(subject, string(action), err)
		s.log.WithFields(logrus.Fields{"event": "transition_refused", "action": action, "reason": reason}).Info(err.Error())
	}
}

func requireOwner(app *model.Application, actor model.Actor) error {
	if actor.Role != model.RoleApplicant || app.OwnerID != actor.ID {
		return apperr.Policy("application %s belongs to another applicant", app.ID)
	}
	return nil
}

func page(limit, offset int) repository.PageQuery {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.PageQuery{Limit: limit, Offset: offset}
}
