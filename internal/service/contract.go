package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"supplierportal/internal/apperr"
	"supplierportal/internal/metrics"
	"supplierportal/internal/model"
	"supplierportal/internal/repository"
	"supplierportal/internal/workflow/form"
	"supplierportal/internal/workflow/status"
)

// ContractInput is the body of a new contract.
type ContractInput struct {
	ApplicationID string    `json:"application_id" validate:"required"`
	Title         string    `json:"title" validate:"required,max=200"`
	StartsAt      time.Time `json:"starts_at" validate:"required"`
	EndsAt        time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

// ContractService manages contracts for onboarded suppliers.
type ContractService interface {
	Create(ctx context.Context, actor model.Actor, in ContractInput) (*model.Contract, error)
	Get(ctx context.Context, actor model.Actor, id string) (*model.Contract, error)
	ListByApplication(ctx context.Context, actor model.Actor, applicationID string) ([]model.Contract, error)

	// Transition applies a contract action and returns the updated contract.
	Transition(ctx context.Context, actor model.Actor, id string, action model.Action, in model.TransitionInput) (*model.Contract, error)
}

type contractService struct {
	contracts repository.ContractRepository
	apps      repository.ApplicationRepository
	machine   *status.Machine
	validator *form.Validator
	metrics   *metrics.Workflow
	log       logrus.FieldLogger
}

// ContractDeps groups what NewContractService needs. Metrics may be nil.
type ContractDeps struct {
	Contracts    repository.ContractRepository
	Applications repository.ApplicationRepository
	Machine      *status.Machine
	Validator    *form.Validator
	Metrics      *metrics.Workflow
	Log          logrus.FieldLogger
}

// NewContractService constructs a new ContractService.
func NewContractService(d ContractDeps) ContractService {
	if d.Machine == nil {
		d.Machine = status.NewMachine(nil)
	}
	if d.Validator == nil {
		d.Validator = form.NewValidator()
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return &contractService{
		contracts: d.Contracts,
		apps:      d.Applications,
		machine:   d.Machine,
		validator: d.Validator,
		metrics:   d.Metrics,
		log:       d.Log.WithField("component", "contract_service"),
	}
}

func (s *contractService) Create(ctx context.Context, actor model.Actor, in ContractInput) (_ *model.Contract, err error) {
	ctx, span := startSpan(ctx, "ContractService.Create", attribute.String("application.id", in.ApplicationID))
	defer func() { endSpan(span, err) }()

	if actor.Role != model.RoleProcurement && actor.Role != model.RoleAdmin {
		return nil, apperr.Policy("role %s may not create contracts", actor.Role)
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.apps.FindByID(ctx, in.ApplicationID); err != nil {
		return nil, err
	}

	c, err := s.contracts.Create(ctx, &model.Contract{
		ApplicationID: in.ApplicationID,
		Title:         in.Title,
		StartsAt:      in.StartsAt.UTC(),
		EndsAt:        in.EndsAt.UTC(),
		Status:        model.ContractDraft,
	})
	if err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}
	s.log.WithFields(logrus.Fields{"event": "contract_created", "contract_id": c.ID, "application_id": c.ApplicationID}).Info("contract created")
	return c, nil
}

func (s *contractService) Get(ctx context.Context, actor model.Actor, id string) (*model.Contract, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	c, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleApplicant {
		app, err := s.apps.FindByID(ctx, c.ApplicationID)
		if err != nil {
			return nil, err
		}
		if err := requireOwner(app, actor); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *contractService) ListByApplication(ctx context.Context, actor model.Actor, applicationID string) ([]model.Contract, error) {
	if applicationID == "" {
		return nil, ErrIDRequired
	}
	app, err := s.apps.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleApplicant {
		if err := requireOwner(app, actor); err != nil {
			return nil, err
		}
	}
	return s.contracts.ListByApplication(ctx, applicationID)
}

func (s *contractService) Transition(ctx context.Context, actor model.Actor, id string, action model.Action, in model.TransitionInput) (_ *model.Contract, err error) {
	ctx, span := startSpan(ctx, "ContractService.Transition",
		attribute.String("contract.id", id),
		attribute.String("workflow.action", string(action)),
	)
	defer func() { endSpan(span, err) }()
	defer func() {
		if metrics.Reason(err) != "" {
			s.metrics.Refusal(metrics.SubjectContract, string(action), err)
		}
	}()

	if id == "" {
		return nil, ErrIDRequired
	}
	c, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.StaleStatus(string(c.Status)) {
		return nil, &apperr.ConflictError{Message: "contract status changed", Expected: in.ExpectedStatus, Actual: string(c.Status)}
	}

	req := status.ContractRequest{Action: action, Actor: actor, Comments: in.Comments}
	if action == model.ActionActivate {
		if req.Supplier, err = s.apps.FindByID(ctx, c.ApplicationID); err != nil {
			return nil, fmt.Errorf("load supplier: %w", err)
		}
	}
	out, err := s.machine.FireContract(c, req)
	if err != nil {
		return nil, err
	}
	if err := s.contracts.Transition(ctx, id, out.From, out.To, out.Entry); err != nil {
		return nil, fmt.Errorf("%s contract %s: %w", action, id, err)
	}

	s.metrics.Transition(metrics.SubjectContract, string(action), string(out.To))
	s.log.WithFields(logrus.Fields{
		"event":       "transition",
		"contract_id": id,
		"action":      action,
		"from":        out.From,
		"to":          out.To,
		"actor_id":    actor.ID,
	}).Info("contract transitioned")
	return s.contracts.FindByID(ctx, id)
}
