package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"supplierportal/internal/apperr"
	"supplierportal/internal/model"
	repoMocks "supplierportal/internal/repository/mocks"
	"supplierportal/internal/workflow/status"
)

func newContractService() (ContractService, *repoMocks.MockContractRepository, *repoMocks.MockApplicationRepository) {
	contracts := new(repoMocks.MockContractRepository)
	apps := new(repoMocks.MockApplicationRepository)
	svc := NewContractService(ContractDeps{
		Contracts:    contracts,
		Applications: apps,
		Machine:      status.NewMachine(nil).WithClock(func() time.Time { return fixedNow }),
	})
	return svc, contracts, apps
}

func onboarded() *model.Application {
	vn := "V-1001"
	return &model.Application{ID: "app-1", OwnerID: "user-1", Status: model.StatusApproved, VendorNumber: &vn}
}

func TestContractService_Create(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("procurement creates a draft contract", func(t *testing.T) {
		svc, contracts, apps := newContractService()
		apps.On("FindByID", mock.Anything, "app-1").Return(onboarded(), nil)
		contracts.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Contract) bool {
			return c.Status == model.ContractDraft && c.Title == "Courier services"
		})).Return(&model.Contract{ID: "c-1", Status: model.ContractDraft}, nil)

		c, err := svc.Create(context.Background(), buyer, ContractInput{
			ApplicationID: "app-1", Title: "  Courier services ", StartsAt: start, EndsAt: start.AddDate(1, 0, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, "c-1", c.ID)
	})

	t.Run("end before start", func(t *testing.T) {
		svc, _, _ := newContractService()
		_, err := svc.Create(context.Background(), buyer, ContractInput{
			ApplicationID: "app-1", Title: "x", StartsAt: start, EndsAt: start.AddDate(0, 0, -1),
		})
		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "gtfield", verr.Fields["ends_at"])
	})

	t.Run("applicant may not create", func(t *testing.T) {
		svc, _, _ := newContractService()
		_, err := svc.Create(context.Background(), applicant, ContractInput{})
		assert.True(t, apperr.IsPolicy(err))
	})
}

func TestContractService_Transition(t *testing.T) {
	contract := func(s model.ContractStatus) *model.Contract {
		return &model.Contract{ID: "c-1", ApplicationID: "app-1", Status: s}
	}

	t.Run("activate requires an onboarded supplier", func(t *testing.T) {
		svc, contracts, apps := newContractService()
		contracts.On("FindByID", mock.Anything, "c-1").Return(contract(model.ContractDraft), nil)
		approved := onboarded()
		approved.VendorNumber = nil
		apps.On("FindByID", mock.Anything, "app-1").Return(approved, nil)

		_, err := svc.Transition(context.Background(), buyer, "c-1", model.ActionActivate, model.TransitionInput{})
		assert.True(t, apperr.IsPolicy(err))
		contracts.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("activate", func(t *testing.T) {
		svc, contracts, apps := newContractService()
		contracts.On("FindByID", mock.Anything, "c-1").Return(contract(model.ContractDraft), nil).Once()
		apps.On("FindByID", mock.Anything, "app-1").Return(onboarded(), nil)
		contracts.On("Transition", mock.Anything, "c-1", model.ContractDraft, model.ContractActive, mock.MatchedBy(func(e model.HistoryEntry) bool {
			return e.Action == model.ActionActivate && e.ActorID == "proc-1" && e.Timestamp.Equal(fixedNow)
		})).Return(nil)
		contracts.On("FindByID", mock.Anything, "c-1").Return(contract(model.ContractActive), nil).Once()

		c, err := svc.Transition(context.Background(), buyer, "c-1", model.ActionActivate, model.TransitionInput{})
		require.NoError(t, err)
		assert.Equal(t, model.ContractActive, c.Status)
		contracts.AssertExpectations(t)
	})

	t.Run("terminate needs a comment", func(t *testing.T) {
		svc, contracts, _ := newContractService()
		contracts.On("FindByID", mock.Anything, "c-1").Return(contract(model.ContractActive), nil)

		_, err := svc.Transition(context.Background(), counsel, "c-1", model.ActionTerminate, model.TransitionInput{})
		assert.True(t, apperr.IsPolicy(err))
	})

	t.Run("stale status conflicts", func(t *testing.T) {
		svc, contracts, _ := newContractService()
		contracts.On("FindByID", mock.Anything, "c-1").Return(contract(model.ContractActive), nil)
		contracts.On("Transition", mock.Anything, "c-1", model.ContractActive, model.ContractExpired, mock.Anything).
			Return(&apperr.ConflictError{Expected: "active", Actual: "terminated"})

		_, err := svc.Transition(context.Background(), buyer, "c-1", model.ActionExpire, model.TransitionInput{})
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("expected status already superseded", func(t *testing.T) {
		svc, contracts, _ := newContractService()
		contracts.On("FindByID", mock.Anything, "c-1").Return(contract(model.ContractTerminated), nil)

		_, err := svc.Transition(context.Background(), buyer, "c-1", model.ActionExpire, model.TransitionInput{ExpectedStatus: "active"})
		var cerr *apperr.ConflictError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "active", cerr.Expected)
		assert.Equal(t, "terminated", cerr.Actual)
		contracts.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestContractService_Get(t *testing.T) {
	svc, contracts, apps := newContractService()
	contracts.On("FindByID", mock.Anything, "c-1").Return(&model.Contract{ID: "c-1", ApplicationID: "app-1"}, nil)
	apps.On("FindByID", mock.Anything, "app-1").Return(onboarded(), nil)

	c, err := svc.Get(context.Background(), applicant, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", c.ID)

	_, err = svc.Get(context.Background(), stranger, "c-1")
	assert.True(t, apperr.IsPolicy(err))

	_, err = svc.Get(context.Background(), buyer, "")
	assert.ErrorIs(t, err, ErrIDRequired)
}
