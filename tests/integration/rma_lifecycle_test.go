package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appfulfillment "github.com/rms/backend/internal/application/fulfillment"
	apprma "github.com/rms/backend/internal/application/rma"
	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/rms/backend/internal/infrastructure/config"
	"github.com/rms/backend/internal/infrastructure/merp"
	"github.com/rms/backend/internal/infrastructure/persistence"
	"github.com/rms/backend/tests/testutil"
)

// LifecycleTestSetup wires the RMA services to a PostgreSQL database
type LifecycleTestSetup struct {
	DB        *TestDB
	Repo      *persistence.GormRMARepository
	Audits    *persistence.GormAuditRepository
	Lifecycle *apprma.LifecycleService
	Queries   *apprma.QueryService
}

func NewLifecycleTestSetup(t *testing.T) *LifecycleTestSetup {
	t.Helper()

	tdb := NewTestDB(t)
	repo := persistence.NewGormRMARepository(tdb.DB)
	audits := persistence.NewGormAuditRepository(tdb.DB)
	scope := persistence.NewGormTransactionScope(tdb.DB)

	adapter, err := merp.NewAdapter(config.MERPConfig{Mode: "stub"}, persistence.NewGormIntegrationLogRepository(tdb.DB), zap.NewNop())
	require.NoError(t, err)

	return &LifecycleTestSetup{
		DB:     tdb,
		Repo:   repo,
		Audits: audits,
		Lifecycle: apprma.NewLifecycleService(repo, scope.RMA(),
			apprma.WithFulfillmentDispatcher(appfulfillment.NewDispatcher(adapter, scope.Audit(), nil, zap.NewNop())),
			apprma.WithMaxNumberAttempts(20),
		),
		Queries: apprma.NewQueryService(repo, audits),
	}
}

func creditPtr() *rma.Disposition {
	d := rma.DispositionCredit
	return &d
}

func TestRMALifecycle_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewLifecycleTestSetup(t)
	ctx := context.Background()
	branch := testutil.TestBranchID()
	agent := testutil.NewActor("agent", identity.RoleReturnsAgent, branch)
	manager := testutil.NewActor("manager", identity.RoleBranchManager, branch)
	warehouse := testutil.NewActor("warehouse", identity.RoleWarehouse, branch)
	qc := testutil.NewActor("qc", identity.RoleQC, branch)
	finance := testutil.NewActor("finance", identity.RoleFinance, branch)
	cost := decimal.RequireFromString("42.10")

	r, err := setup.Lifecycle.CreateDraft(ctx, agent, apprma.CreateDraftInput{
		BranchID: branch,
		Lines: []apprma.LineInput{
			{PartNumber: "PN-1", OrderedQty: 3, ReasonCode: "DEFECTIVE", Disposition: creditPtr(), UnitCost: &cost},
		},
	})
	require.NoError(t, err)
	lineID := r.Lines[0].ID
	assert.Regexp(t, `^RMA-\d{6}-000001$`, r.RMANumber)

	steps := []func() (*rma.RMA, error){
		func() (*rma.RMA, error) { return setup.Lifecycle.Submit(ctx, agent, r.ID) },
		func() (*rma.RMA, error) { return setup.Lifecycle.Approve(ctx, manager, r.ID) },
		func() (*rma.RMA, error) { return setup.Lifecycle.RecordReceipt(ctx, warehouse, r.ID, lineID, 3) },
		func() (*rma.RMA, error) {
			return setup.Lifecycle.RecordQCInspection(ctx, qc, r.ID, lineID, apprma.QCInspectionInput{InspectedQty: 3})
		},
		func() (*rma.RMA, error) { return setup.Lifecycle.CompleteQC(ctx, qc, r.ID) },
		func() (*rma.RMA, error) { return setup.Lifecycle.ApproveLineCredit(ctx, finance, r.ID, lineID) },
		func() (*rma.RMA, error) { return setup.Lifecycle.Resolve(ctx, finance, r.ID) },
		func() (*rma.RMA, error) { return setup.Lifecycle.Close(ctx, agent, r.ID) },
	}
	for i, step := range steps {
		_, err := step()
		require.NoError(t, err, "step %d", i)
	}

	got, err := setup.Queries.Get(ctx, agent, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", got.Status)
	assert.Empty(t, got.AllowedTransitions)
	require.NotNil(t, got.Lines[0].UnitCost)
	assert.True(t, cost.Equal(*got.Lines[0].UnitCost))

	trail, err := setup.Queries.AuditTrail(ctx, agent, r.ID)
	require.NoError(t, err)
	actions := make([]string, len(trail))
	for i, e := range trail {
		actions[i] = e.Action
	}
	assert.Contains(t, actions, audit.ActionRMAReceived)
	assert.Contains(t, actions, audit.ActionFinanceApproved)
	assert.Contains(t, actions, audit.ActionMERPCreditTriggered)
	assert.NotContains(t, actions, audit.ActionMERPReplacementTriggered)
	assert.Equal(t, int64(1), setup.DB.CountRows("merp_integration_logs", "rma_id = ?", r.ID))
}

func TestRMALifecycle_ConcurrentSubmitIsSerialized(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewLifecycleTestSetup(t)
	ctx := context.Background()
	branch := testutil.TestBranchID()
	agent := testutil.NewActor("agent", identity.RoleReturnsAgent, branch)
	manager := testutil.NewActor("manager", identity.RoleBranchManager, branch)

	r, err := setup.Lifecycle.CreateDraft(ctx, agent, apprma.CreateDraftInput{
		BranchID: branch,
		Lines:    []apprma.LineInput{{PartNumber: "PN", OrderedQty: 1, ReasonCode: "R"}},
	})
	require.NoError(t, err)
	_, err = setup.Lifecycle.Submit(ctx, agent, r.ID)
	require.NoError(t, err)

	// Approve and reject race; the row lock lets exactly one win
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = setup.Lifecycle.Approve(ctx, manager, r.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = setup.Lifecycle.Reject(ctx, manager, r.ID, "Not eligible")
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var ite *rma.InvalidTransitionError
		assert.True(t, errors.As(err, &ite), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	decisions := setup.DB.CountRows("audit_events", "rma_id = ? AND action IN ?", r.ID,
		[]string{audit.ActionRMAApproved, audit.ActionRMARejected})
	assert.Equal(t, int64(1), decisions)
}

func TestRMALifecycle_ConcurrentNumbersAreUnique(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewLifecycleTestSetup(t)
	ctx := context.Background()
	branch := testutil.TestBranchID()
	agent := testutil.NewActor("agent", identity.RoleReturnsAgent, branch)

	const workers = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]uuid.UUID)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := setup.Lifecycle.CreateDraft(ctx, agent, apprma.CreateDraftInput{
				BranchID: branch,
				Lines:    []apprma.LineInput{{PartNumber: "PN", OrderedQty: 1, ReasonCode: "R"}},
			})
			if err != nil {
				// Exhausting the retries is the only acceptable failure
				assert.ErrorIs(t, err, rma.ErrNumberConflict)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			_, dup := numbers[r.RMANumber]
			assert.False(t, dup, "duplicate number %s", r.RMANumber)
			numbers[r.RMANumber] = r.ID
		}()
	}
	wg.Wait()

	assert.NotEmpty(t, numbers)
	assert.Equal(t, int64(len(numbers)), setup.DB.CountRows("rmas"))
}

func TestRMALifecycle_BranchIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewLifecycleTestSetup(t)
	ctx := context.Background()
	own := testutil.NewActor("agent", identity.RoleReturnsAgent, testutil.TestBranchID())
	other := testutil.NewActor("other", identity.RoleReturnsAgent, testutil.OtherBranchID())

	for _, actor := range []identity.Actor{own, other} {
		_, err := setup.Lifecycle.CreateDraft(ctx, actor, apprma.CreateDraftInput{
			BranchID: actor.BranchIDs[0],
			Lines:    []apprma.LineInput{{PartNumber: "PN", OrderedQty: 1, ReasonCode: "R"}},
		})
		require.NoError(t, err)
	}

	list, err := setup.Queries.List(ctx, own, rma.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, testutil.TestBranchID(), list.Items[0].BranchID)
	assert.Equal(t, int64(1), list.Total)

	foreignBranch := testutil.OtherBranchID()
	list, err = setup.Queries.List(ctx, own, rma.ListFilter{BranchID: &foreignBranch})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	all, err := setup.Queries.List(ctx, testutil.NewAdmin("admin"), rma.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}
