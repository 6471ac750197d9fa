package components

import (
	"context"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/blood-inventory-ledger/internal/inventory_processor/service"
)

// IssueAdmitter is the guarded issue path of the inventory engine
type IssueAdmitter interface {
	TryIssue(ctx context.Context, org inventory.Organization, in inventory.IssueInput) (*inventory.Issue, error)
}

type StockAdmitterImpl struct {
	engine IssueAdmitter
}

func NewStockAdmitter(engine IssueAdmitter) service.StockAdmitter {
	return &StockAdmitterImpl{engine: engine}
}

// Admit appends the request as an issue whose id is the request id
func (a *StockAdmitterImpl) Admit(ctx context.Context, request *shared.IssuanceRequest) (*inventory.Issue, error) {
	return a.engine.TryIssue(ctx, request.Organization(), request.IssueInput())
}
