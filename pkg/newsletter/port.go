package newsletter

import (
	"context"

	"github.com/orgpost/orgpost/pkg/kernel"
)

// RecordRepository persists and lists newsletter send records.
type RecordRepository interface {
	Save(ctx context.Context, record SendRecord) error
	List(ctx context.Context, opts kernel.PaginationOptions) (*kernel.Paginated[SendRecord], error)
}
