package domain

import "context"

// TxManager runs a function inside a single database transaction. The opaque
// tx handle is passed to the repositories' *Tx methods so multi-table writes
// commit or roll back together.
type TxManager interface {
	WithTx(ctx context.Context, fn func(tx interface{}) error) error
}
