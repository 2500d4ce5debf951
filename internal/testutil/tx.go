package testutil

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// NoopTx is a pgx.Tx that does nothing. Service tests run transactional code
// against in-memory stores that ignore the tx argument.
type NoopTx struct{}

func (NoopTx) Begin(ctx context.Context) (pgx.Tx, error) { return NoopTx{}, nil }
func (NoopTx) Commit(ctx context.Context) error          { return nil }
func (NoopTx) Rollback(ctx context.Context) error        { return nil }
func (NoopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (NoopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (NoopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (NoopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (NoopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (NoopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (NoopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (NoopTx) Conn() *pgx.Conn                                               { return nil }

// DB satisfies the services' TxBeginner interface with NoopTx transactions.
type DB struct{}

func (DB) Begin(ctx context.Context) (pgx.Tx, error) { return NoopTx{}, nil }
