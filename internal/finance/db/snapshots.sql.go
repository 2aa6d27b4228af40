package financedb

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const summarySnapshot = `-- name: SummarySnapshot :one
SELECT
    (SELECT ft.valor_total FROM faturamento_total ft
      WHERE ft.usuario_id = $1 AND ft.periodo_inicio = $2 AND ft.periodo_fim = $3
      ORDER BY ft.id DESC LIMIT 1) AS revenue_total,
    (SELECT fp.valor_produtos FROM faturamento_produto fp
      WHERE fp.usuario_id = $1 AND fp.periodo_inicio = $2 AND fp.periodo_fim = $3
      ORDER BY fp.id DESC LIMIT 1) AS revenue_product,
    (SELECT fp.perc_relacao_total FROM faturamento_produto fp
      WHERE fp.usuario_id = $1 AND fp.periodo_inicio = $2 AND fp.periodo_fim = $3
      ORDER BY fp.id DESC LIMIT 1) AS revenue_product_share,
    (SELECT fs.valor_servicos FROM faturamento_servico fs
      WHERE fs.usuario_id = $1 AND fs.periodo_inicio = $2 AND fs.periodo_fim = $3
      ORDER BY fs.id DESC LIMIT 1) AS revenue_service,
    (SELECT fs.perc_relacao_total FROM faturamento_servico fs
      WHERE fs.usuario_id = $1 AND fs.periodo_inicio = $2 AND fs.periodo_fim = $3
      ORDER BY fs.id DESC LIMIT 1) AS revenue_service_share,
    (SELECT lt.lucro_total FROM lucro_total lt
      WHERE lt.usuario_id = $1 AND lt.periodo_inicio = $2 AND lt.periodo_fim = $3
      ORDER BY lt.id DESC LIMIT 1) AS profit_total,
    (SELECT lt.margem_lucro FROM lucro_total lt
      WHERE lt.usuario_id = $1 AND lt.periodo_inicio = $2 AND lt.periodo_fim = $3
      ORDER BY lt.id DESC LIMIT 1) AS profit_margin,
    (SELECT lp.lucro_produtos FROM lucro_produto lp
      WHERE lp.usuario_id = $1 AND lp.periodo_inicio = $2 AND lp.periodo_fim = $3
      ORDER BY lp.id DESC LIMIT 1) AS profit_product,
    (SELECT lp.perc_relacao_lucro FROM lucro_produto lp
      WHERE lp.usuario_id = $1 AND lp.periodo_inicio = $2 AND lp.periodo_fim = $3
      ORDER BY lp.id DESC LIMIT 1) AS profit_product_share,
    (SELECT ls.lucro_servicos FROM lucro_servico ls
      WHERE ls.usuario_id = $1 AND ls.periodo_inicio = $2 AND ls.periodo_fim = $3
      ORDER BY ls.id DESC LIMIT 1) AS profit_service,
    (SELECT ls.perc_relacao_lucro FROM lucro_servico ls
      WHERE ls.usuario_id = $1 AND ls.periodo_inicio = $2 AND ls.periodo_fim = $3
      ORDER BY ls.id DESC LIMIT 1) AS profit_service_share,
    (SELECT ft.atualizado_em FROM faturamento_total ft
      WHERE ft.usuario_id = $1 AND ft.periodo_inicio = $2 AND ft.periodo_fim = $3
      ORDER BY ft.id DESC LIMIT 1) AS updated_at
`

// SummarySnapshotParams identifies one stored snapshot.
type SummarySnapshotParams struct {
	UserID      int64
	PeriodStart pgtype.Timestamp
	PeriodEnd   pgtype.Timestamp
}

// SummarySnapshotRow carries every snapshot column; absent rows scan as NULL.
type SummarySnapshotRow struct {
	RevenueTotal        pgtype.Float8
	RevenueProduct      pgtype.Float8
	RevenueProductShare pgtype.Float8
	RevenueService      pgtype.Float8
	RevenueServiceShare pgtype.Float8
	ProfitTotal         pgtype.Float8
	ProfitMargin        pgtype.Float8
	ProfitProduct       pgtype.Float8
	ProfitProductShare  pgtype.Float8
	ProfitService       pgtype.Float8
	ProfitServiceShare  pgtype.Float8
	UpdatedAt           pgtype.Timestamp
}

func (q *Queries) SummarySnapshot(ctx context.Context, arg SummarySnapshotParams) (SummarySnapshotRow, error) {
	row := q.db.QueryRow(ctx, summarySnapshot, arg.UserID, arg.PeriodStart, arg.PeriodEnd)
	var i SummarySnapshotRow
	err := row.Scan(
		&i.RevenueTotal,
		&i.RevenueProduct,
		&i.RevenueProductShare,
		&i.RevenueService,
		&i.RevenueServiceShare,
		&i.ProfitTotal,
		&i.ProfitMargin,
		&i.ProfitProduct,
		&i.ProfitProductShare,
		&i.ProfitService,
		&i.ProfitServiceShare,
		&i.UpdatedAt,
	)
	return i, err
}

const recentSnapshots = `-- name: RecentSnapshots :many
SELECT DISTINCT ON (usuario_id, periodo_inicio, periodo_fim)
       usuario_id, periodo_inicio, periodo_fim, atualizado_em
FROM faturamento_total
WHERE atualizado_em >= $1
ORDER BY usuario_id, periodo_inicio, periodo_fim, atualizado_em DESC
LIMIT $2
`

// RecentSnapshotsParams bounds the snapshots to warm.
type RecentSnapshotsParams struct {
	UpdatedSince pgtype.Timestamp
	Limit        int32
}

type RecentSnapshotsRow struct {
	UserID      int64
	PeriodStart pgtype.Timestamp
	PeriodEnd   pgtype.Timestamp
	UpdatedAt   pgtype.Timestamp
}

func (q *Queries) RecentSnapshots(ctx context.Context, arg RecentSnapshotsParams) ([]RecentSnapshotsRow, error) {
	rows, err := q.db.Query(ctx, recentSnapshots, arg.UpdatedSince, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecentSnapshotsRow
	for rows.Next() {
		var i RecentSnapshotsRow
		if err := rows.Scan(&i.UserID, &i.PeriodStart, &i.PeriodEnd, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
