package financedb

import "context"

const listProducts = `-- name: ListProducts :many
SELECT id::text, nome FROM produto ORDER BY nome, id
`

const listServices = `-- name: ListServices :many
SELECT id::text, nome FROM servico ORDER BY nome, id
`

const listCollaborators = `-- name: ListCollaborators :many
SELECT id::text, nome FROM colaborador ORDER BY nome, id
`

const listTaskTypes = `-- name: ListTaskTypes :many
SELECT id::text, descricao FROM tipo_tarefa ORDER BY descricao, id
`

// OptionRow is an id/name pair feeding a filter select.
type OptionRow struct {
	ID   string
	Name string
}

func (q *Queries) ListProducts(ctx context.Context) ([]OptionRow, error) {
	return q.listOptions(ctx, listProducts)
}

func (q *Queries) ListServices(ctx context.Context) ([]OptionRow, error) {
	return q.listOptions(ctx, listServices)
}

func (q *Queries) ListCollaborators(ctx context.Context) ([]OptionRow, error) {
	return q.listOptions(ctx, listCollaborators)
}

func (q *Queries) ListTaskTypes(ctx context.Context) ([]OptionRow, error) {
	return q.listOptions(ctx, listTaskTypes)
}

func (q *Queries) listOptions(ctx context.Context, sql string) ([]OptionRow, error) {
	rows, err := q.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OptionRow
	for rows.Next() {
		var i OptionRow
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
