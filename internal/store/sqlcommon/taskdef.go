package sqlcommon

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/loykin/dockhand/internal/apperr"
	"github.com/loykin/dockhand/internal/model"
)

// TaskDefinitionRepo implements store.TaskDefinitionRepository over
// database/sql for both supported SQL backends.
type TaskDefinitionRepo struct {
	db *sql.DB
	d  Dialect
}

func NewTaskDefinitionRepo(db *sql.DB, d Dialect) *TaskDefinitionRepo {
	return &TaskDefinitionRepo{db: db, d: d}
}

const taskDefColumns = `id, name, version, description, image, command, args, env,
	memory_limit, cpu_limit, enabled, is_latest, created_at`

// Create assigns version max(version)+1 for the name and flips the
// predecessor's is_latest flag in the same transaction.
func (r *TaskDefinitionRepo) Create(ctx context.Context, params model.CreateTaskDefinitionParams) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperr.Database(err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	err = tx.QueryRowContext(ctx,
		r.d.Rebind(`SELECT COALESCE(MAX(version), 0) FROM task_definition WHERE name = ?`+r.d.ForUpdate),
		params.Name).Scan(&version)
	if err != nil {
		return 0, apperr.Database(err)
	}
	version++

	if _, err := tx.ExecContext(ctx,
		r.d.Rebind(`UPDATE task_definition SET is_latest = ? WHERE name = ? AND is_latest = ?`),
		false, params.Name, true); err != nil {
		return 0, apperr.Database(err)
	}

	command, err := marshalCommand(params.Command)
	if err != nil {
		return 0, apperr.Serialization(err)
	}

	id, err := r.d.insertID(ctx, tx, `
		INSERT INTO task_definition(name, version, description, image, command, args, env,
			memory_limit, cpu_limit, enabled, is_latest, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.Name, version, params.Description, params.Image, command,
		nullString(params.Args), nullString(params.Env),
		nullIntPtr(params.MemoryLimitMB), nullIntPtr(params.CPUShares),
		true, true, time.Now().UTC())
	if err != nil {
		return 0, apperr.Database(err)
	}
	if err := tx.Commit(); err != nil {
		return 0, apperr.Database(err)
	}
	return id, nil
}

func (r *TaskDefinitionRepo) Patch(ctx context.Context, params model.PatchTaskDefinitionParams) error {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 8)
	if params.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *params.Description)
	}
	if params.Image != nil {
		sets, args = append(sets, "image = ?"), append(args, *params.Image)
	}
	if params.Command != nil {
		command, err := marshalCommand(params.Command)
		if err != nil {
			return apperr.Serialization(err)
		}
		sets, args = append(sets, "command = ?"), append(args, command)
	}
	if params.Args != nil {
		sets, args = append(sets, "args = ?"), append(args, nullString(*params.Args))
	}
	if params.Env != nil {
		sets, args = append(sets, "env = ?"), append(args, nullString(*params.Env))
	}
	if params.MemoryLimitMB != nil {
		sets, args = append(sets, "memory_limit = ?"), append(args, *params.MemoryLimitMB)
	}
	if params.CPUShares != nil {
		sets, args = append(sets, "cpu_limit = ?"), append(args, *params.CPUShares)
	}
	if params.Enabled != nil {
		sets, args = append(sets, "enabled = ?"), append(args, *params.Enabled)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, params.ID)
	res, err := r.db.ExecContext(ctx,
		r.d.Rebind(`UPDATE task_definition SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return apperr.Database(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrTaskDefinitionNotFound
	}
	return nil
}

func (r *TaskDefinitionRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		r.d.Rebind(`DELETE FROM task_definition WHERE id = ?`), id); err != nil {
		return apperr.Database(err)
	}
	return nil
}

func (r *TaskDefinitionRepo) List(ctx context.Context, filter model.TaskDefinitionFilter) ([]model.TaskDefinition, error) {
	where, args := taskDefWhere(filter)
	query := `SELECT ` + taskDefColumns + ` FROM task_definition` + where + ` ORDER BY id ASC`
	query, args = paginate(query, args, filter.PageNumber, filter.PageSize)

	rows, err := r.db.QueryContext(ctx, r.d.Rebind(query), args...)
	if err != nil {
		return nil, apperr.Database(err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.TaskDefinition, 0)
	for rows.Next() {
		td, err := scanTaskDefinition(rows)
		if err != nil {
			return nil, apperr.Database(err)
		}
		out = append(out, td)
	}
	return out, rows.Err()
}

func (r *TaskDefinitionRepo) Count(ctx context.Context, filter model.TaskDefinitionFilter) (int64, error) {
	where, args := taskDefWhere(filter)
	var n int64
	err := r.db.QueryRowContext(ctx,
		r.d.Rebind(`SELECT COUNT(*) FROM task_definition`+where), args...).Scan(&n)
	if err != nil {
		return 0, apperr.Database(err)
	}
	return n, nil
}

func taskDefWhere(filter model.TaskDefinitionFilter) (string, []any) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)
	if len(filter.IDs) > 0 {
		conds = append(conds, in("id", len(filter.IDs)))
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if filter.Name != "" {
		conds, args = append(conds, "name = ?"), append(args, filter.Name)
	}
	if filter.ContainsName != "" {
		conds, args = append(conds, "name LIKE ?"), append(args, "%"+filter.ContainsName+"%")
	}
	if filter.LatestOnly {
		conds, args = append(conds, "is_latest = ?"), append(args, true)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTaskDefinition(rows *sql.Rows) (model.TaskDefinition, error) {
	var td model.TaskDefinition
	var command, args, env sql.NullString
	var memory, cpu sql.NullInt64
	if err := rows.Scan(&td.ID, &td.Name, &td.Version, &td.Description, &td.Image,
		&command, &args, &env, &memory, &cpu, &td.Enabled, &td.IsLatest, &td.CreatedAt); err != nil {
		return model.TaskDefinition{}, err
	}
	if command.Valid && command.String != "" {
		if err := json.Unmarshal([]byte(command.String), &td.Command); err != nil {
			return model.TaskDefinition{}, err
		}
	}
	if args.Valid {
		td.Args = args.String
	}
	if env.Valid {
		td.Env = env.String
	}
	if memory.Valid {
		v := int(memory.Int64)
		td.MemoryLimitMB = &v
	}
	if cpu.Valid {
		v := int(cpu.Int64)
		td.CPUShares = &v
	}
	return td, nil
}

// marshalCommand serializes the command token list as a JSON array, nil
// for an empty command so the column stays NULL.
func marshalCommand(command []string) (any, error) {
	if len(command) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(command)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIntPtr(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func paginate(query string, args []any, pageNumber, pageSize int) (string, []any) {
	if pageSize <= 0 {
		return query, args
	}
	if pageNumber <= 0 {
		pageNumber = 1
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, pageSize, (pageNumber-1)*pageSize)
	return query, args
}
