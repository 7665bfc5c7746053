package sqlcommon

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/loykin/dockhand/internal/apperr"
	"github.com/loykin/dockhand/internal/model"
)

// JobRepo implements store.JobRepository over database/sql.
type JobRepo struct {
	db *sql.DB
	d  Dialect
}

func NewJobRepo(db *sql.DB, d Dialect) *JobRepo {
	return &JobRepo{db: db, d: d}
}

const jobColumns = `id, name, task_definition_id, status, submited_at, started_at,
	finished_at, container_type, container_id, exit_code, error_message,
	log_expire_after_seconds, log_expired, created_at`

func (r *JobRepo) Create(ctx context.Context, params model.CreateJobParams) (int64, error) {
	status := params.Status
	if status == "" {
		status = model.JobStatusPending
	}
	var expire any
	if params.LogExpireAfter != nil {
		expire = int64(params.LogExpireAfter.Seconds())
	}
	id, err := r.d.insertID(ctx, r.db, `
		INSERT INTO job(name, task_definition_id, status, submited_at, container_type,
			log_expire_after_seconds, log_expired, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		params.Name, params.TaskDefinitionID, string(status), params.SubmitedAt.UTC(),
		string(model.ContainerTypeDocker), expire, false, time.Now().UTC())
	if err != nil {
		return 0, apperr.Database(err)
	}
	return id, nil
}

// Patch applies a partial update inside a transaction that re-reads the
// current status, so concurrent writers serialize per job id and
// transitions out of terminal states are rejected.
func (r *JobRepo) Patch(ctx context.Context, params model.PatchJobParams) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Database(err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.QueryRowContext(ctx,
		r.d.Rebind(`SELECT status FROM job WHERE id = ?`+r.d.ForUpdate),
		params.JobID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrJobNotFound
	}
	if err != nil {
		return apperr.Database(err)
	}

	sets := make([]string, 0, 8)
	args := make([]any, 0, 8)
	if params.Status != nil {
		if !model.JobStatus(current).CanTransitionTo(*params.Status) {
			return apperr.ErrInvalidJobTransition
		}
		sets, args = append(sets, "status = ?"), append(args, string(*params.Status))
	}
	if params.StartedAt != nil {
		sets, args = append(sets, "started_at = ?"), append(args, params.StartedAt.UTC())
	}
	if params.FinishedAt != nil {
		sets, args = append(sets, "finished_at = ?"), append(args, params.FinishedAt.UTC())
	}
	if params.ContainerID != nil {
		sets, args = append(sets, "container_id = ?"), append(args, *params.ContainerID)
	}
	if params.ExitCode != nil {
		sets, args = append(sets, "exit_code = ?"), append(args, *params.ExitCode)
	}
	if params.ErrorMessage != nil {
		sets, args = append(sets, "error_message = ?"), append(args, *params.ErrorMessage)
	}
	if params.LogExpired != nil {
		sets, args = append(sets, "log_expired = ?"), append(args, *params.LogExpired)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, params.JobID)
	if _, err := tx.ExecContext(ctx,
		r.d.Rebind(`UPDATE job SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...); err != nil {
		return apperr.Database(err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Database(err)
	}
	return nil
}

func (r *JobRepo) List(ctx context.Context, filter model.JobFilter) ([]model.Job, error) {
	where, args := jobWhere(filter)
	query := `SELECT ` + jobColumns + ` FROM job` + where + ` ORDER BY id ASC`
	query, args = paginate(query, args, filter.PageNumber, filter.PageSize)
	if filter.Limit > 0 && filter.PageSize <= 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.d.Rebind(query), args...)
	if err != nil {
		return nil, apperr.Database(err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, apperr.Database(err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *JobRepo) Count(ctx context.Context, filter model.JobFilter) (int64, error) {
	where, args := jobWhere(filter)
	var n int64
	err := r.db.QueryRowContext(ctx, r.d.Rebind(`SELECT COUNT(*) FROM job`+where), args...).Scan(&n)
	if err != nil {
		return 0, apperr.Database(err)
	}
	return n, nil
}

func jobWhere(filter model.JobFilter) (string, []any) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if len(filter.IDs) > 0 {
		conds = append(conds, in("id", len(filter.IDs)))
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if len(filter.Statuses) > 0 {
		conds = append(conds, in("status", len(filter.Statuses)))
		for _, st := range filter.Statuses {
			args = append(args, string(st))
		}
	}
	if filter.ContainsName != "" {
		conds, args = append(conds, "name LIKE ?"), append(args, "%"+filter.ContainsName+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanJob(rows *sql.Rows) (model.Job, error) {
	var j model.Job
	var status, containerType string
	var startedAt, finishedAt sql.NullTime
	var containerID, errorMessage sql.NullString
	var exitCode, expireSeconds sql.NullInt64
	if err := rows.Scan(&j.ID, &j.Name, &j.TaskDefinitionID, &status, &j.SubmitedAt,
		&startedAt, &finishedAt, &containerType, &containerID, &exitCode,
		&errorMessage, &expireSeconds, &j.LogExpired, &j.CreatedAt); err != nil {
		return model.Job{}, err
	}
	j.Status = model.JobStatus(status)
	j.ContainerType = model.ContainerType(containerType)
	if startedAt.Valid {
		t := startedAt.Time
		j.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		j.FinishedAt = &t
	}
	if containerID.Valid {
		s := containerID.String
		j.ContainerID = &s
	}
	if exitCode.Valid {
		v := int(exitCode.Int64)
		j.ExitCode = &v
	}
	if errorMessage.Valid {
		s := errorMessage.String
		j.ErrorMessage = &s
	}
	if expireSeconds.Valid {
		d := time.Duration(expireSeconds.Int64) * time.Second
		j.LogExpireAfter = &d
	}
	return j, nil
}
