package sqlcommon

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/loykin/dockhand/internal/apperr"
	"github.com/loykin/dockhand/internal/model"
)

// ScheduleRepo implements store.ScheduleRepository over database/sql.
type ScheduleRepo struct {
	db *sql.DB
	d  Dialect
}

func NewScheduleRepo(db *sql.DB, d Dialect) *ScheduleRepo {
	return &ScheduleRepo{db: db, d: d}
}

const scheduleColumns = `id, name, job_name, cron_expression, task_definition_id,
	command, timezone, timezone_offset, enabled, created_at, last_triggered_at`

func (r *ScheduleRepo) Create(ctx context.Context, params model.CreateScheduleParams) (int64, error) {
	id, err := r.d.insertID(ctx, r.db, `
		INSERT INTO schedule(name, job_name, cron_expression, task_definition_id,
			command, timezone, timezone_offset, enabled, created_at, last_triggered_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		params.Name, params.JobName, params.CronExpression, params.TaskDefinitionID,
		nullStringPtr(params.Command), nullStringPtr(params.Timezone),
		nullIntPtr(params.TimezoneOffset), params.Enabled, time.Now().UTC())
	if err != nil {
		return 0, apperr.Database(err)
	}
	return id, nil
}

func (r *ScheduleRepo) Patch(ctx context.Context, params model.PatchScheduleParams) error {
	sets := make([]string, 0, 9)
	args := make([]any, 0, 9)
	if params.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *params.Name)
	}
	if params.JobName != nil {
		sets, args = append(sets, "job_name = ?"), append(args, *params.JobName)
	}
	if params.CronExpression != nil {
		sets, args = append(sets, "cron_expression = ?"), append(args, *params.CronExpression)
	}
	if params.TaskDefinitionID != nil {
		sets, args = append(sets, "task_definition_id = ?"), append(args, *params.TaskDefinitionID)
	}
	if params.Command != nil {
		sets, args = append(sets, "command = ?"), append(args, *params.Command)
	}
	if params.Timezone != nil {
		sets, args = append(sets, "timezone = ?"), append(args, *params.Timezone)
	}
	if params.TimezoneOffset != nil {
		sets, args = append(sets, "timezone_offset = ?"), append(args, *params.TimezoneOffset)
	}
	if params.Enabled != nil {
		sets, args = append(sets, "enabled = ?"), append(args, *params.Enabled)
	}
	if params.LastTriggeredAt != nil {
		sets, args = append(sets, "last_triggered_at = ?"), append(args, params.LastTriggeredAt.UTC())
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, params.ScheduleID)
	res, err := r.db.ExecContext(ctx,
		r.d.Rebind(`UPDATE schedule SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return apperr.Database(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrScheduleNotFound
	}
	return nil
}

func (r *ScheduleRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.d.Rebind(`DELETE FROM schedule WHERE id = ?`), id)
	if err != nil {
		return apperr.Database(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrScheduleNotFound
	}
	return nil
}

func (r *ScheduleRepo) List(ctx context.Context, filter model.ScheduleFilter) ([]model.Schedule, error) {
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
	if filter.Enabled != nil {
		conds, args = append(conds, "enabled = ?"), append(args, *filter.Enabled)
	}
	query := `SELECT ` + scheduleColumns + ` FROM schedule`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.d.Rebind(query), args...)
	if err != nil {
		return nil, apperr.Database(err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, apperr.Database(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSchedule(rows *sql.Rows) (model.Schedule, error) {
	var s model.Schedule
	var command, timezone sql.NullString
	var offset sql.NullInt64
	var lastTriggered sql.NullTime
	if err := rows.Scan(&s.ID, &s.Name, &s.JobName, &s.CronExpression, &s.TaskDefinitionID,
		&command, &timezone, &offset, &s.Enabled, &s.CreatedAt, &lastTriggered); err != nil {
		return model.Schedule{}, err
	}
	if command.Valid {
		v := command.String
		s.Command = &v
	}
	if timezone.Valid {
		v := timezone.String
		s.Timezone = &v
	}
	if offset.Valid {
		v := int(offset.Int64)
		s.TimezoneOffset = &v
	}
	if lastTriggered.Valid {
		t := lastTriggered.Time
		s.LastTriggeredAt = &t
	}
	return s, nil
}

func nullStringPtr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
