package repository

import (
	"context"
	"time"
)

// RecordTimeRow - строка служебной выборки время-дата по всем часовым
// записям. Используется только ремонтным проходом, не боевыми запросами.
type RecordTimeRow struct {
	RecordID  string
	HourIndex int
	Date      time.Time
	StartAt   time.Time
	EndAt     time.Time
}

// JoinedTimeRows читает одним сырым запросом соединение наряд + часовая
// запись по всей базе: ремонту нужны только дата наряда и пара моментов.
func (r *worksheetRepository) JoinedTimeRows(ctx context.Context) ([]RecordTimeRow, error) {
	query := `
		SELECT hr.id, hr.hour_index, w.date, hr.start_at, hr.end_at
		FROM hour_records hr
		INNER JOIN worksheet_items wi ON wi.id = hr.worksheet_item_id
		INNER JOIN worksheets w ON w.id = wi.worksheet_id
		ORDER BY w.date, hr.hour_index
	`

	rows, err := r.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RecordTimeRow
	for rows.Next() {
		var row RecordTimeRow
		if err := rows.Scan(&row.RecordID, &row.HourIndex, &row.Date, &row.StartAt, &row.EndAt); err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

func (r *worksheetRepository) UpdateRecordTimes(ctx context.Context, recordID string, start, end time.Time) error {
	return r.db.WithContext(ctx).
		Table("hour_records").
		Where("id = ?", recordID).
		Updates(map[string]any{"start_at": start, "end_at": end}).Error
}
