package schedule_test

import (
	"testing"
	"time"

	"github.com/shift-worksheet-api/internal/domain"
	"github.com/shift-worksheet-api/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlotCounts(t *testing.T) {
	date := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		shift domain.ShiftType
		count int
	}{
		{domain.ShiftNormal8H, 7},
		{domain.ShiftExtended95H, 10},
		{domain.ShiftOvertime11H, 11},
		{domain.ShiftType("NIGHT_6H"), 7}, // неизвестный тип -> базовая таблица
	}

	for _, tt := range tests {
		t.Run(string(tt.shift), func(t *testing.T) {
			slots := schedule.Generate(tt.shift, date)
			assert.Len(t, slots, tt.count)
			assert.Equal(t, tt.count, schedule.SlotCount(tt.shift))
		})
	}
}

func TestGenerateIndexesDenseAndOrdered(t *testing.T) {
	date := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	for _, shift := range []domain.ShiftType{domain.ShiftNormal8H, domain.ShiftExtended95H, domain.ShiftOvertime11H} {
		slots := schedule.Generate(shift, date)
		for i, slot := range slots {
			assert.Equal(t, i+1, slot.HourIndex)
			assert.True(t, slot.Start.Before(slot.End), "slot %d: start must precede end", slot.HourIndex)
			if i > 0 {
				assert.False(t, slot.Start.Before(slots[i-1].End), "slot %d overlaps previous", slot.HourIndex)
			}
		}
	}
}

func TestGenerateInstantsStayOnDateInUTC(t *testing.T) {
	// Дата передаётся в смещённой зоне: результат всё равно должен
	// лежать на тех же календарных сутках в UTC.
	loc := time.FixedZone("UTC+12", 12*3600)
	date := time.Date(2024, 7, 2, 1, 0, 0, 0, loc)

	slots := schedule.Generate(domain.ShiftOvertime11H, date)
	y, m, d := date.UTC().Date()
	for _, slot := range slots {
		sy, sm, sd := slot.Start.UTC().Date()
		assert.Equal(t, [3]int{y, int(m), d}, [3]int{sy, int(sm), sd})
		assert.Equal(t, time.UTC, slot.Start.Location())
	}
}

func TestGenerateDeterministic(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	first := schedule.Generate(domain.ShiftExtended95H, date)
	second := schedule.Generate(domain.ShiftExtended95H, date)
	assert.Equal(t, first, second)
}

func TestGenerateUnpaidBreaks(t *testing.T) {
	date := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

	slots := schedule.Generate(domain.ShiftOvertime11H, date)
	require.Len(t, slots, 11)

	// Обед между 4-м и 5-м слотами
	assert.Equal(t, 12, slots[3].End.Hour())
	assert.Equal(t, 13, slots[4].Start.Hour())
	// Ужин между 8-м и 9-м слотами
	assert.Equal(t, 17, slots[7].End.Hour())
	assert.Equal(t, 18, slots[8].Start.Hour())
}

func TestDefaultStart(t *testing.T) {
	h, m, ok := schedule.DefaultStart(1)
	require.True(t, ok)
	assert.Equal(t, 8, h)
	assert.Equal(t, 0, m)

	h, _, ok = schedule.DefaultStart(11)
	require.True(t, ok)
	assert.Equal(t, 20, h)

	_, _, ok = schedule.DefaultStart(0)
	assert.False(t, ok)
	_, _, ok = schedule.DefaultStart(12)
	assert.False(t, ok)
}
