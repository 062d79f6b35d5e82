package schedule

import (
	"time"

	"github.com/shift-worksheet-api/internal/domain"
)

// Slot - один часовой слот смены с абсолютными моментами начала и конца
type Slot struct {
	HourIndex int
	Start     time.Time
	End       time.Time
}

// wallSlot задаёт границы слота в настенном времени цеха
type wallSlot struct {
	startHour, startMin int
	endHour, endMin     int
}

// Базовая 7-слотовая таблица 8-часовой смены: обеденный перерыв 12:00-13:00
// не оплачивается и слотом не является.
var baseSlots = []wallSlot{
	{8, 0, 9, 0},
	{9, 0, 10, 0},
	{10, 0, 11, 0},
	{11, 0, 12, 0},
	{13, 0, 14, 0},
	{14, 0, 15, 0},
	{15, 0, 16, 0},
}

// Продлённая смена добавляет три слота после базовой таблицы.
var extendedTail = []wallSlot{
	{16, 0, 17, 0},
	{17, 0, 18, 0},
	{18, 0, 19, 0},
}

// Сверхурочная смена добавляет четыре слота; ужин 17:00-18:00 не оплачивается.
var overtimeTail = []wallSlot{
	{16, 0, 17, 0},
	{18, 0, 19, 0},
	{19, 0, 20, 0},
	{20, 0, 21, 0},
}

func tableFor(shift domain.ShiftType) []wallSlot {
	switch shift {
	case domain.ShiftExtended95H:
		return append(append([]wallSlot{}, baseSlots...), extendedTail...)
	case domain.ShiftOvertime11H:
		return append(append([]wallSlot{}, baseSlots...), overtimeTail...)
	default:
		// Неизвестный тип смены сводится к базовой таблице
		return baseSlots
	}
}

// SlotCount возвращает число часовых слотов для типа смены
func SlotCount(shift domain.ShiftType) int {
	return len(tableFor(shift))
}

// Generate строит упорядоченный набор часовых слотов для типа смены и
// календарной даты. Функция чистая и детерминированная. Настенные
// компоненты таблицы комбинируются с датой строго как компоненты UTC:
// сборка в локальной зоне сервера смещала бы сохранённые моменты.
func Generate(shift domain.ShiftType, date time.Time) []Slot {
	table := tableFor(shift)
	slots := make([]Slot, 0, len(table))
	y, m, d := date.UTC().Date()
	for i, ws := range table {
		slots = append(slots, Slot{
			HourIndex: i + 1,
			Start:     time.Date(y, m, d, ws.startHour, ws.startMin, 0, 0, time.UTC),
			End:       time.Date(y, m, d, ws.endHour, ws.endMin, 0, 0, time.UTC),
		})
	}
	return slots
}

// DefaultStart возвращает настенное время начала слота по его номеру в
// самой длинной (сверхурочной) таблице. Используется как резерв при
// нечитаемом тексте времени.
func DefaultStart(hourIndex int) (hour, min int, ok bool) {
	table := tableFor(domain.ShiftOvertime11H)
	if hourIndex < 1 || hourIndex > len(table) {
		return 0, 0, false
	}
	ws := table[hourIndex-1]
	return ws.startHour, ws.startMin, true
}
