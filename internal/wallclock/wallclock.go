package wallclock

import (
	"fmt"
	"time"

	"github.com/shift-worksheet-api/internal/domain"
	"github.com/shift-worksheet-api/internal/schedule"
)

// Кодек настенного времени. Все сохранённые моменты читаются и собираются
// строго в компонентах UTC: чтение в локальной зоне сервера сдвигало бы
// текст времени в зависимости от места развёртывания.

var parseLayouts = []string{"15:04:05", "15:04"}

// Clock переводит абсолютный момент в текст "HH:MM:SS" по компонентам UTC.
// Для nil и нулевого момента возвращается nil, а не ошибка.
func Clock(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	s := fmt.Sprintf("%02d:%02d:%02d", u.Hour(), u.Minute(), u.Second())
	return &s
}

// Instant собирает абсолютный момент из календарной даты и текста
// настенного времени как компонентов UTC. Нечитаемый текст не ошибка:
// берётся резервное время начала слота hourIndex, fellBack при этом true.
func Instant(date time.Time, text string, hourIndex int) (t time.Time, fellBack bool) {
	y, m, d := date.UTC().Date()
	for _, layout := range parseLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return time.Date(y, m, d, parsed.Hour(), parsed.Minute(), parsed.Second(), 0, time.UTC), false
		}
	}
	hour, min, ok := schedule.DefaultStart(hourIndex)
	if !ok {
		hour, min = 8, 0
	}
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC), true
}

// Reanchor пересобирает пару моментов часовой записи на календарной дате
// её наряда, сохраняя настенные компоненты. Возвращает исправленную пару,
// признак того, что хотя бы один момент изменился, и признак подстановки
// резервного времени слота вместо нечитаемого настенного текста - вызывающий
// обязан залогировать подстановку. Нулевой или перепутанный конец
// восстанавливается как начало плюс час.
func Reanchor(date time.Time, hourIndex int, start, end time.Time) (newStart, newEnd time.Time, changed, fellBack bool) {
	startText := ""
	if c := Clock(&start); c != nil {
		startText = *c
	}
	newStart, fellBack = Instant(date, startText, hourIndex)

	newEnd = end
	if c := Clock(&end); c != nil {
		var fb bool
		newEnd, fb = Instant(date, *c, hourIndex)
		fellBack = fellBack || fb
	}
	if !newStart.Before(newEnd) {
		newEnd = newStart.Add(time.Hour)
	}

	changed = !newStart.Equal(start) || !newEnd.Equal(end)
	return newStart, newEnd, changed, fellBack
}

// ReanchorWorksheet обходит граф наряд -> назначения -> часовые записи и
// пересобирает моменты каждой записи на дате наряда. Спускается только в
// фактически загруженные коллекции; узлы без полей времени (причины)
// не затрагиваются. Возвращает число исправленных записей и число записей,
// собранных из резервного времени слота.
func ReanchorWorksheet(ws *domain.Worksheet) (changed, fellBack int) {
	if ws == nil || ws.Items == nil {
		return 0, 0
	}
	for i := range ws.Items {
		if ws.Items[i].Records == nil {
			continue
		}
		for j := range ws.Items[i].Records {
			rec := &ws.Items[i].Records[j]
			start, end, fixed, fb := Reanchor(ws.Date, rec.HourIndex, rec.StartAt, rec.EndAt)
			if fb {
				fellBack++
			}
			if fixed {
				rec.StartAt = start
				rec.EndAt = end
				changed++
			}
		}
	}
	return changed, fellBack
}
