package target

import "github.com/shopspring/decimal"

// Расчёты плановой выработки и эффективности. Все функции чистые;
// decimal используется, чтобы нормы вида 12.5 не накапливали двоичную
// погрешность при умножении.

var hundred = decimal.NewFromInt(100)

// GroupTarget возвращает плановую часовую выработку группы: положительный
// override имеет приоритет, иначе норма на работника умножается на число
// работников и округляется до целого.
func GroupTarget(standardPerWorkerPerHour decimal.Decimal, totalWorkers int, override *decimal.Decimal) decimal.Decimal {
	if override != nil && override.IsPositive() {
		return *override
	}
	return standardPerWorkerPerHour.Mul(decimal.NewFromInt(int64(totalWorkers))).Round(0)
}

// IndividualExpected возвращает ожидаемую выработку одного работника за
// hoursWorked часов по его индивидуальной норме. Нормы разнородны, поэтому
// сумма индивидуальных ожиданий не обязана совпадать с групповым планом.
func IndividualExpected(targetPerHour decimal.Decimal, hoursWorked int) decimal.Decimal {
	return targetPerHour.Mul(decimal.NewFromInt(int64(hoursWorked)))
}

// Efficiency возвращает процент выполнения плана. При нулевом или
// отрицательном ожидании возвращается 0, а не ошибка деления.
func Efficiency(actual, expected decimal.Decimal) decimal.Decimal {
	if !expected.IsPositive() {
		return decimal.Zero
	}
	return actual.Div(expected).Mul(hundred).Round(2)
}
