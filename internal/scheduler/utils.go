package scheduler

const daysPerWeek = 7

// 第 0 天固定为周一
func isSaturday(day int) bool {
	return day%daysPerWeek == 5
}

func isSunday(day int) bool {
	return day%daysPerWeek == 6
}

func isWeekend(day int) bool {
	return isSaturday(day) || isSunday(day)
}
