package infra

import "time"

// Scheduler откладывает fire-and-forget задачи (удаление пульса на карте, сброс телефона).
// Возвращаемая функция отменяет задачу; повторная отмена безопасна.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (cancel func() bool)
}

// TimerScheduler - реализация на time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}
