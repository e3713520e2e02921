package crdt

import "sync"

// LamportClock представляет логические часы Лампорта для упорядочивания
// локальных мутаций относительно удаленных без синхронизации физического
// времени. Счетчик живет в памяти процесса: после рестарта он начинается
// с нуля и догоняет систему через Observe по мере появления удаленных
// и восстановленных из snapshot версий.
type LamportClock struct {
	counter int64      // монотонно возрастающий счетчик
	mu      sync.Mutex // мьютекс для потокобезопасности
}

// NewLamportClock создает новый экземпляр логических часов Лампорта.
func NewLamportClock() *LamportClock {
	return &LamportClock{counter: 0}
}

// Now возвращает текущее значение счетчика без его изменения.
func (lc *LamportClock) Now() int64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	return lc.counter
}

// Tick увеличивает счетчик на единицу и возвращает новое значение.
// Вызывается ровно один раз на каждую локальную мутацию, что гарантирует
// различные отметки локальных событий в порядке их создания.
func (lc *LamportClock) Tick() int64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	lc.counter++
	return lc.counter
}

// Observe продвигает счетчик до max(current, remote) без дополнительного
// инкремента. Вызывается при каждой увиденной удаленной версии, чтобы
// локальные часы никогда не отставали от уже засвидетельствованных
// значений (правило продвижения часов Лампорта).
func (lc *LamportClock) Observe(remote int64) int64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if remote > lc.counter {
		lc.counter = remote
	}

	return lc.counter
}

// TickFromTimestamp продвигает счетчик до max(current+1, wallClockMs).
// Используется при первичной инициализации от wall-clock значения, чтобы
// чисто локальные счетчики могли сосуществовать с версиями, выведенными
// из timestamp.
func (lc *LamportClock) TickFromTimestamp(wallClockMs int64) int64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	lc.counter++
	if wallClockMs > lc.counter {
		lc.counter = wallClockMs
	}

	return lc.counter
}
