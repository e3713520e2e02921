package crdt

import (
	"github.com/MomenMushtaha/v0-Collaborative-Canvas-sub001/internal/models"
)

// ShouldApplyRemote решает, должно ли входящее удаленное изменение
// заменить локально известное состояние объекта. Чистая функция без
// побочных эффектов, применяется независимо для каждого объекта.
//
// Порядок принятия решения (каждый шаг завершает сравнение):
//  1. Локальных метаданных нет — принимаем (первая запись выигрывает).
//  2. Входящая версия больше локальной — принимаем.
//  3. Входящая версия меньше локальной — отклоняем (устаревшее изменение).
//  4. Версии равны — сравниваем wall-clock timestamps: строго больший
//     принимается, строго меньший отклоняется. Отсутствующий timestamp
//     (нулевое значение) на любой из сторон пропускает этот шаг.
//  5. Все еще ничья — лексикографическое сравнение идентификаторов
//     акторов: выигрывает больший. Правило не несет смысла "кто прав",
//     оно лишь гарантирует одинаковый вердикт на всех репликах.
func ShouldApplyRemote(current *models.ObjectMetadata, incoming models.VersionStamp) bool {
	// Шаг 1: объект локально неизвестен
	if current == nil {
		return true
	}

	// Шаги 2-3: сравнение Lamport версий
	if incoming.Version > current.Version {
		return true
	}
	if incoming.Version < current.Version {
		return false
	}

	// Шаг 4: версии равны, сравниваем wall-clock timestamps.
	// Нулевой timestamp считается отсутствующим и не участвует в сравнении.
	if incoming.Timestamp != 0 && current.LastEditedAt != 0 {
		if incoming.Timestamp > current.LastEditedAt {
			return true
		}
		if incoming.Timestamp < current.LastEditedAt {
			return false
		}
	}

	// Шаг 5: детерминированный tie-break по идентификатору актора
	return incoming.ActorID > current.LastEditedBy
}
