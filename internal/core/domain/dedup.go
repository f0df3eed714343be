package domain

// SeenSet - множество externalId, уже переданных в хранилище в рамках одного запуска.
// Не потокобезопасно: обход последовательный, множество принадлежит одному запуску.
type SeenSet struct {
	ids map[string]struct{}
}

// NewSeenSet создает пустое множество
func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[string]struct{})}
}

// Seen сообщает, встречался ли id в текущем запуске
func (s *SeenSet) Seen(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Mark запоминает id
func (s *SeenSet) Mark(id string) {
	s.ids[id] = struct{}{}
}

// Len - число уникальных id, отмеченных за запуск
func (s *SeenSet) Len() int {
	return len(s.ids)
}
