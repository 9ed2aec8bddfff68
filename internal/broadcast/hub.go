package broadcast

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Hub - рассылка внутри одного процесса. Медленный подписчик теряет
// сообщения, но не тормозит остальных.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Subscription]chan []byte
	buffer int
	log    *zap.SugaredLogger
}

// NewHub создаёт Hub; buffer <= 0 означает DefaultBuffer.
func NewHub(buffer int, log *zap.SugaredLogger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		groups: make(map[string]map[*Subscription]chan []byte),
		buffer: buffer,
		log:    log,
	}
}

func (h *Hub) Subscribe(ctx context.Context, roomHash string) (*Subscription, error) {
	group := GroupName(roomHash)
	ch := make(chan []byte, h.buffer)

	// отмена ctx снимает подписку из отдельной горутины и ждёт этой блокировки
	h.mu.Lock()
	sub := newSubscription(ctx, group, ch, func(s *Subscription) { h.remove(group, s) })
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Subscription]chan []byte)
		h.groups[group] = members
	}
	members[sub] = ch
	h.mu.Unlock()

	return sub, nil
}

func (h *Hub) remove(group string, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		return
	}
	ch, ok := members[sub]
	if !ok {
		return
	}
	delete(members, sub)
	close(ch)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

func (h *Hub) Publish(_ context.Context, roomHash string, payload []byte) error {
	group := GroupName(roomHash)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.groups[group] {
		select {
		case ch <- payload:
		default:
			h.log.Warnw("broadcast: subscriber queue full, message dropped", "group", group)
		}
	}
	return nil
}

// Subscribers возвращает число подписчиков комнаты.
func (h *Hub) Subscribers(roomHash string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[GroupName(roomHash)])
}
