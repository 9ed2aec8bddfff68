// Package broadcast рассылает события комнаты всем подключённым участникам.
// Группа комнаты называется negotiation_<room_hash>; содержимое сообщений не разбирается.
package broadcast

import (
	"context"
	"sync"
)

// DefaultBuffer - ёмкость очереди одной подписки.
const DefaultBuffer = 32

// GroupName возвращает имя группы рассылки комнаты.
func GroupName(roomHash string) string {
	return "negotiation_" + roomHash
}

// Broker - публикация и подписка на группы комнат.
type Broker interface {
	// Subscribe подписывает на группу комнаты. Подписка живёт до Close или отмены ctx.
	Subscribe(ctx context.Context, roomHash string) (*Subscription, error)

	// Publish отправляет payload всем текущим подписчикам комнаты, включая отправителя.
	// Отсутствие подписчиков не является ошибкой.
	Publish(ctx context.Context, roomHash string, payload []byte) error
}

// Subscription - поток сообщений одной группы.
type Subscription struct {
	Group string

	ch      chan []byte
	once    sync.Once
	release func(*Subscription)

	mu   sync.Mutex
	stop func() bool
}

func newSubscription(ctx context.Context, group string, ch chan []byte, release func(*Subscription)) *Subscription {
	s := &Subscription{Group: group, ch: ch, release: release}
	stop := context.AfterFunc(ctx, s.Close)
	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
	return s
}

// C возвращает канал сообщений; он закрывается после Close.
func (s *Subscription) C() <-chan []byte {
	return s.ch
}

// Close отписывает от группы. Повторный вызов ничего не делает.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		stop := s.stop
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
		s.release(s)
	})
}
