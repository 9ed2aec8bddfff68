package repo

// StateStore описывает хранилище клиентского состояния: cookie сессий
// продавца и buyer_hash покупателя по комнатам.
type StateStore interface {
	SaveSession(roomHash, token string) error
	LoadSession(roomHash string) (string, error)
	DeleteSession(roomHash string) error

	SaveBuyer(roomHash, buyerHash string) error
	LoadBuyer(roomHash string) (string, error)
}
