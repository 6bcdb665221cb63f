//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"duo-chat/domain"
)

// Worker doesn't protect itself.
// Can be silly, focused. The supervisor owns restarts and panic recovery.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// IRegistry is the process-wide set of live connections. It is the only
// shared mutable resource of the routing core; every other component reads
// it through All and ByUser.
type IRegistry interface {
	Add(conn *domain.Connection) error
	Remove(conn *domain.Connection) bool
	ByUser(userID string) []*domain.Connection
	All() []*domain.Connection
	Len() int
}

// IPresenceBroadcaster recomputes the online roster and pushes it to every
// registered connection.
type IPresenceBroadcaster interface {
	Broadcast()
}

// IIdentityVerifier turns a handshake credential into a verified identity.
type IIdentityVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// IBlobStore stores attachment bytes and resolves them back by reference.
type IBlobStore interface {
	Save(name string, data []byte) (string, error)
	Open(ref string) ([]byte, error)
}
