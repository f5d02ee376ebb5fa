package capture

import "github.com/gofrs/uuid"

type Uid string

func NewUid() Uid { return Uid(uuid.Must(uuid.NewV4()).String()) }

func (u Uid) String() string { return string(u) }

func (u Uid) Short() string {
	if len(u) < 8 {
		return string(u)
	}
	return string(u)[:8]
}
