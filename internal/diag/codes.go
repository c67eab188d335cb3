package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Lowering
	LowInfo            Code = 3000
	LowNotImplemented  Code = 3001
	LowIrrepresentable Code = 3002
	LowNotConst        Code = 3003
	LowNoCurrentFunc   Code = 3004
	LowInternal        Code = 3005
)

func (c Code) String() string {
	return fmt.Sprintf("RIL%04d", uint16(c))
}
