// ABOUTME: Player contract for lifecycle fan-out
// ABOUTME: Players carry an explicit Local/Remote discriminator
package game

// Kind discriminates player variants
type Kind int

const (
	KindLocal Kind = iota + 1
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Player is a participant that receives start/stop calls in lockstep with
// the session
type Player interface {
	Kind() Kind
	Start() error
	Stop() error
}

// firstLocal returns the first Local player, or nil
func firstLocal(players []Player) Player {
	for _, p := range players {
		if p.Kind() == KindLocal {
			return p
		}
	}
	return nil
}
