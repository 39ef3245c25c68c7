package core

// Player is a participant in the room. ConnID is the transport-assigned
// connection handle and changes on every reconnect; UserID is the stable
// identity key that survives reconnects.
type Player struct {
	ConnID   string `json:"id"`
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"isHost"`
	IsOnline bool   `json:"isOnline"`
}

// findPlayerByConn returns the roster index of the player bound to connID,
// or -1 if no player currently holds that handle.
func findPlayerByConn(players []*Player, connID string) int {
	for i, p := range players {
		if p.ConnID == connID {
			return i
		}
	}
	return -1
}

func findPlayerByUserID(players []*Player, userID string) *Player {
	for _, p := range players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func currentHost(players []*Player) *Player {
	for _, p := range players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

func countOnline(players []*Player) int {
	n := 0
	for _, p := range players {
		if p.IsOnline {
			n++
		}
	}
	return n
}

// onlineNonHostPlayers returns the players eligible to consume question quota.
func onlineNonHostPlayers(players []*Player) []*Player {
	out := make([]*Player, 0, len(players))
	for _, p := range players {
		if p.IsOnline && !p.IsHost {
			out = append(out, p)
		}
	}
	return out
}
