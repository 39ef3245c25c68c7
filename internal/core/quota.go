package core

// CanAsk decides whether a new question from userID is permitted under the
// configured limits. It is a pure function over the session history and the
// set of online non-host players, so it can be tested without a live room.
//
// Precedence: a pending question always blocks. With only a total limit the
// history length is capped. With only a per-player limit each player is
// capped individually. With both, a player past the personal cap must wait
// until every online non-host player has spent theirs, and then draws from
// the shared pool: the slice of the total limit fed by questions beyond each
// player's personal quota, attributed sequentially in ask order.
func CanAsk(history []*Question, limits Limits, userID string, online []*Player) *CoreError {
	for _, q := range history {
		if q.UserID == userID && q.Status == StatusPending {
			return coreError(ErrCodeAnswerPending, "请等待主持人回答上一条提问后再发送新的提问")
		}
	}

	per, perSet := limits.perPlayer()
	total, totalSet := limits.total()

	counts := make(map[string]int, len(online))
	poolUsed := 0
	for _, q := range history {
		if perSet && counts[q.UserID] >= per {
			poolUsed++
		}
		counts[q.UserID]++
	}

	switch {
	case !perSet && !totalSet:
		return nil

	case !perSet:
		if len(history) >= total {
			return coreError(ErrCodeTotalExhausted, "已达到本局总提问次数限制")
		}
		return nil

	case !totalSet:
		if counts[userID] >= per {
			return coreError(ErrCodePersonalExhausted, "已达到个人提问次数上限")
		}
		return nil
	}

	if counts[userID] < per {
		return nil
	}

	// Personal quota spent. The shared pool stays closed while any online
	// non-host player still has personal quota left.
	for _, p := range online {
		if counts[p.UserID] < per {
			return coreError(ErrCodeWaitForOthers, "请等待所有在线玩家消耗完个人提问次数")
		}
	}

	if poolUsed >= total {
		return coreError(ErrCodePoolExhausted, "全员共享额外次数已用尽")
	}
	return nil
}
