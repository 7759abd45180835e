package game

// Seats are stored in seat order, so a seat's index is its order.

// nextActive returns the index of the first active seat strictly after from,
// wrapping around the table, or -1 if no other seat is active.
func nextActive(seats []*seat, from int) int {
	n := len(seats)
	for i := 1; i < n; i++ {
		pos := (from + i) % n
		if seats[pos].active() {
			return pos
		}
	}
	return -1
}

// openingPlayer picks who opens the round after a challenge: the player who
// lost the die if they are still in, otherwise the next active player after them.
func openingPlayer(seats []*seat, loser int) int {
	if seats[loser].active() {
		return loser
	}
	return nextActive(seats, loser)
}

// activeCount returns how many seats still hold dice.
func activeCount(seats []*seat) int {
	n := 0
	for _, s := range seats {
		if s.active() {
			n++
		}
	}
	return n
}

// soleSurvivor returns the only active seat, or -1 if zero or several remain.
func soleSurvivor(seats []*seat) int {
	found := -1
	for i, s := range seats {
		if !s.active() {
			continue
		}
		if found != -1 {
			return -1
		}
		found = i
	}
	return found
}
