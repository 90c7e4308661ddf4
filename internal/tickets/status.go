package tickets

var transitions = map[Status][]Status{
	StatusValid:     {StatusUsed, StatusCancelled},
	StatusUsed:      {},
	StatusCancelled: {},
	StatusExpired:   {},
}

// CanTransition reports whether a ticket whose effective status is from may move to to
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
