package events

type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusPublished       Status = "PUBLISHED"
	StatusCancelled       Status = "CANCELLED"
	StatusCompleted       Status = "COMPLETED"
	StatusArchived        Status = "ARCHIVED"
)

// rows of the mutability table
const (
	rowDraft = iota
	rowPendingApproval
	rowPublished
	rowCancelled
	rowCompleted
	rowArchived

	statusCount
)

var statusOrder = [statusCount]Status{
	rowDraft:           StatusDraft,
	rowPendingApproval: StatusPendingApproval,
	rowPublished:       StatusPublished,
	rowCancelled:       StatusCancelled,
	rowCompleted:       StatusCompleted,
	rowArchived:        StatusArchived,
}

func (s Status) index() (int, bool) {
	for i, st := range statusOrder {
		if st == s {
			return i, true
		}
	}
	return 0, false
}

func (s Status) IsValid() bool {
	_, ok := s.index()
	return ok
}

// IsPublic reports whether events in this status are listed to everyone
func (s Status) IsPublic() bool {
	return s == StatusPublished || s == StatusCompleted || s == StatusCancelled
}

var transitions = map[Status][]Status{
	StatusDraft:           {StatusPendingApproval, StatusPublished, StatusCancelled},
	StatusPendingApproval: {StatusDraft, StatusPublished, StatusCancelled},
	StatusPublished:       {StatusCancelled, StatusCompleted},
	StatusCancelled:       {StatusArchived},
	StatusCompleted:       {StatusArchived},
	StatusArchived:        {},
}

// AllowedTransitions lists the statuses reachable from s in one step
func AllowedTransitions(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
