package analytics

import (
	"time"

	"github.com/google/uuid"

	"ticketing/internal/events"
)

// Chart payloads are shaped for Chart.js on the dashboard side
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

type Chart struct {
	ChartType string    `json:"chartType"`
	Labels    []string  `json:"labels"`
	Datasets  []Dataset `json:"datasets"`
}

type ZoneFill struct {
	AudienceZoneID    uuid.UUID `json:"audienceZoneId"`
	Name              string    `json:"name"`
	AllocatedCapacity int       `json:"allocatedCapacity"`
	Attributed        int       `json:"attributed"`
	Scanned           int       `json:"scanned"`
	FillPercentage    float64   `json:"fillPercentage"`
}

type EventStatistics struct {
	EventID                 uuid.UUID      `json:"eventId"`
	EventName               string         `json:"eventName"`
	Status                  events.Status  `json:"status"`
	TotalCapacity           int            `json:"totalCapacity"`
	FillPercentage          float64        `json:"fillPercentage"`
	UniqueReservationAmount int            `json:"uniqueReservationAmount"`
	AttributedTicketsAmount int            `json:"attributedTicketsAmount"`
	ScannedTicketsNumber    int            `json:"scannedTicketsNumber"`
	StatusDistribution      map[string]int `json:"statusDistribution"`
	Zones                   []ZoneFill     `json:"zones"`

	ZoneFillRateChart         Chart `json:"zoneFillRateChart"`
	ReservationsOverTimeChart Chart `json:"reservationsOverTimeChart"`
	TicketStatusChart         Chart `json:"ticketStatusChart"`

	GeneratedAt time.Time `json:"generatedAt"`
}

type EventFill struct {
	EventID        uuid.UUID     `json:"eventId"`
	Name           string        `json:"name"`
	Status         events.Status `json:"status"`
	StartDate      time.Time     `json:"startDate"`
	Capacity       int           `json:"capacity"`
	Attributed     int           `json:"attributed"`
	Scanned        int           `json:"scanned"`
	FillPercentage float64       `json:"fillPercentage"`
}

type StructureStatistics struct {
	StructureID            uuid.UUID   `json:"structureId"`
	UpcomingEventsCount    int         `json:"upcomingEventsCount"`
	TotalTicketsReserved   int         `json:"totalTicketsReserved"`
	TotalExpectedAttendees int         `json:"totalExpectedAttendees"`
	AverageAttendanceRate  float64     `json:"averageAttendanceRate"`
	Events                 []EventFill `json:"events"`

	TopEventsChart            Chart `json:"topEventsChart"`
	AttendanceByCategoryChart Chart `json:"attendanceByCategoryChart"`

	GeneratedAt time.Time `json:"generatedAt"`
}
