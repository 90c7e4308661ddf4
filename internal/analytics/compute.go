package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"ticketing/internal/events"
	"ticketing/internal/tickets"
)

var statusOrder = []tickets.Status{tickets.StatusValid, tickets.StatusUsed, tickets.StatusCancelled, tickets.StatusExpired}

func percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)*10000/float64(whole)) / 100
}

// attributed tickets are the ones holding a place, whatever their expiry
func isAttributed(t tickets.Ticket) bool { return t.Status.HoldsCapacity() }

func computeEventStatistics(event *events.Event, list []tickets.Ticket, now time.Time) *EventStatistics {
	attributed := lo.Filter(list, func(t tickets.Ticket, _ int) bool { return isAttributed(t) })
	scanned := lo.CountBy(list, func(t tickets.Ticket) bool { return t.Status == tickets.StatusUsed })
	capacity := lo.SumBy(event.AudienceZones, func(z events.EventAudienceZone) int { return z.AllocatedCapacity })

	byZone := lo.GroupBy(attributed, func(t tickets.Ticket) uuid.UUID { return t.AudienceZoneID })
	zones := lo.Map(event.AudienceZones, func(z events.EventAudienceZone, _ int) ZoneFill {
		held := byZone[z.ID]
		return ZoneFill{
			AudienceZoneID:    z.ID,
			Name:              z.Name,
			AllocatedCapacity: z.AllocatedCapacity,
			Attributed:        len(held),
			Scanned:           lo.CountBy(held, func(t tickets.Ticket) bool { return t.Status == tickets.StatusUsed }),
			FillPercentage:    percentage(len(held), z.AllocatedCapacity),
		}
	})

	distribution := make(map[string]int, len(statusOrder))
	for _, st := range statusOrder {
		distribution[string(st)] = 0
	}
	for _, t := range list {
		distribution[string(t.EffectiveStatus(now))]++
	}

	return &EventStatistics{
		EventID:                 event.ID,
		EventName:               event.Name,
		Status:                  event.Status,
		TotalCapacity:           capacity,
		FillPercentage:          percentage(len(attributed), capacity),
		UniqueReservationAmount: len(lo.Uniq(lo.Map(attributed, func(t tickets.Ticket, _ int) string { return t.ReservationID }))),
		AttributedTicketsAmount: len(attributed),
		ScannedTicketsNumber:    scanned,
		StatusDistribution:      distribution,
		Zones:                   zones,
		ZoneFillRateChart: Chart{
			ChartType: "bar",
			Labels:    lo.Map(zones, func(z ZoneFill, _ int) string { return z.Name }),
			Datasets: []Dataset{{
				Label: "Fill rate (%)",
				Data:  lo.Map(zones, func(z ZoneFill, _ int) float64 { return z.FillPercentage }),
			}},
		},
		ReservationsOverTimeChart: reservationsPerDay(attributed),
		TicketStatusChart: Chart{
			ChartType: "doughnut",
			Labels:    lo.Map(statusOrder, func(st tickets.Status, _ int) string { return string(st) }),
			Datasets: []Dataset{{
				Label: "Tickets",
				Data:  lo.Map(statusOrder, func(st tickets.Status, _ int) float64 { return float64(distribution[string(st)]) }),
			}},
		},
		GeneratedAt: now,
	}
}

func reservationsPerDay(list []tickets.Ticket) Chart {
	// one reservation counts once, on the day it was made
	firstIssue := map[string]time.Time{}
	for _, t := range list {
		if at, ok := firstIssue[t.ReservationID]; !ok || t.IssuedAt.Before(at) {
			firstIssue[t.ReservationID] = t.IssuedAt
		}
	}
	perDay := map[string]int{}
	for _, at := range firstIssue {
		perDay[at.UTC().Format("2006-01-02")]++
	}
	days := lo.Keys(perDay)
	sort.Strings(days)

	return Chart{
		ChartType: "line",
		Labels:    days,
		Datasets: []Dataset{{
			Label: "Reservations",
			Data:  lo.Map(days, func(d string, _ int) float64 { return float64(perDay[d]) }),
		}},
	}
}

func computeStructureStatistics(structureID uuid.UUID, list []events.Event, ticketsByEvent map[uuid.UUID][]tickets.Ticket, now time.Time) *StructureStatistics {
	stats := &StructureStatistics{StructureID: structureID, Events: []EventFill{}, GeneratedAt: now}

	var pastAttributed, pastScanned int
	categoryAttendance := map[string]int{}

	for i := range list {
		event := &list[i]
		eventTickets := ticketsByEvent[event.ID]
		attributed := lo.CountBy(eventTickets, isAttributed)
		scanned := lo.CountBy(eventTickets, func(t tickets.Ticket) bool { return t.Status == tickets.StatusUsed })
		capacity := lo.SumBy(event.AudienceZones, func(z events.EventAudienceZone) int { return z.AllocatedCapacity })

		stats.Events = append(stats.Events, EventFill{
			EventID:        event.ID,
			Name:           event.Name,
			Status:         event.Status,
			StartDate:      event.StartDate,
			Capacity:       capacity,
			Attributed:     attributed,
			Scanned:        scanned,
			FillPercentage: percentage(attributed, capacity),
		})
		stats.TotalTicketsReserved += attributed

		if event.Status == events.StatusCancelled {
			continue
		}
		if event.HasEnded(now) {
			pastAttributed += attributed
			pastScanned += scanned
		} else if event.StartDate.After(now) {
			stats.UpcomingEventsCount++
			stats.TotalExpectedAttendees += attributed
		}
		for _, category := range event.Categories {
			categoryAttendance[category] += scanned
		}
	}
	stats.AverageAttendanceRate = percentage(pastScanned, pastAttributed)

	top := append([]EventFill(nil), stats.Events...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].FillPercentage > top[j].FillPercentage })
	if len(top) > 5 {
		top = top[:5]
	}
	stats.TopEventsChart = Chart{
		ChartType: "bar",
		Labels:    lo.Map(top, func(e EventFill, _ int) string { return e.Name }),
		Datasets: []Dataset{{
			Label: "Fill rate (%)",
			Data:  lo.Map(top, func(e EventFill, _ int) float64 { return e.FillPercentage }),
		}},
	}

	categories := lo.Keys(categoryAttendance)
	sort.Strings(categories)
	stats.AttendanceByCategoryChart = Chart{
		ChartType: "pie",
		Labels:    categories,
		Datasets: []Dataset{{
			Label: "Attendees",
			Data:  lo.Map(categories, func(c string, _ int) float64 { return float64(categoryAttendance[c]) }),
		}},
	}
	return stats
}
