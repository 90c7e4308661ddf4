package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/internal/inventory"
	"ticketing/internal/shared/apperrors"
	"ticketing/internal/users"
)

type fixture struct {
	svc       Service
	repo      *MemoryRepository
	organizer users.Actor
	structure uuid.UUID
	template  *inventory.AudienceZoneTemplate
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	invRepo := inventory.NewMemoryRepository()
	inv := inventory.NewService(invRepo, nil)
	admin := users.Actor{UserID: uuid.New(), Role: users.RoleAdmin}

	structure, err := inv.CreateStructure(ctx, admin, inventory.CreateStructureRequest{Name: "Arena"})
	require.NoError(t, err)
	area, err := inv.CreateArea(ctx, admin, structure.ID, inventory.CreateAreaRequest{Name: "Hall", MaxCapacity: 500})
	require.NoError(t, err)
	template, err := inv.CreateTemplate(ctx, admin, area.ID, inventory.CreateTemplateRequest{
		Name: "Floor", MaxCapacity: 300, SeatingType: "STANDING",
	})
	require.NoError(t, err)

	repo := NewMemoryRepository()
	invRepo.SetUsageChecker(repo)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewService(repo, inv, nil).(*service)
	svc.now = func() time.Time { return now }

	return &fixture{
		svc:       svc,
		repo:      repo,
		organizer: users.Actor{UserID: uuid.New(), Role: users.RoleOrganizer, StructureID: &structure.ID},
		structure: structure.ID,
		template:  template,
		now:       now,
	}
}

func (f *fixture) createRequest() CreateEventRequest {
	return CreateEventRequest{
		StructureID: f.structure.String(),
		Name:        "Spring Concert",
		Categories:  []string{"music"},
		Tags:        []string{"rock"},
		StartDate:   f.now.Add(48 * time.Hour),
		EndDate:     f.now.Add(52 * time.Hour),
		Address:     AddressRequest{Street: "1 Main St", City: "Lyon", Country: "France"},
		AudienceZones: []ZoneConfigRequest{
			{TemplateID: f.template.ID.String(), AllocatedCapacity: 200},
		},
	}
}

func (f *fixture) publishedEvent(t *testing.T) *Event {
	t.Helper()
	ctx := context.Background()
	event, err := f.svc.CreateEvent(ctx, f.organizer, f.createRequest())
	require.NoError(t, err)
	event, err = f.svc.ChangeStatus(ctx, f.organizer, event.ID, StatusPublished)
	require.NoError(t, err)
	return event
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	event, err := f.svc.CreateEvent(ctx, f.organizer, f.createRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, event.Status)
	require.Len(t, event.AudienceZones, 1)
	zone := event.AudienceZones[0]
	assert.Equal(t, "Floor", zone.Name)
	assert.Equal(t, 200, zone.AllocatedCapacity)
	assert.Equal(t, inventory.SeatingStanding, zone.SeatingType)
	assert.True(t, zone.IsActive)
	assert.NotEqual(t, uuid.Nil, zone.ID)

	req := f.createRequest()
	req.AudienceZones[0].AllocatedCapacity = 301
	_, err = f.svc.CreateEvent(ctx, f.organizer, req)
	var zce *ZoneConfigError
	require.ErrorAs(t, err, &zce)
	assert.Equal(t, 300, zce.TemplateMax)

	req = f.createRequest()
	req.EndDate = req.StartDate
	_, err = f.svc.CreateEvent(ctx, f.organizer, req)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	other := uuid.New()
	stranger := users.Actor{UserID: uuid.New(), Role: users.RoleOrganizer, StructureID: &other}
	_, err = f.svc.CreateEvent(ctx, stranger, f.createRequest())
	assert.ErrorIs(t, err, ErrNotEventManager)
}

func TestPublishedEventGate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.publishedEvent(t)

	newStart := event.StartDate.Add(time.Hour)
	_, err := f.svc.UpdateEvent(ctx, f.organizer, event.ID, UpdateEventRequest{StartDate: &newStart})
	var fie *FieldImmutableError
	require.ErrorAs(t, err, &fie)
	assert.Equal(t, "startDate", fie.Field)

	_, err = f.svc.UpdateEvent(ctx, f.organizer, event.ID, UpdateEventRequest{
		Address: &AddressRequest{Street: "2 Other St", City: "Paris", Country: "France"},
	})
	require.ErrorAs(t, err, &fie)
	assert.Equal(t, "address", fie.Field)

	zones := []ZoneConfigRequest{{TemplateID: f.template.ID.String(), AllocatedCapacity: 250}}
	_, err = f.svc.UpdateEvent(ctx, f.organizer, event.ID, UpdateEventRequest{AudienceZones: &zones})
	require.ErrorAs(t, err, &fie)
	assert.Equal(t, "audienceZones", fie.Field)

	// nothing was persisted by the rejected writes
	stored, err := f.repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, stored.StartDate.Equal(event.StartDate))
	assert.Equal(t, 200, stored.AudienceZones[0].AllocatedCapacity)

	tags := []string{"rock", "live"}
	featured := true
	updated, err := f.svc.UpdateEvent(ctx, f.organizer, event.ID, UpdateEventRequest{Tags: &tags, IsFeaturedEvent: &featured})
	require.NoError(t, err)
	assert.Equal(t, []string{"rock", "live"}, updated.Tags)
	assert.True(t, updated.IsFeaturedEvent)
	assert.Equal(t, StatusPublished, updated.Status)
}

func TestUnchangedFieldsAreNotWrites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.publishedEvent(t)

	// a full form re-submission with untouched structural fields passes the gate
	sameStart := event.StartDate
	sameName := event.Name
	zones := []ZoneConfigRequest{{TemplateID: f.template.ID.String(), AllocatedCapacity: 200}}
	desc := "now with a description"
	updated, err := f.svc.UpdateEvent(ctx, f.organizer, event.ID, UpdateEventRequest{
		Name:            &sameName,
		StartDate:       &sameStart,
		AudienceZones:   &zones,
		FullDescription: &desc,
	})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.FullDescription)
	assert.Equal(t, event.AudienceZones[0].ID, updated.AudienceZones[0].ID)
}

func TestDraftAllowsEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	event, err := f.svc.CreateEvent(ctx, f.organizer, f.createRequest())
	require.NoError(t, err)

	newStart := event.StartDate.Add(time.Hour)
	zones := []ZoneConfigRequest{{TemplateID: f.template.ID.String(), Name: "Pit", AllocatedCapacity: 100}}
	updated, err := f.svc.UpdateEvent(ctx, f.organizer, event.ID, UpdateEventRequest{StartDate: &newStart, AudienceZones: &zones})
	require.NoError(t, err)
	assert.True(t, updated.StartDate.Equal(newStart))
	require.Len(t, updated.AudienceZones, 1)
	assert.Equal(t, "Pit", updated.AudienceZones[0].Name)

	tooLate := event.EndDate.Add(time.Hour)
	_, err = f.svc.UpdateEvent(ctx, f.organizer, event.ID, UpdateEventRequest{StartDate: &tooLate})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := f.createRequest()
	req.AudienceZones = nil
	empty, err := f.svc.CreateEvent(ctx, f.organizer, req)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, f.organizer, empty.ID, StatusPublished)
	assert.ErrorIs(t, err, ErrPublishWithoutZone)

	req = f.createRequest()
	req.StartDate = f.now.Add(-4 * time.Hour)
	req.EndDate = f.now.Add(-time.Hour)
	past, err := f.svc.CreateEvent(ctx, f.organizer, req)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, f.organizer, past.ID, StatusPublished)
	assert.ErrorIs(t, err, ErrPublishEnded)

	event := f.publishedEvent(t)
	_, err = f.svc.ChangeStatus(ctx, f.organizer, event.ID, StatusDraft)
	var ite *InvalidStatusTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, StatusPublished, ite.From)
	assert.True(t, apperrors.IsPrecondition(err))

	_, err = f.svc.ChangeStatus(ctx, f.organizer, event.ID, StatusCancelled)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, f.organizer, event.ID, StatusArchived)
	require.NoError(t, err)

	fields, err := f.svc.GetMutableFields(ctx, f.organizer, event.ID)
	require.NoError(t, err)
	assert.Empty(t, fields.MutableFields)
	assert.Len(t, fields.ImmutableFields, int(fieldCount))
	assert.Empty(t, fields.AllowedTransitions)
}

func TestDeleteOnlyDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	draft, err := f.svc.CreateEvent(ctx, f.organizer, f.createRequest())
	require.NoError(t, err)
	published := f.publishedEvent(t)

	assert.ErrorIs(t, f.svc.DeleteEvent(ctx, f.organizer, published.ID), ErrEventNotDeletable)
	require.NoError(t, f.svc.DeleteEvent(ctx, f.organizer, draft.ID))
	_, err = f.repo.GetByID(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestTemplateInUseBlocksInventoryDeletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.publishedEvent(t)

	inUse, err := f.repo.TemplateInUse(ctx, f.template.ID)
	require.NoError(t, err)
	assert.True(t, inUse)
	inUse, err = f.repo.AreaInUse(ctx, f.template.AreaID)
	require.NoError(t, err)
	assert.True(t, inUse)
}

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	draft, err := f.svc.CreateEvent(ctx, f.organizer, f.createRequest())
	require.NoError(t, err)
	published := f.publishedEvent(t)

	_, err = f.svc.GetEvent(ctx, nil, draft.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	got, err := f.svc.GetEvent(ctx, &f.organizer, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	page, err := f.svc.ListEvents(ctx, nil, EventFilters{})
	require.NoError(t, err)
	items := page.Items.([]Event)
	require.Len(t, items, 1)
	assert.Equal(t, published.ID, items[0].ID)

	page, err = f.svc.ListEvents(ctx, &f.organizer, EventFilters{StructureID: f.structure.String(), Status: "DRAFT"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = f.svc.ListEvents(ctx, nil, EventFilters{Status: "DRAFT"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)

	page, err = f.svc.ListEvents(ctx, nil, EventFilters{Tags: []string{"jazz,rock"}, City: "lyon"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.True(t, lo.EveryBy(page.Items.([]Event), func(e Event) bool { return e.Status == StatusPublished }))

	_, err = f.svc.ListEvents(ctx, nil, EventFilters{StartDateAfter: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidDateFilter)
}
