package calendar

import (
	"context"
	"sync"

	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
)

// fakeAPI is an in-memory PMS.  Fields ending in Err make the matching call
// fail.
type fakeAPI struct {
	mu sync.Mutex

	rooms     []model.Room
	bookings  []model.Booking
	guests    []model.Guest
	companies []model.Company
	blocks    []model.RoomBlock
	folio     model.Folio
	history   []model.AuditLog
	panel     []map[string]any

	roomsErr    error
	guestsErr   error
	historyErr  error
	panelErr    error
	updateErr   error
	folioErr    error
	bookingErr  error
	bookingQ    []pmsapi.BookingQuery
	updates     []model.BookingUpdate
	created     []model.NewBooking
	panelCalls  int
	panelFrom   model.Date
	bookingHits int
}

func (f *fakeAPI) ListRooms(ctx context.Context, limit, offset int) ([]model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roomsErr != nil {
		return nil, f.roomsErr
	}
	if offset >= len(f.rooms) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.rooms) {
		end = len(f.rooms)
	}
	return append([]model.Room(nil), f.rooms[offset:end]...), nil
}

func (f *fakeAPI) ListBookings(ctx context.Context, q pmsapi.BookingQuery) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookingHits++
	f.bookingQ = append(f.bookingQ, q)
	if f.bookingErr != nil {
		return nil, f.bookingErr
	}
	return append([]model.Booking(nil), f.bookings...), nil
}

func (f *fakeAPI) ListGuests(ctx context.Context, limit int) ([]model.Guest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.guestsErr != nil {
		return nil, f.guestsErr
	}
	return append([]model.Guest(nil), f.guests...), nil
}

func (f *fakeAPI) ListCompanies(ctx context.Context, limit int) ([]model.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Company(nil), f.companies...), nil
}

func (f *fakeAPI) ListRoomBlocks(ctx context.Context, q pmsapi.BlockQuery) ([]model.RoomBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.RoomBlock(nil), f.blocks...), nil
}

func (f *fakeAPI) UpdateBooking(ctx context.Context, id string, up model.BookingUpdate) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, up)
	if f.updateErr != nil {
		return model.Booking{}, f.updateErr
	}
	for i, b := range f.bookings {
		if b.ID != id {
			continue
		}
		if up.RoomID != nil {
			b.RoomID = *up.RoomID
		}
		if up.CheckIn != nil {
			b.CheckIn = *up.CheckIn
		}
		if up.CheckOut != nil {
			b.CheckOut = *up.CheckOut
		}
		if up.Status != nil {
			b.Status = *up.Status
		}
		f.bookings[i] = b
		return b, nil
	}
	return model.Booking{}, &pmsapi.APIError{Status: 404, Message: "Booking not found"}
}

func (f *fakeAPI) CreateBooking(ctx context.Context, in model.NewBooking) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	b := model.Booking{ID: "new", GuestID: in.GuestID, RoomID: in.RoomID, CheckIn: in.CheckIn, CheckOut: in.CheckOut, Status: model.StatusConfirmed}
	f.bookings = append(f.bookings, b)
	return b, nil
}

func (f *fakeAPI) CreateMultiRoomBooking(ctx context.Context, in model.MultiRoomBooking) ([]model.Booking, error) {
	return nil, nil
}

func (f *fakeAPI) CreateRoomBlock(ctx context.Context, in model.NewRoomBlock) (model.RoomBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bl := model.RoomBlock{ID: "blk-new", RoomID: in.RoomID, Type: in.Type, StartDate: in.StartDate, AllowSell: in.AllowSell, Status: "active"}
	if in.EndDate != nil {
		bl.EndDate = *in.EndDate
	}
	f.blocks = append(f.blocks, bl)
	return bl, nil
}

func (f *fakeAPI) CancelRoomBlock(ctx context.Context, id, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.blocks[:0]
	for _, bl := range f.blocks {
		if bl.ID != id {
			kept = append(kept, bl)
		}
	}
	f.blocks = kept
	return nil
}

func (f *fakeAPI) FolioByBooking(ctx context.Context, bookingID string) (model.Folio, error) {
	if f.folioErr != nil {
		return model.Folio{}, f.folioErr
	}
	return f.folio, nil
}

func (f *fakeAPI) ListAuditLogs(ctx context.Context, q pmsapi.AuditQuery) ([]model.AuditLog, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeAPI) Panel(ctx context.Context, name string, from, to model.Date) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panelCalls++
	f.panelFrom = from
	if f.panelErr != nil {
		return nil, f.panelErr
	}
	return f.panel, nil
}

func (f *fakeAPI) setBookings(bs []model.Booking) {
	f.mu.Lock()
	f.bookings = bs
	f.mu.Unlock()
}

func (f *fakeAPI) hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookingHits
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *recordingAuditor) Enqueue(ctx context.Context, e model.AuditLog) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}
