package repository

import (
	"context"
	"sync"

	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
)

// Upstream sources.  *pmsapi.Client satisfies all of them.
type (
	RoomSource interface {
		ListRooms(ctx context.Context, limit, offset int) ([]model.Room, error)
	}
	BookingSource interface {
		ListBookings(ctx context.Context, q pmsapi.BookingQuery) ([]model.Booking, error)
	}
	GuestSource interface {
		ListGuests(ctx context.Context, limit int) ([]model.Guest, error)
	}
	CompanySource interface {
		ListCompanies(ctx context.Context, limit int) ([]model.Company, error)
	}
	BlockSource interface {
		ListRoomBlocks(ctx context.Context, q pmsapi.BlockQuery) ([]model.RoomBlock, error)
	}
)

// Window is the date range a session is looking at.
type Window struct {
	Start model.Date `json:"start"`
	Days  int        `json:"days"`
}

// End is the first day after the window.
func (w Window) End() model.Date { return w.Start.AddDays(w.Days) }

// windowHolder guards a window shared between a repo and its fetch closure.
type windowHolder struct {
	mu sync.RWMutex
	w  Window
}

func (h *windowHolder) get() Window {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.w
}

func (h *windowHolder) set(w Window) {
	h.mu.Lock()
	h.w = w
	h.mu.Unlock()
}

// RoomRepo pages through the room inventory.
type RoomRepo struct {
	*Store[model.Room]
}

// NewRoomRepo reads at most maxPages pages of pageSize rooms each.
func NewRoomRepo(src RoomSource, pageSize, maxPages int) *RoomRepo {
	if pageSize <= 0 {
		pageSize = 100
	}
	if maxPages <= 0 {
		maxPages = 10
	}
	fetch := func(ctx context.Context) ([]model.Room, error) {
		var all []model.Room
		for page := 0; page < maxPages; page++ {
			batch, err := src.ListRooms(ctx, pageSize, page*pageSize)
			if err != nil {
				return nil, err
			}
			all = append(all, batch...)
			if len(batch) < pageSize {
				break
			}
		}
		return all, nil
	}
	return &RoomRepo{Store: NewStore("rooms", fetch)}
}

func (r *RoomRepo) ByID(id string) (model.Room, bool) {
	return r.find(func(x model.Room) bool { return x.ID == id })
}

// BookingRepo holds the bookings touching the session window.  The request
// window starts padDays before the visible start so stays that began
// earlier still render.
type BookingRepo struct {
	*Store[model.Booking]
	win *windowHolder
}

func NewBookingRepo(src BookingSource, limit, padDays int) *BookingRepo {
	win := &windowHolder{}
	fetch := func(ctx context.Context) ([]model.Booking, error) {
		w := win.get()
		return src.ListBookings(ctx, pmsapi.BookingQuery{
			StartDate: w.Start.AddDays(-padDays),
			EndDate:   w.End(),
			Limit:     limit,
		})
	}
	return &BookingRepo{Store: NewStore("bookings", fetch), win: win}
}

// SetWindow changes the range used by the next fetch.  It does not refetch.
func (r *BookingRepo) SetWindow(w Window) { r.win.set(w) }

func (r *BookingRepo) Window() Window { return r.win.get() }

func (r *BookingRepo) ByID(id string) (model.Booking, bool) {
	return r.find(func(x model.Booking) bool { return x.ID == id })
}

type GuestRepo struct {
	*Store[model.Guest]
}

func NewGuestRepo(src GuestSource, limit int) *GuestRepo {
	return &GuestRepo{Store: NewStore("guests", func(ctx context.Context) ([]model.Guest, error) {
		return src.ListGuests(ctx, limit)
	})}
}

func (r *GuestRepo) ByID(id string) (model.Guest, bool) {
	return r.find(func(x model.Guest) bool { return x.ID == id })
}

type CompanyRepo struct {
	*Store[model.Company]
}

func NewCompanyRepo(src CompanySource, limit int) *CompanyRepo {
	return &CompanyRepo{Store: NewStore("companies", func(ctx context.Context) ([]model.Company, error) {
		return src.ListCompanies(ctx, limit)
	})}
}

func (r *CompanyRepo) ByID(id string) (model.Company, bool) {
	return r.find(func(x model.Company) bool { return x.ID == id })
}

// BlockRepo holds the active room blocks overlapping the window.
type BlockRepo struct {
	*Store[model.RoomBlock]
	win *windowHolder
}

func NewBlockRepo(src BlockSource) *BlockRepo {
	win := &windowHolder{}
	fetch := func(ctx context.Context) ([]model.RoomBlock, error) {
		w := win.get()
		return src.ListRoomBlocks(ctx, pmsapi.BlockQuery{Status: "active", FromDate: w.Start, ToDate: w.End()})
	}
	return &BlockRepo{Store: NewStore("room blocks", fetch), win: win}
}

func (r *BlockRepo) SetWindow(w Window) { r.win.set(w) }

func (r *BlockRepo) ByID(id string) (model.RoomBlock, bool) {
	return r.find(func(x model.RoomBlock) bool { return x.ID == id })
}
