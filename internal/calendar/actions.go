package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/folio"
	"github.com/iliyamo/hotel-pms-console/internal/grid"
	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/notice"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
	"github.com/iliyamo/hotel-pms-console/internal/repository"
)

// CellAction says what a click on an empty or occupied cell opened.
type CellAction string

const (
	CellDetail  CellAction = "booking_detail"
	CellBlocked CellAction = "blocked"
	CellDraft   CellAction = "new_booking"
)

// Draft is a new booking form prefilled from the clicked cell.
type Draft struct {
	RoomID        string          `json:"room_id"`
	RoomNumber    string          `json:"room_number"`
	RoomType      string          `json:"room_type"`
	CheckIn       model.Date      `json:"check_in"`
	CheckOut      model.Date      `json:"check_out"`
	Adults        int             `json:"adults"`
	Children      int             `json:"children"`
	BaseRate      decimal.Decimal `json:"base_rate"`
	RateType      string          `json:"rate_type,omitempty"`
	MarketSegment string          `json:"market_segment,omitempty"`
	CompanyID     string          `json:"company_id,omitempty"`
}

// CellResult is the answer to a cell click.
type CellResult struct {
	Action CellAction       `json:"action"`
	Detail *Detail          `json:"detail,omitempty"`
	Block  *model.RoomBlock `json:"block,omitempty"`
	Draft  *Draft           `json:"draft,omitempty"`
}

// Detail is everything the booking side panel shows.
type Detail struct {
	Booking model.Booking    `json:"booking"`
	Guest   *model.Guest     `json:"guest,omitempty"`
	Room    *model.Room      `json:"room,omitempty"`
	Company *model.Company   `json:"company,omitempty"`
	Folio   *folio.Summary   `json:"folio,omitempty"`
	History []model.AuditLog `json:"history"`
}

// ClickCell resolves a click on (roomID, date).  An occupied cell opens the
// booking; a cell closed by a block emits a validation notice; an empty cell
// returns a draft priced at the room's base rate, or at the company's
// contracted rate when companyID names a known company.
func (s *Session) ClickCell(ctx context.Context, roomID string, date model.Date, companyID string, n notice.Notifier) (CellResult, error) {
	room, ok := s.rooms.ByID(roomID)
	if !ok {
		notice.Validation(n, "Unknown room")
		return CellResult{}, repository.ErrNotFound
	}
	if b, ok := grid.BookingAt(s.bookings.All(), roomID, date); ok {
		d, err := s.BookingDetail(ctx, b.ID, n)
		if err != nil {
			return CellResult{}, err
		}
		return CellResult{Action: CellDetail, Detail: &d}, nil
	}
	if bl, ok := grid.BlockAt(s.blocks.All(), roomID, date); ok && !bl.AllowSell {
		notice.Validation(n, fmt.Sprintf("Room %s is blocked (%s) on %s", room.RoomNumber, strings.ReplaceAll(bl.Type, "_", " "), date))
		return CellResult{Action: CellBlocked, Block: &bl}, nil
	}

	d := Draft{
		RoomID:     room.ID,
		RoomNumber: room.RoomNumber,
		RoomType:   room.RoomType,
		CheckIn:    date,
		CheckOut:   date.AddDays(1),
		Adults:     1,
		BaseRate:   room.BasePrice,
	}
	if companyID != "" {
		if c, ok := s.companies.ByID(companyID); ok {
			d.CompanyID = c.ID
			d.RateType = c.DefaultRateType
			d.MarketSegment = c.DefaultMarketSegment
			if c.ContractedRate != nil {
				d.BaseRate = *c.ContractedRate
			}
		}
	}
	return CellResult{Action: CellDraft, Draft: &d}, nil
}

// BookingDetail assembles a cached booking with its guest, room, company,
// folio summary and audit history.  The folio is best effort.  A 403 on the
// history leaves it empty without a notice.
func (s *Session) BookingDetail(ctx context.Context, id string, n notice.Notifier) (Detail, error) {
	b, ok := s.bookings.ByID(id)
	if !ok {
		return Detail{}, repository.ErrNotFound
	}
	ctx = s.withToken(ctx)
	d := Detail{Booking: b, History: []model.AuditLog{}}
	if g, ok := s.guests.ByID(b.GuestID); ok {
		d.Guest = &g
	}
	if r, ok := s.rooms.ByID(b.RoomID); ok {
		d.Room = &r
	}
	if b.CompanyID != "" {
		if c, ok := s.companies.ByID(b.CompanyID); ok {
			d.Company = &c
		}
	}

	if f, err := s.api.FolioByBooking(ctx, b.ID); err == nil {
		sum := folio.Summarize(f)
		d.Folio = &sum
	} else {
		s.log.Debug("folio unavailable", zap.String("booking_id", b.ID), zap.Error(err))
	}

	history, err := s.api.ListAuditLogs(ctx, pmsapi.AuditQuery{EntityType: "booking", EntityID: b.ID, Limit: 50})
	switch {
	case err == nil:
		if history != nil {
			d.History = history
		}
	case pmsapi.IsForbidden(err):
	default:
		s.log.Warn("audit history failed", zap.String("booking_id", b.ID), zap.Error(err))
		n.Notify(notice.New(notice.LevelError, notice.CategoryLoad, pmsapi.Message(err, "Failed to load booking history")))
	}
	return d, nil
}

// CreateBooking validates and sends a new booking, then reloads.
func (s *Session) CreateBooking(ctx context.Context, in model.NewBooking, n notice.Notifier) (model.Booking, error) {
	if err := in.Validate(); err != nil {
		notice.Validation(n, err.Error())
		return model.Booking{}, err
	}
	ctx = s.withToken(ctx)
	b, err := s.api.CreateBooking(ctx, in)
	if err != nil {
		s.mutationFailed(n, "create booking", err, "Failed to create booking")
		return model.Booking{}, err
	}
	s.reloadAll(ctx, n)
	notice.Success(n, "Booking created")
	return b, nil
}

// CreateMultiRoomBooking books several rooms for one guest and stay.
func (s *Session) CreateMultiRoomBooking(ctx context.Context, in model.MultiRoomBooking, n notice.Notifier) ([]model.Booking, error) {
	if err := in.Validate(); err != nil {
		notice.Validation(n, err.Error())
		return nil, err
	}
	ctx = s.withToken(ctx)
	out, err := s.api.CreateMultiRoomBooking(ctx, in)
	if err != nil {
		s.mutationFailed(n, "create multi-room booking", err, "Failed to create bookings")
		return nil, err
	}
	s.reloadAll(ctx, n)
	notice.Success(n, fmt.Sprintf("%d room(s) booked", len(in.Rooms)))
	if out == nil {
		out = []model.Booking{}
	}
	return out, nil
}

var statusVerbs = map[string]string{
	model.StatusCheckedIn:  "Guest checked in",
	model.StatusCheckedOut: "Guest checked out",
	model.StatusCancelled:  "Booking cancelled",
	model.StatusNoShow:     "Booking marked as no-show",
}

// ChangeStatus requests a status transition.  Transitions the booking's
// current status does not allow are refused before any request; the PMS
// still has the final word on the rest.
func (s *Session) ChangeStatus(ctx context.Context, id, to string, n notice.Notifier) (model.Booking, error) {
	b, ok := s.bookings.ByID(id)
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	to = strings.ToLower(strings.TrimSpace(to))
	if !model.CanTransition(b.Status, to) {
		verr := model.ValidationError(fmt.Sprintf("cannot change status from %s to %s", b.Status, to))
		notice.Validation(n, verr.Error())
		return model.Booking{}, verr
	}
	ctx = s.withToken(ctx)
	updated, err := s.api.UpdateBooking(ctx, id, model.BookingUpdate{Status: &to})
	if err != nil {
		s.mutationFailed(n, "status change", err, "Failed to update booking status")
		return model.Booking{}, err
	}
	if updated.ID == "" {
		updated = b
		updated.Status = to
	}
	if s.auditor != nil {
		s.auditor.Enqueue(ctx, model.AuditLog{
			EntityType: "booking",
			EntityID:   id,
			Action:     "status_change",
			UserID:     s.operator,
			OldValues:  map[string]any{"status": b.Status},
			NewValues:  map[string]any{"status": to},
			CreatedAt:  model.At(time.Now().UTC()),
		})
	}
	s.reloadAll(ctx, n)
	notice.Success(n, statusVerbs[to])
	return updated, nil
}

// CreateBlock closes a room for a period and reloads the blocks.
func (s *Session) CreateBlock(ctx context.Context, in model.NewRoomBlock, n notice.Notifier) (model.RoomBlock, error) {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if err := in.Validate(); err != nil {
		notice.Validation(n, err.Error())
		return model.RoomBlock{}, err
	}
	if _, ok := s.rooms.ByID(in.RoomID); !ok {
		notice.Validation(n, "Unknown room")
		return model.RoomBlock{}, repository.ErrNotFound
	}
	ctx = s.withToken(ctx)
	bl, err := s.api.CreateRoomBlock(ctx, in)
	if err != nil {
		s.mutationFailed(n, "create block", err, "Failed to create room block")
		return model.RoomBlock{}, err
	}
	s.reloadBlocks(ctx, n)
	notice.Success(n, "Room block created")
	return bl, nil
}

// CancelBlock lifts a block and reloads the blocks.
func (s *Session) CancelBlock(ctx context.Context, id, reason string, n notice.Notifier) error {
	if _, ok := s.blocks.ByID(id); !ok {
		return repository.ErrNotFound
	}
	ctx = s.withToken(ctx)
	if err := s.api.CancelRoomBlock(ctx, id, strings.TrimSpace(reason)); err != nil {
		s.mutationFailed(n, "cancel block", err, "Failed to cancel room block")
		return err
	}
	s.reloadBlocks(ctx, n)
	notice.Success(n, "Room block cancelled")
	return nil
}

func (s *Session) reloadBlocks(ctx context.Context, n notice.Notifier) {
	if err := s.blocks.Refresh(ctx); err != nil {
		s.log.Warn("reload blocks failed", zap.Error(err))
		n.Notify(notice.New(notice.LevelError, notice.CategoryLoad, pmsapi.Message(err, "Failed to load room blocks")))
	}
}

func (s *Session) mutationFailed(n notice.Notifier, op string, err error, fallback string) {
	s.log.Warn(op+" failed", zap.Error(err))
	n.Notify(notice.New(notice.LevelError, notice.CategoryMutation, pmsapi.Message(err, fallback)))
}
