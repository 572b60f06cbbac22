// Package folio fronts the PMS folio endpoints: reading a booking's
// account, posting and voiding lines, transfers and the spreadsheet export.
// Balances are the PMS's; the sums computed here are for display.
package folio

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/notice"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
)

// API is the part of the PMS client this package calls.
type API interface {
	FolioByBooking(ctx context.Context, bookingID string) (model.Folio, error)
	Folio(ctx context.Context, id string) (model.Folio, error)
	PostCharge(ctx context.Context, folioID string, in model.NewCharge) error
	PostPayment(ctx context.Context, folioID string, in model.NewPayment) error
	VoidCharge(ctx context.Context, folioID, chargeID, reason string) error
	VoidPayment(ctx context.Context, paymentID, reason string) error
	TransferCharges(ctx context.Context, in model.FolioTransfer) error
	FolioExcel(ctx context.Context, folioID string) ([]byte, string, error)
}

// Summary is the display arithmetic over a folio.  Voided lines are left
// out.  Balance is copied from the PMS and is the figure that counts.
type Summary struct {
	FolioID       string          `json:"folio_id"`
	Status        string          `json:"status"`
	ChargeCount   int             `json:"charge_count"`
	PaymentCount  int             `json:"payment_count"`
	ChargesTotal  decimal.Decimal `json:"charges_total"`
	PaymentsTotal decimal.Decimal `json:"payments_total"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Balance       decimal.Decimal `json:"balance"`
}

// LineTotal is amount times quantity; a missing quantity counts as one.
func LineTotal(c model.Charge) decimal.Decimal {
	q := c.Quantity
	if q <= 0 {
		q = 1
	}
	return c.Amount.Mul(decimal.NewFromInt(int64(q)))
}

// Summarize totals the live lines of f.
func Summarize(f model.Folio) Summary {
	s := Summary{FolioID: f.ID, Status: f.Status, Balance: f.Balance}
	for _, c := range f.Charges {
		if c.Voided {
			continue
		}
		s.ChargeCount++
		s.ChargesTotal = s.ChargesTotal.Add(LineTotal(c))
	}
	for _, p := range f.Payments {
		if p.Voided {
			continue
		}
		s.PaymentCount++
		s.PaymentsTotal = s.PaymentsTotal.Add(p.Amount)
	}
	s.ChargesTotal = s.ChargesTotal.Round(2)
	s.PaymentsTotal = s.PaymentsTotal.Round(2)
	s.Outstanding = s.ChargesTotal.Sub(s.PaymentsTotal)
	return s
}

// View is a folio together with its summary.
type View struct {
	Folio   model.Folio `json:"folio"`
	Summary Summary     `json:"summary"`
}

func viewOf(f model.Folio) View {
	if f.Charges == nil {
		f.Charges = []model.Charge{}
	}
	if f.Payments == nil {
		f.Payments = []model.Payment{}
	}
	return View{Folio: f, Summary: Summarize(f)}
}

// Service runs folio reads and mutations.  Every mutation is validated
// first, sends one request, and on success refetches the folio.
type Service struct {
	api API
	log *zap.Logger
}

func NewService(api API, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{api: api, log: log.Named("folio")}
}

// ByBooking loads the folio attached to a booking.
func (s *Service) ByBooking(ctx context.Context, bookingID string, n notice.Notifier) (View, error) {
	f, err := s.api.FolioByBooking(ctx, bookingID)
	if err != nil {
		s.loadFailed(n, err)
		return View{}, err
	}
	return viewOf(f), nil
}

// Get loads a folio by id.
func (s *Service) Get(ctx context.Context, id string, n notice.Notifier) (View, error) {
	f, err := s.api.Folio(ctx, id)
	if err != nil {
		s.loadFailed(n, err)
		return View{}, err
	}
	return viewOf(f), nil
}

func (s *Service) PostCharge(ctx context.Context, folioID string, in model.NewCharge, n notice.Notifier) (View, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := validateCharge(in); err != nil {
		notice.Validation(n, err.Error())
		return View{}, err
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}
	return s.mutate(ctx, folioID, n, "Charge posted", "Failed to post charge", func(ctx context.Context) error {
		return s.api.PostCharge(ctx, folioID, in)
	})
}

func (s *Service) PostPayment(ctx context.Context, folioID string, in model.NewPayment, n notice.Notifier) (View, error) {
	in.Method = strings.TrimSpace(in.Method)
	if err := validatePayment(in); err != nil {
		notice.Validation(n, err.Error())
		return View{}, err
	}
	return s.mutate(ctx, folioID, n, "Payment recorded", "Failed to record payment", func(ctx context.Context) error {
		return s.api.PostPayment(ctx, folioID, in)
	})
}

func (s *Service) VoidCharge(ctx context.Context, folioID, chargeID, reason string, n notice.Notifier) (View, error) {
	if err := validateVoid(chargeID, reason); err != nil {
		notice.Validation(n, err.Error())
		return View{}, err
	}
	return s.mutate(ctx, folioID, n, "Charge voided", "Failed to void charge", func(ctx context.Context) error {
		return s.api.VoidCharge(ctx, folioID, chargeID, strings.TrimSpace(reason))
	})
}

func (s *Service) VoidPayment(ctx context.Context, folioID, paymentID, reason string, n notice.Notifier) (View, error) {
	if err := validateVoid(paymentID, reason); err != nil {
		notice.Validation(n, err.Error())
		return View{}, err
	}
	return s.mutate(ctx, folioID, n, "Payment voided", "Failed to void payment", func(ctx context.Context) error {
		return s.api.VoidPayment(ctx, paymentID, strings.TrimSpace(reason))
	})
}

// Transfer moves charges and returns the source folio as it now stands.
func (s *Service) Transfer(ctx context.Context, in model.FolioTransfer, n notice.Notifier) (View, error) {
	if err := validateTransfer(in); err != nil {
		notice.Validation(n, err.Error())
		return View{}, err
	}
	return s.mutate(ctx, in.FromFolioID, n, "Charges transferred", "Failed to transfer charges", func(ctx context.Context) error {
		return s.api.TransferCharges(ctx, in)
	})
}

// Excel returns the PMS's spreadsheet rendering of a folio.
func (s *Service) Excel(ctx context.Context, folioID string, n notice.Notifier) ([]byte, string, error) {
	body, ctype, err := s.api.FolioExcel(ctx, folioID)
	if err != nil {
		n.Notify(notice.New(notice.LevelError, notice.CategoryLoad, pmsapi.Message(err, "Failed to export folio")))
		return nil, "", err
	}
	return body, ctype, nil
}

func (s *Service) mutate(ctx context.Context, folioID string, n notice.Notifier, ok, failed string, call func(context.Context) error) (View, error) {
	if err := call(ctx); err != nil {
		s.log.Warn("folio mutation failed", zap.String("folio_id", folioID), zap.Error(err))
		n.Notify(notice.New(notice.LevelError, notice.CategoryMutation, pmsapi.Message(err, failed)))
		return View{}, err
	}
	notice.Success(n, ok)
	f, err := s.api.Folio(ctx, folioID)
	if err != nil {
		s.loadFailed(n, err)
		return View{}, nil
	}
	return viewOf(f), nil
}

func (s *Service) loadFailed(n notice.Notifier, err error) {
	if pmsapi.IsForbidden(err) {
		n.Notify(notice.New(notice.LevelError, notice.CategoryPermission, "You do not have permission to view this folio"))
		return
	}
	n.Notify(notice.New(notice.LevelError, notice.CategoryLoad, pmsapi.Message(err, "Failed to load folio")))
}

func validateCharge(in model.NewCharge) error {
	switch {
	case in.Description == "":
		return model.ValidationError("description is required")
	case !in.Amount.IsPositive():
		return model.ValidationError("amount must be greater than zero")
	case in.Quantity < 0:
		return model.ValidationError("quantity cannot be negative")
	}
	return nil
}

func validatePayment(in model.NewPayment) error {
	switch {
	case in.Method == "":
		return model.ValidationError("payment method is required")
	case !in.Amount.IsPositive():
		return model.ValidationError("amount must be greater than zero")
	}
	return nil
}

func validateVoid(id, reason string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return model.ValidationError("nothing selected to void")
	case strings.TrimSpace(reason) == "":
		return model.ValidationError("a reason is required to void")
	}
	return nil
}

func validateTransfer(in model.FolioTransfer) error {
	switch {
	case in.FromFolioID == "" || in.ToFolioID == "":
		return model.ValidationError("source and target folios are required")
	case in.FromFolioID == in.ToFolioID:
		return model.ValidationError("cannot transfer charges to the same folio")
	case len(in.ChargeIDs) == 0:
		return model.ValidationError("select at least one charge to transfer")
	}
	return nil
}
